package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type SigningConfig struct {
	BaseURL  string
	TokenTTL time.Duration
}

type NotifyConfig struct {
	GatewayURL  string
	EmailFrom   string
	KakaoSender string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Signing     SigningConfig
	Notify      NotifyConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Signing: SigningConfig{
			BaseURL:  v.GetString("SIGNING_BASE_URL"),
			TokenTTL: v.GetDuration("SIGNING_TOKEN_TTL"),
		},
		Notify: NotifyConfig{
			GatewayURL:  v.GetString("NOTIFY_GATEWAY_URL"),
			EmailFrom:   v.GetString("NOTIFY_EMAIL_FROM"),
			KakaoSender: v.GetString("NOTIFY_KAKAO_SENDER"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7091
	}
	if cfg.Signing.TokenTTL == 0 {
		cfg.Signing.TokenTTL = 24 * time.Hour
	}
	if cfg.Notify.EmailFrom == "" {
		cfg.Notify.EmailFrom = "no-reply@signflow.local"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Signing.BaseURL == "" {
		return fmt.Errorf("SIGNING_BASE_URL is required")
	}
	return nil
}
