package main

import (
	"fmt"
	"os"

	"github.com/nurmak/signflow/internal/auth"
	"github.com/nurmak/signflow/internal/config"
	"github.com/nurmak/signflow/internal/db"
	"github.com/nurmak/signflow/internal/excel"
	httphandler "github.com/nurmak/signflow/internal/http"
	"github.com/nurmak/signflow/internal/http/middleware"
	"github.com/nurmak/signflow/internal/logger"
	"github.com/nurmak/signflow/internal/notify"
	"github.com/nurmak/signflow/internal/pdf"
	"github.com/nurmak/signflow/internal/repository"
	"github.com/nurmak/signflow/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	contractRepo := repository.NewContractRepository(database)
	documentRepo := repository.NewDocumentRepository(database)

	tokenMinter := notify.NewJWTMinter(cfg.Auth.AccessSecret, cfg.Signing.TokenTTL)

	var email notify.EmailSender
	var chat notify.ChatSender
	if cfg.Notify.GatewayURL != "" {
		gateway := notify.NewHTTPGateway(cfg.Notify.GatewayURL)
		email = gateway
		chat = gateway
	} else {
		sender := notify.NewLogSender(log)
		email = sender
		chat = sender
	}
	dispatcher := notify.NewDispatcher(
		email, chat, tokenMinter,
		cfg.Signing.BaseURL, cfg.Notify.EmailFrom, cfg.Notify.KakaoSender,
		log,
	)

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	excelGenerator := excel.NewGenerator()

	workflow := service.NewWorkflowService(
		contractRepo, documentRepo, dispatcher, excelGenerator, pdfGenerator, log,
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(workflow, tokenMinter, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting signflow service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
