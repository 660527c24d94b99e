package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender is the development fallback when no gateway is configured: it
// logs the invitation instead of delivering it.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendEmail(_ context.Context, input EmailInput) error {
	s.log.Info().
		Str("to", input.To).
		Str("contract_title", input.ContractTitle).
		Str("signing_url", input.SigningURL).
		Msg("email invitation (log only)")
	return nil
}

func (s *LogSender) SendChatAlert(_ context.Context, input ChatInput) error {
	s.log.Info().
		Str("phone", input.Phone).
		Str("contract_title", input.ContractTitle).
		Str("signing_url", input.SigningURL).
		Msg("kakao invitation (log only)")
	return nil
}
