package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurmak/signflow/internal/model"
)

// EmailSender delivers a signing invitation over email. Implementations live
// outside this service; failures are per-recipient and advisory.
type EmailSender interface {
	SendEmail(ctx context.Context, input EmailInput) error
}

// ChatSender delivers a signing invitation over the Kakao alert channel.
type ChatSender interface {
	SendChatAlert(ctx context.Context, input ChatInput) error
}

type EmailInput struct {
	ParticipantID string
	To            string
	Name          string
	ContractTitle string
	SigningURL    string
	From          string
}

type ChatInput struct {
	Phone         string
	Name          string
	ContractTitle string
	Requester     string
	Date          time.Time
	SigningURL    string
	Sender        string
}

// Message is the shared context for one fan-out run.
type Message struct {
	ContractTitle string
	Requester     string
	Date          time.Time
}

// Summary aggregates per-recipient outcomes of one fan-out. Partial failure
// never raises: the caller displays the summary instead.
type Summary struct {
	Attempted  int    `json:"attempted"`
	Succeeded  int    `json:"succeeded"`
	FirstError string `json:"first_error,omitempty"`
}

func (s *Summary) record(err error) {
	s.Attempted++
	if err == nil {
		s.Succeeded++
		return
	}
	if s.FirstError == "" {
		s.FirstError = err.Error()
	}
}

// Minter issues a short-lived signing token scoping the signing link to one
// participant and contract.
type Minter interface {
	Mint(contractID, participantID string) (string, error)
}

type Dispatcher struct {
	email       EmailSender
	chat        ChatSender
	tokens      Minter
	baseURL     string
	emailFrom   string
	kakaoSender string
	log         zerolog.Logger
}

func NewDispatcher(
	email EmailSender,
	chat ChatSender,
	tokens Minter,
	baseURL, emailFrom, kakaoSender string,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		email:       email,
		chat:        chat,
		tokens:      tokens,
		baseURL:     baseURL,
		emailFrom:   emailFrom,
		kakaoSender: kakaoSender,
		log:         log,
	}
}

// FanOut sends one signing invitation per participant, sequentially. A failed
// recipient is recorded and the loop continues: notification is advisory, not
// transactional with the contract state that preceded it.
func (d *Dispatcher) FanOut(ctx context.Context, contract *model.Contract, msg Message) Summary {
	var summary Summary

	for i := range contract.Participants {
		p := &contract.Participants[i]
		err := d.sendOne(ctx, contract, p, msg)
		summary.record(err)
		if err != nil {
			d.log.Warn().
				Err(err).
				Str("participant_id", p.ID.String()).
				Str("channel", string(p.Channel)).
				Msg("notification delivery failed")
		}
	}

	return summary
}

func (d *Dispatcher) sendOne(ctx context.Context, contract *model.Contract, p *model.Participant, msg Message) error {
	token, err := d.tokens.Mint(contract.ID.String(), p.ID.String())
	if err != nil {
		return fmt.Errorf("mint signing token: %w", err)
	}
	signingURL := fmt.Sprintf("%s/sign?token=%s", d.baseURL, token)

	switch p.Channel {
	case model.ChannelKakao:
		return d.chat.SendChatAlert(ctx, ChatInput{
			Phone:         p.Phone,
			Name:          p.Name,
			ContractTitle: msg.ContractTitle,
			Requester:     msg.Requester,
			Date:          msg.Date,
			SigningURL:    signingURL,
			Sender:        d.kakaoSender,
		})
	case model.ChannelEmail:
		return d.email.SendEmail(ctx, EmailInput{
			ParticipantID: p.ID.String(),
			To:            p.Email,
			Name:          p.Name,
			ContractTitle: msg.ContractTitle,
			SigningURL:    signingURL,
			From:          d.emailFrom,
		})
	default:
		return fmt.Errorf("unknown channel %q", p.Channel)
	}
}
