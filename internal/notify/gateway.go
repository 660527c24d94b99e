package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGateway talks to the external notification gateway over REST. It
// implements both EmailSender and ChatSender.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type gatewayEmailRequest struct {
	ParticipantID string `json:"participant_id"`
	To            string `json:"to"`
	Name          string `json:"name"`
	ContractTitle string `json:"contract_title"`
	SigningURL    string `json:"signing_url"`
	From          string `json:"from"`
}

type gatewayChatRequest struct {
	Phone         string `json:"phone"`
	Name          string `json:"name"`
	ContractTitle string `json:"contract_title"`
	Requester     string `json:"requester"`
	Date          string `json:"date"`
	SigningURL    string `json:"signing_url"`
	Sender        string `json:"sender"`
}

func (g *HTTPGateway) SendEmail(ctx context.Context, input EmailInput) error {
	return g.post(ctx, "/email", gatewayEmailRequest{
		ParticipantID: input.ParticipantID,
		To:            input.To,
		Name:          input.Name,
		ContractTitle: input.ContractTitle,
		SigningURL:    input.SigningURL,
		From:          input.From,
	})
}

func (g *HTTPGateway) SendChatAlert(ctx context.Context, input ChatInput) error {
	return g.post(ctx, "/kakao", gatewayChatRequest{
		Phone:         input.Phone,
		Name:          input.Name,
		ContractTitle: input.ContractTitle,
		Requester:     input.Requester,
		Date:          input.Date.Format("2006-01-02"),
		SigningURL:    input.SigningURL,
		Sender:        input.Sender,
	})
}

func (g *HTTPGateway) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s returned %d: %s", path, resp.StatusCode, string(detail))
	}
	return nil
}
