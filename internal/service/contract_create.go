package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurmak/signflow/internal/model"
	"github.com/nurmak/signflow/internal/notify"
)

type TemplateInput struct {
	Name         string
	FileURL      string
	DisplayOrder int
}

type ParticipantInput struct {
	Name    string
	Email   string
	Phone   string
	Channel model.NotifyChannel
}

type DocumentTypeInput struct {
	Code     string
	Required bool
}

type CreateContractInput struct {
	CompanyID      uuid.UUID
	Title          string
	Description    string
	StartDate      time.Time
	ExpiryDate     time.Time
	DeadlineDate   *time.Time
	InsuranceStart time.Time
	InsuranceEnd   time.Time
	Templates      []TemplateInput
	Participants   []ParticipantInput
	DocumentTypes  []DocumentTypeInput
}

// RenewalRequest carries the shifted date windows for a successor contract.
// It is transient and never persisted.
type RenewalRequest struct {
	StartDate      time.Time
	ExpiryDate     time.Time
	InsuranceStart time.Time
	InsuranceEnd   time.Time
}

// CreateContract builds a new contract from the given roster, persists it and
// dispatches a signing invitation to every participant through their chosen
// channel. The notification summary is advisory: partial delivery failure
// does not fail the operation.
func (s *WorkflowService) CreateContract(
	ctx context.Context,
	principal model.Principal,
	input CreateContractInput,
) (*model.Contract, notify.Summary, error) {
	if !principal.IsStaff() {
		return nil, notify.Summary{}, ErrPermissionDenied
	}
	if err := validateCreateInput(input); err != nil {
		return nil, notify.Summary{}, err
	}

	now := s.now()
	contract := &model.Contract{
		ID:             uuid.New(),
		CompanyID:      input.CompanyID,
		ContractNumber: buildContractNumber(now),
		Title:          input.Title,
		Description:    input.Description,
		Status:         model.ContractStatusSigning,
		Progress:       0,
		StartDate:      input.StartDate,
		ExpiryDate:     input.ExpiryDate,
		DeadlineDate:   input.DeadlineDate,
		InsuranceStart: input.InsuranceStart,
		InsuranceEnd:   input.InsuranceEnd,
		Version:        1,
		CreatedBy:      principal.UserID,
		CreatedAt:      now,
	}

	for _, tpl := range input.Templates {
		contract.Templates = append(contract.Templates, model.Template{
			ID:           uuid.New(),
			ContractID:   contract.ID,
			Name:         tpl.Name,
			FileURL:      tpl.FileURL,
			DisplayOrder: tpl.DisplayOrder,
		})
	}

	var documents []model.RequiredDocument
	for _, in := range input.Participants {
		participant := model.Participant{
			ID:         uuid.New(),
			ContractID: contract.ID,
			Name:       in.Name,
			Email:      in.Email,
			Phone:      in.Phone,
			Channel:    in.Channel,
			Status:     model.ParticipantStatusSigning,
			CreatedAt:  now,
		}
		contract.Participants = append(contract.Participants, participant)

		for _, doc := range input.DocumentTypes {
			documents = append(documents, model.RequiredDocument{
				ID:               uuid.New(),
				ParticipantID:    participant.ID,
				DocumentTypeCode: doc.Code,
				Required:         doc.Required,
			})
		}
	}

	saved, err := s.contracts.CreateContract(ctx, contract, documents)
	if err != nil {
		return nil, notify.Summary{}, err
	}

	summary := s.notifier.FanOut(ctx, saved, notify.Message{
		ContractTitle: saved.Title,
		Requester:     principal.Name,
		Date:          now,
	})

	s.log.Info().
		Str("contract_id", saved.ID.String()).
		Int("participants", len(saved.Participants)).
		Int("notified", summary.Succeeded).
		Msg("contract created and dispatched")

	return saved, summary, nil
}

// RenewContract builds a successor contract from the company's most recent
// contract: templates, participant roster and required-document definitions
// carry over, all signing progress is reset, and the date windows shift per
// the request. Renewal requires the prior contract to be COMPLETE.
func (s *WorkflowService) RenewContract(
	ctx context.Context,
	principal model.Principal,
	companyID uuid.UUID,
	req RenewalRequest,
) (*model.Contract, notify.Summary, error) {
	if !principal.IsStaff() {
		return nil, notify.Summary{}, ErrPermissionDenied
	}
	if err := validateRenewalDates(req); err != nil {
		return nil, notify.Summary{}, err
	}

	prior, err := s.contracts.LatestContractForCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notify.Summary{}, fmt.Errorf("%w: no contract for company %s", ErrNotFound, companyID)
		}
		return nil, notify.Summary{}, err
	}

	if prior.Status != model.ContractStatusComplete {
		return nil, notify.Summary{}, fmt.Errorf("%w: prior contract %s is %s, renewal requires %s",
			ErrInvalidTransition, prior.ID, prior.Status, model.ContractStatusComplete)
	}

	if !req.StartDate.After(prior.ExpiryDate) {
		return nil, notify.Summary{}, fmt.Errorf("%w: start date must be after prior expiry %s",
			ErrValidation, prior.ExpiryDate.Format("2006-01-02"))
	}
	if !req.InsuranceStart.After(prior.InsuranceEnd) {
		return nil, notify.Summary{}, fmt.Errorf("%w: insurance start must be after prior insurance end %s",
			ErrValidation, prior.InsuranceEnd.Format("2006-01-02"))
	}

	input := CreateContractInput{
		CompanyID:      prior.CompanyID,
		Title:          prior.Title,
		Description:    prior.Description,
		StartDate:      req.StartDate,
		ExpiryDate:     req.ExpiryDate,
		InsuranceStart: req.InsuranceStart,
		InsuranceEnd:   req.InsuranceEnd,
	}
	for _, tpl := range prior.Templates {
		input.Templates = append(input.Templates, TemplateInput{
			Name:         tpl.Name,
			FileURL:      tpl.FileURL,
			DisplayOrder: tpl.DisplayOrder,
		})
	}
	for i := range prior.Participants {
		p := &prior.Participants[i]
		input.Participants = append(input.Participants, ParticipantInput{
			Name:    p.Name,
			Email:   p.Email,
			Phone:   p.Phone,
			Channel: p.Channel,
		})
	}
	input.DocumentTypes = s.priorDocumentTypes(ctx, prior)

	return s.CreateContract(ctx, principal, input)
}

// priorDocumentTypes collects the distinct required-document definitions of
// the prior roster so renewal carries them forward. Lookup failures degrade
// to an empty definition set rather than failing the renewal.
func (s *WorkflowService) priorDocumentTypes(ctx context.Context, prior *model.Contract) []DocumentTypeInput {
	seen := make(map[string]struct{})
	var types []DocumentTypeInput
	for i := range prior.Participants {
		docs, err := s.documents.ListRequiredDocuments(ctx, prior.Participants[i].ID)
		if err != nil {
			s.log.Warn().Err(err).
				Str("participant_id", prior.Participants[i].ID.String()).
				Msg("could not load required documents for renewal")
			continue
		}
		for _, doc := range docs {
			if _, ok := seen[doc.DocumentTypeCode]; ok {
				continue
			}
			seen[doc.DocumentTypeCode] = struct{}{}
			types = append(types, DocumentTypeInput{Code: doc.DocumentTypeCode, Required: doc.Required})
		}
	}
	return types
}

func validateCreateInput(input CreateContractInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.CompanyID == uuid.Nil {
		return fmt.Errorf("%w: company_id is required", ErrValidation)
	}
	if len(input.Participants) == 0 {
		return fmt.Errorf("%w: at least one participant is required", ErrValidation)
	}
	for _, p := range input.Participants {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: participant name is required", ErrValidation)
		}
		if p.Channel != model.ChannelEmail && p.Channel != model.ChannelKakao {
			return fmt.Errorf("%w: unknown channel %q", ErrValidation, p.Channel)
		}
		if p.Channel == model.ChannelEmail && strings.TrimSpace(p.Email) == "" {
			return fmt.Errorf("%w: participant email is required for EMAIL channel", ErrValidation)
		}
		if p.Channel == model.ChannelKakao && strings.TrimSpace(p.Phone) == "" {
			return fmt.Errorf("%w: participant phone is required for KAKAO channel", ErrValidation)
		}
	}
	if input.StartDate.IsZero() || input.ExpiryDate.IsZero() {
		return fmt.Errorf("%w: start and expiry dates are required", ErrValidation)
	}
	if input.StartDate.After(input.ExpiryDate) {
		return fmt.Errorf("%w: start date must not be after expiry date", ErrValidation)
	}
	if input.InsuranceStart.After(input.InsuranceEnd) {
		return fmt.Errorf("%w: insurance start must not be after insurance end", ErrValidation)
	}
	return nil
}

func validateRenewalDates(req RenewalRequest) error {
	if req.StartDate.IsZero() || req.ExpiryDate.IsZero() ||
		req.InsuranceStart.IsZero() || req.InsuranceEnd.IsZero() {
		return fmt.Errorf("%w: all renewal dates are required", ErrValidation)
	}
	if req.StartDate.After(req.ExpiryDate) {
		return fmt.Errorf("%w: start date must not be after expiry date", ErrValidation)
	}
	if req.InsuranceStart.After(req.InsuranceEnd) {
		return fmt.Errorf("%w: insurance start must not be after insurance end", ErrValidation)
	}
	return nil
}

func buildContractNumber(now time.Time) string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("CT-%s-%s", now.Format("20060102"), strings.ToUpper(suffix))
}
