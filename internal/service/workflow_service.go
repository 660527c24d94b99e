package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurmak/signflow/internal/model"
	"github.com/nurmak/signflow/internal/notify"
	"github.com/nurmak/signflow/internal/repository"
)

// ContractStore is the persistence contract the workflow engine consumes.
type ContractStore interface {
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	LatestContractForCompany(ctx context.Context, companyID uuid.UUID) (*model.Contract, error)
	ListContracts(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]model.Contract, error)
	CreateContract(ctx context.Context, contract *model.Contract, documents []model.RequiredDocument) (*model.Contract, error)
	SaveTransition(ctx context.Context, contract *model.Contract, expectedVersion int64) error
}

// DocumentStore holds per-participant required-attachment records and signed
// artifact references.
type DocumentStore interface {
	ListRequiredDocuments(ctx context.Context, participantID uuid.UUID) ([]model.RequiredDocument, error)
	AttachFile(ctx context.Context, participantID uuid.UUID, documentTypeCode, fileURL string) (*model.RequiredDocument, error)
	GetSignedArtifact(ctx context.Context, participantID uuid.UUID) (string, error)
}

// Notifier fans out signing invitations; partial failure is reported in the
// summary, never as an error.
type Notifier interface {
	FanOut(ctx context.Context, contract *model.Contract, msg notify.Message) notify.Summary
}

type RosterExporter interface {
	Generate(contract *model.Contract) ([]byte, error)
}

type CertificateGenerator interface {
	Generate(contract *model.Contract) ([]byte, error)
}

type WorkflowService struct {
	contracts ContractStore
	documents DocumentStore
	notifier  Notifier
	excel     RosterExporter
	pdf       CertificateGenerator
	log       zerolog.Logger
	now       func() time.Time
}

func NewWorkflowService(
	contracts ContractStore,
	documents DocumentStore,
	notifier Notifier,
	excel RosterExporter,
	pdf CertificateGenerator,
	log zerolog.Logger,
) *WorkflowService {
	return &WorkflowService{
		contracts: contracts,
		documents: documents,
		notifier:  notifier,
		excel:     excel,
		pdf:       pdf,
		log:       log,
		now:       time.Now,
	}
}

func (s *WorkflowService) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.contracts.GetContract(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, err
	}
	return contract, nil
}

func (s *WorkflowService) ListContracts(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]model.Contract, error) {
	return s.contracts.ListContracts(ctx, companyID, limit, offset)
}

// loadForTransition fetches the aggregate and target participant and applies
// the common preconditions shared by every staff transition.
func (s *WorkflowService) loadForTransition(
	ctx context.Context,
	principal model.Principal,
	contractID, participantID uuid.UUID,
	expectedVersion int64,
) (*model.Contract, *model.Participant, error) {
	if !principal.IsStaff() {
		return nil, nil, ErrPermissionDenied
	}

	contract, err := s.GetContract(ctx, contractID)
	if err != nil {
		return nil, nil, err
	}
	if contract.Version != expectedVersion {
		return nil, nil, fmt.Errorf("%w: expected version %d, have %d", ErrConflict, expectedVersion, contract.Version)
	}

	participant := contract.FindParticipant(participantID)
	if participant == nil {
		return nil, nil, fmt.Errorf("%w: participant %s", ErrNotFound, participantID)
	}
	return contract, participant, nil
}

func (s *WorkflowService) saveTransition(ctx context.Context, contract *model.Contract, expectedVersion int64) error {
	contract.Recompute()
	if err := s.contracts.SaveTransition(ctx, contract, expectedVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return fmt.Errorf("%w: contract %s", ErrConflict, contract.ID)
		}
		return err
	}
	return nil
}

// ApproveParticipant moves a participant from SIGNED_WAITING_APPROVAL to
// APPROVED. When that approval is the last one outstanding, every participant
// is promoted to SIGNED_DOWNLOADABLE and the contract completes.
func (s *WorkflowService) ApproveParticipant(
	ctx context.Context,
	principal model.Principal,
	contractID, participantID uuid.UUID,
	comment string,
	version int64,
) (*model.Contract, error) {
	contract, participant, err := s.loadForTransition(ctx, principal, contractID, participantID, version)
	if err != nil {
		return nil, err
	}

	if participant.Status != model.ParticipantStatusWaitingApproval {
		return nil, fmt.Errorf("%w: participant is %s, not %s",
			ErrInvalidTransition, participant.Status, model.ParticipantStatusWaitingApproval)
	}

	now := s.now()
	participant.Status = model.ParticipantStatusApproved
	participant.ApprovedBy = &principal.Name
	participant.ApprovedAt = &now
	if comment != "" {
		participant.ApprovalComment = &comment
	}

	s.promoteIfComplete(contract)

	if err := s.saveTransition(ctx, contract, version); err != nil {
		return nil, err
	}
	return contract, nil
}

// RejectParticipant records the rejection and resets every participant of the
// contract to SIGNING. The signed document set is produced jointly, so one
// objection invalidates all signatures, not just the rejected one.
func (s *WorkflowService) RejectParticipant(
	ctx context.Context,
	principal model.Principal,
	contractID, participantID uuid.UUID,
	reason string,
	version int64,
) (*model.Contract, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	contract, participant, err := s.loadForTransition(ctx, principal, contractID, participantID, version)
	if err != nil {
		return nil, err
	}

	if participant.Status != model.ParticipantStatusWaitingApproval {
		return nil, fmt.Errorf("%w: participant is %s, not %s",
			ErrInvalidTransition, participant.Status, model.ParticipantStatusWaitingApproval)
	}

	now := s.now()
	for i := range contract.Participants {
		contract.Participants[i].ResetToSigning()
	}
	participant.RejectionReason = &reason
	participant.RejectedAt = &now

	if err := s.saveTransition(ctx, contract, version); err != nil {
		return nil, err
	}
	return contract, nil
}

// RequestResign opens a staff-initiated correction cycle for one participant.
func (s *WorkflowService) RequestResign(
	ctx context.Context,
	principal model.Principal,
	contractID, participantID uuid.UUID,
	reason string,
	version int64,
) (*model.Participant, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: resign reason is required", ErrValidation)
	}

	contract, participant, err := s.loadForTransition(ctx, principal, contractID, participantID, version)
	if err != nil {
		return nil, err
	}

	if participant.Status != model.ParticipantStatusApproved &&
		participant.Status != model.ParticipantStatusWaitingApproval {
		return nil, fmt.Errorf("%w: resign may only be requested from %s or %s, participant is %s",
			ErrInvalidTransition, model.ParticipantStatusApproved,
			model.ParticipantStatusWaitingApproval, participant.Status)
	}

	now := s.now()
	participant.Status = model.ParticipantStatusResignRequested
	participant.ResignReason = &reason
	participant.ResignRequestedAt = &now

	if err := s.saveTransition(ctx, contract, version); err != nil {
		return nil, err
	}
	return contract.FindParticipant(participantID), nil
}

// ApproveResign clears the participant's prior signature artifact and returns
// them to SIGNING; they must sign again from scratch.
func (s *WorkflowService) ApproveResign(
	ctx context.Context,
	principal model.Principal,
	contractID, participantID uuid.UUID,
	approver string,
	version int64,
) (*model.Contract, error) {
	if approver == "" {
		return nil, fmt.Errorf("%w: approver name is required", ErrValidation)
	}

	contract, participant, err := s.loadForTransition(ctx, principal, contractID, participantID, version)
	if err != nil {
		return nil, err
	}

	if participant.Status != model.ParticipantStatusResignRequested {
		return nil, fmt.Errorf("%w: participant is %s, not %s",
			ErrInvalidTransition, participant.Status, model.ParticipantStatusResignRequested)
	}

	participant.ResetToSigning()
	participant.ResignApprovedBy = &approver

	if err := s.saveTransition(ctx, contract, version); err != nil {
		return nil, err
	}
	return contract, nil
}

// CompleteSignature is the signer-side callback: the participant finished
// signature capture and the produced artifact reference is attached. The
// caller is authenticated by the signing token, not a staff principal.
func (s *WorkflowService) CompleteSignature(
	ctx context.Context,
	contractID, participantID uuid.UUID,
	artifactURL string,
) (*model.Contract, error) {
	if artifactURL == "" {
		return nil, fmt.Errorf("%w: artifact_url is required", ErrValidation)
	}

	contract, err := s.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	participant := contract.FindParticipant(participantID)
	if participant == nil {
		return nil, fmt.Errorf("%w: participant %s", ErrNotFound, participantID)
	}
	if participant.Status != model.ParticipantStatusSigning {
		return nil, fmt.Errorf("%w: participant is %s, not %s",
			ErrInvalidTransition, participant.Status, model.ParticipantStatusSigning)
	}

	now := s.now()
	participant.Status = model.ParticipantStatusWaitingApproval
	participant.Signed = true
	participant.SignedAt = &now
	participant.SignedArtifactURL = &artifactURL

	if err := s.saveTransition(ctx, contract, contract.Version); err != nil {
		return nil, err
	}
	return contract, nil
}

// promoteIfComplete checks the contract-wide completion condition and, when
// it passes, moves every participant into the terminal downloadable state.
func (s *WorkflowService) promoteIfComplete(contract *model.Contract) {
	for i := range contract.Participants {
		if !contract.Participants[i].IsApproved() {
			return
		}
	}
	for i := range contract.Participants {
		contract.Participants[i].Status = model.ParticipantStatusDownloadable
	}
}
