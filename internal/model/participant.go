package model

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantStatus string

const (
	ParticipantStatusDraft            ParticipantStatus = "DRAFT"
	ParticipantStatusSigning          ParticipantStatus = "SIGNING"
	ParticipantStatusWaitingApproval  ParticipantStatus = "SIGNED_WAITING_APPROVAL"
	ParticipantStatusApproved         ParticipantStatus = "APPROVED"
	ParticipantStatusRejected         ParticipantStatus = "REJECTED"
	ParticipantStatusResignRequested  ParticipantStatus = "RESIGN_REQUESTED"
	ParticipantStatusResignInProgress ParticipantStatus = "RESIGN_IN_PROGRESS"
	ParticipantStatusDownloadable     ParticipantStatus = "SIGNED_DOWNLOADABLE"
)

type NotifyChannel string

const (
	ChannelEmail NotifyChannel = "EMAIL"
	ChannelKakao NotifyChannel = "KAKAO"
)

type Participant struct {
	ID                uuid.UUID
	ContractID        uuid.UUID
	Name              string
	Email             string
	Phone             string
	Channel           NotifyChannel
	Status            ParticipantStatus
	Signed            bool
	SignedAt          *time.Time
	SignedArtifactURL *string
	ApprovalComment   *string
	ApprovedBy        *string
	ApprovedAt        *time.Time
	RejectionReason   *string
	RejectedAt        *time.Time
	ResignReason      *string
	ResignRequestedAt *time.Time
	ResignApprovedBy  *string
	CreatedAt         time.Time
}

// HasSigned reports whether the participant's signature currently counts toward
// contract progress. A resign request keeps the old signature on file until
// staff approve the resign, so it still counts here.
func (p *Participant) HasSigned() bool {
	switch p.Status {
	case ParticipantStatusWaitingApproval,
		ParticipantStatusApproved,
		ParticipantStatusDownloadable,
		ParticipantStatusResignRequested:
		return true
	default:
		return false
	}
}

// IsApproved reports whether the participant is in a terminal approved state.
func (p *Participant) IsApproved() bool {
	return p.Status == ParticipantStatusApproved || p.Status == ParticipantStatusDownloadable
}

// ResetToSigning wipes all signature and approval progress. Used by the
// contract-wide reset on rejection and by the resign cycle: the participant
// must sign again from scratch.
func (p *Participant) ResetToSigning() {
	p.Status = ParticipantStatusSigning
	p.Signed = false
	p.SignedAt = nil
	p.SignedArtifactURL = nil
	p.ApprovalComment = nil
	p.ApprovedBy = nil
	p.ApprovedAt = nil
	p.RejectionReason = nil
	p.RejectedAt = nil
	p.ResignReason = nil
	p.ResignRequestedAt = nil
	p.ResignApprovedBy = nil
}
