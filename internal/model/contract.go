package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusDraft    ContractStatus = "DRAFT"
	ContractStatusWaiting  ContractStatus = "WAITING"
	ContractStatusSigning  ContractStatus = "SIGNING"
	ContractStatusComplete ContractStatus = "COMPLETE"
)

type Contract struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	ContractNumber string
	Title          string
	Description    string
	Status         ContractStatus
	Progress       float64
	StartDate      time.Time
	ExpiryDate     time.Time
	DeadlineDate   *time.Time
	InsuranceStart time.Time
	InsuranceEnd   time.Time
	Version        int64
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	Templates      []Template    `gorm:"-"`
	Participants   []Participant `gorm:"-"`
}

// DeriveStatus recomputes the contract status from its participants. A
// contract exists in this service only after dispatch, so there is no
// pre-signing WAITING phase: it stays SIGNING until every participant reaches
// a terminal approved state, then becomes COMPLETE.
func (c *Contract) DeriveStatus() ContractStatus {
	if len(c.Participants) == 0 {
		return ContractStatusDraft
	}
	for i := range c.Participants {
		if !c.Participants[i].IsApproved() {
			return ContractStatusSigning
		}
	}
	return ContractStatusComplete
}

// ComputeProgress returns signedCount/totalCount for the current roster.
func (c *Contract) ComputeProgress() float64 {
	total := len(c.Participants)
	if total == 0 {
		return 0
	}
	signed := 0
	for i := range c.Participants {
		if c.Participants[i].HasSigned() {
			signed++
		}
	}
	return float64(signed) / float64(total)
}

// Recompute refreshes the derived status and progress ratio in place.
func (c *Contract) Recompute() {
	c.Status = c.DeriveStatus()
	c.Progress = c.ComputeProgress()
}

// FindParticipant returns the participant with the given ID, or nil.
func (c *Contract) FindParticipant(id uuid.UUID) *Participant {
	for i := range c.Participants {
		if c.Participants[i].ID == id {
			return &c.Participants[i]
		}
	}
	return nil
}
