package model

import (
	"time"

	"github.com/google/uuid"
)

// RequiredDocument tracks one compliance attachment per participant per
// document type. Presence or absence never gates signing; it is visibility
// only.
type RequiredDocument struct {
	ID               uuid.UUID
	ParticipantID    uuid.UUID
	DocumentTypeCode string
	Required         bool
	FileURL          *string
	UploadedAt       *time.Time
}
