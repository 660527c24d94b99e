package model

import "github.com/google/uuid"

// Template is one document form attached to a contract, signed in display
// order by every participant.
type Template struct {
	ID           uuid.UUID
	ContractID   uuid.UUID
	Name         string
	FileURL      string
	DisplayOrder int
}
