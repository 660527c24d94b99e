package model

import "github.com/google/uuid"

// Principal is the authenticated caller of a workflow operation, extracted
// from the access token by the auth middleware and passed explicitly rather
// than read from ambient storage.
type Principal struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Name      string
	Role      string
}

func (p Principal) IsAdmin() bool {
	return p.Role == "ADMIN"
}

func (p Principal) IsStaff() bool {
	return p.Role == "ADMIN" || p.Role == "STAFF"
}
