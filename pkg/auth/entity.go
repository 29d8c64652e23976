package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/apperr"
)

// Role is fixed at registration; there is no role migration.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleEmployer  Role = "employer"
)

func (r Role) Valid() bool {
	return r == RoleApplicant || r == RoleEmployer
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", apperr.Validation("role must be applicant or employer")
	}
	return r, nil
}

// Actor is a registered user acting either as applicant or employer.
type Actor struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is what a verified token tells about the caller.
type Identity struct {
	ActorID uuid.UUID
	Role    Role
}
