// Package authz holds the capability checks that sit in front of the job
// registry and the application lifecycle. Checks are pure: callers load the
// entity first (so a missing entity is reported as not found) and ask here
// whether the principal may touch it.
package authz

import (
	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   uuid.UUID
	Role auth.Role
}

func (p Principal) Is(role auth.Role) bool { return p.Role == role }

// Owned is implemented by entities with a single owning actor.
type Owned interface {
	OwnerRef() uuid.UUID
}

// Participated is implemented by entities tied to one applicant and one employer.
type Participated interface {
	ApplicantRef() uuid.UUID
	EmployerRef() uuid.UUID
}

// Participation tells in which capacity a principal takes part in a record.
type Participation struct {
	IsApplicant bool
	IsEmployer  bool
}

func (p Participation) Any() bool { return p.IsApplicant || p.IsEmployer }

// RequireRole fails with Forbidden unless the principal holds one of roles.
func RequireRole(p Principal, roles ...auth.Role) error {
	if p.ID == uuid.Nil {
		return apperr.Unauthorized("authentication required")
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("operation not allowed for role " + string(p.Role))
}

func IsJobOwner(p Principal, job Owned) bool {
	return p.Role == auth.RoleEmployer && p.ID != uuid.Nil && job.OwnerRef() == p.ID
}

// RequireOwner fails with Forbidden unless the principal owns the entity.
func RequireOwner(p Principal, job Owned) error {
	if !IsJobOwner(p, job) {
		return apperr.Forbidden("only the owner may modify this job")
	}
	return nil
}

func ParticipantOf(p Principal, rec Participated) Participation {
	if p.ID == uuid.Nil {
		return Participation{}
	}
	return Participation{
		IsApplicant: p.Role == auth.RoleApplicant && rec.ApplicantRef() == p.ID,
		IsEmployer:  p.Role == auth.RoleEmployer && rec.EmployerRef() == p.ID,
	}
}

// RequireParticipant grants read access to either participant and to no one else.
func RequireParticipant(p Principal, rec Participated) (Participation, error) {
	part := ParticipantOf(p, rec)
	if !part.Any() {
		return part, apperr.Forbidden("not a participant of this application")
	}
	return part, nil
}

// RequireApplicantOf fails unless the principal is the record's applicant.
func RequireApplicantOf(p Principal, rec Participated) error {
	if !ParticipantOf(p, rec).IsApplicant {
		return apperr.Forbidden("only the applicant may do this")
	}
	return nil
}

// RequireEmployerOf fails unless the principal is the record's employer.
func RequireEmployerOf(p Principal, rec Participated) error {
	if !ParticipantOf(p, rec).IsEmployer {
		return apperr.Forbidden("only the employer of this application may do this")
	}
	return nil
}
