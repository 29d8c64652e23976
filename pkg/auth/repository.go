package auth

import (
	"context"

	"github.com/google/uuid"
)

// ActorRepository abstracts persistence of actors.
// Create must report a duplicate email as apperr.KindConflict,
// lookups of absent actors as apperr.KindNotFound.
type ActorRepository interface {
	Create(ctx context.Context, actor Actor) error
	GetByEmail(ctx context.Context, email string) (Actor, error)
	GetByID(ctx context.Context, id uuid.UUID) (Actor, error)
	// Delete removes an actor; deleting an unknown id is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileInitializer creates the role-specific profile of a new actor.
type ProfileInitializer interface {
	Init(ctx context.Context, actor Actor, company string) error
}
