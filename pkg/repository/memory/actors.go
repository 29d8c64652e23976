package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
)

type ActorRepo struct{ s *Store }

func (r *ActorRepo) Create(_ context.Context, a auth.Actor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email := strings.ToLower(a.Email)
	if _, ok := r.s.emails[email]; ok {
		return apperr.Conflict("email already registered")
	}
	r.s.actors[a.ID] = a
	r.s.emails[email] = a.ID
	return nil
}

func (r *ActorRepo) GetByEmail(_ context.Context, email string) (auth.Actor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.emails[strings.ToLower(email)]
	if !ok {
		return auth.Actor{}, apperr.NotFound("user not found")
	}
	return r.s.actors[id], nil
}

func (r *ActorRepo) GetByID(_ context.Context, id uuid.UUID) (auth.Actor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.actors[id]
	if !ok {
		return auth.Actor{}, apperr.NotFound("user not found")
	}
	return a, nil
}

func (r *ActorRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.actors[id]
	if !ok {
		return nil
	}
	delete(r.s.actors, id)
	delete(r.s.emails, strings.ToLower(a.Email))
	delete(r.s.profiles, id)
	return nil
}
