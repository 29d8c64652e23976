package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/profile"
)

type ProfileRepo struct{ s *Store }

func (r *ProfileRepo) Create(_ context.Context, p profile.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[p.ActorID]; ok {
		return apperr.Conflict("profile already exists")
	}
	r.s.profiles[p.ActorID] = cloneProfile(p)
	return nil
}

func (r *ProfileRepo) Get(_ context.Context, actorID uuid.UUID) (profile.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[actorID]
	if !ok {
		return profile.Profile{}, apperr.NotFound("profile not found")
	}
	return cloneProfile(p), nil
}

func (r *ProfileRepo) Save(_ context.Context, p profile.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[p.ActorID]; !ok {
		return apperr.NotFound("profile not found")
	}
	r.s.profiles[p.ActorID] = cloneProfile(p)
	return nil
}

// cloneProfile copies the nested pointers so callers never share state
// with the store.
func cloneProfile(p profile.Profile) profile.Profile {
	if p.Applicant != nil {
		a := *p.Applicant
		a.Skills = append([]string{}, a.Skills...)
		a.Experience = append([]profile.ExperienceItem{}, a.Experience...)
		if a.Resume != nil {
			r := *a.Resume
			a.Resume = &r
		}
		p.Applicant = &a
	}
	if p.Employer != nil {
		e := *p.Employer
		p.Employer = &e
	}
	return p
}
