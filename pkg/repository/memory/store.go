// Package memory is a process-local implementation of every repository
// port. It backs the service in development mode and the service tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/application"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/job"
	"github.com/artem13815/jobboard/pkg/profile"
)

type appKey struct {
	job       uuid.UUID
	applicant uuid.UUID
}

// Store guards all collections with one lock, which makes cross-collection
// rules (job delete vs. its applications) atomic.
type Store struct {
	mu       sync.RWMutex
	actors   map[uuid.UUID]auth.Actor
	emails   map[string]uuid.UUID
	profiles map[uuid.UUID]profile.Profile
	jobs     map[uuid.UUID]job.Posting
	apps     map[uuid.UUID]application.Application
	appIndex map[appKey]uuid.UUID
}

func New() *Store {
	return &Store{
		actors:   map[uuid.UUID]auth.Actor{},
		emails:   map[string]uuid.UUID{},
		profiles: map[uuid.UUID]profile.Profile{},
		jobs:     map[uuid.UUID]job.Posting{},
		apps:     map[uuid.UUID]application.Application{},
		appIndex: map[appKey]uuid.UUID{},
	}
}

func (s *Store) Actors() *ActorRepo             { return &ActorRepo{s: s} }
func (s *Store) Profiles() *ProfileRepo         { return &ProfileRepo{s: s} }
func (s *Store) Jobs() *JobRepo                 { return &JobRepo{s: s} }
func (s *Store) Applications() *ApplicationRepo { return &ApplicationRepo{s: s} }

var (
	_ auth.ActorRepository   = (*ActorRepo)(nil)
	_ profile.Repository     = (*ProfileRepo)(nil)
	_ job.Repository         = (*JobRepo)(nil)
	_ application.Repository = (*ApplicationRepo)(nil)
)
