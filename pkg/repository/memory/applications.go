package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/application"
)

type ApplicationRepo struct{ s *Store }

// Insert is insert-if-absent on (job, applicant) under the store lock.
func (r *ApplicationRepo) Insert(_ context.Context, a application.Application) (application.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := appKey{job: a.JobID, applicant: a.ApplicantID}
	if _, ok := r.s.appIndex[key]; ok {
		return application.Application{}, apperr.Conflict("you have already applied to this job")
	}
	if _, ok := r.s.jobs[a.JobID]; !ok {
		return application.Application{}, apperr.NotFound("job not found")
	}
	r.s.apps[a.ID] = cloneApp(a)
	r.s.appIndex[key] = a.ID
	return cloneApp(a), nil
}

func (r *ApplicationRepo) GetByID(_ context.Context, id uuid.UUID) (application.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.apps[id]
	if !ok {
		return application.Application{}, apperr.NotFound("application not found")
	}
	return cloneApp(a), nil
}

func (r *ApplicationRepo) FindByJobAndApplicant(_ context.Context, jobID, applicantID uuid.UUID) (application.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.appIndex[appKey{job: jobID, applicant: applicantID}]
	if !ok {
		return application.Application{}, apperr.NotFound("application not found")
	}
	return cloneApp(r.s.apps[id]), nil
}

func (r *ApplicationRepo) ChangeStatus(_ context.Context, ch application.StatusChange) (application.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.apps[ch.ID]
	if !ok {
		return application.Application{}, apperr.NotFound("application not found")
	}
	if !statusIn(a.Status, ch.From) {
		return application.Application{}, apperr.InvalidTransition("application is " + string(a.Status))
	}
	a.Status = ch.To
	if ch.EmployerNotes != nil {
		a.Notes.Employer = *ch.EmployerNotes
	}
	if ch.Interview != nil {
		iv := *ch.Interview
		a.Interview = &iv
	}
	a.UpdatedAt = ch.At
	r.s.apps[a.ID] = a
	return cloneApp(a), nil
}

// List collects the page and the scope counts under a single read lock.
func (r *ApplicationRepo) List(_ context.Context, q application.ListQuery) (application.ListResult, error) {
	r.s.mu.RLock()
	var (
		out []application.Application
		st  application.Stats
	)
	for _, a := range r.s.apps {
		if !inScope(a, q.Scope) {
			continue
		}
		st.Add(a.Status, 1)
		if q.Status == nil || a.Status == *q.Status {
			out = append(out, cloneApp(a))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.After(out[j].AppliedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return application.ListResult{Items: paginate(out, q.Limit, q.Offset), Total: len(out), Stats: st}, nil
}

func inScope(a application.Application, s application.Scope) bool {
	if s.ApplicantID != nil && a.ApplicantID != *s.ApplicantID {
		return false
	}
	if s.EmployerID != nil && a.EmployerID != *s.EmployerID {
		return false
	}
	if s.JobID != nil && a.JobID != *s.JobID {
		return false
	}
	return true
}

func statusIn(s application.Status, set []application.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func cloneApp(a application.Application) application.Application {
	if a.ExpectedSalary != nil {
		m := *a.ExpectedSalary
		a.ExpectedSalary = &m
	}
	if a.Interview != nil {
		iv := *a.Interview
		a.Interview = &iv
	}
	return a
}
