package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/application"
	"github.com/artem13815/jobboard/pkg/job"
)

func int64p(v int64) *int64 { return &v }

func seedJob(t *testing.T, s *Store, mutate func(*job.Posting)) job.Posting {
	t.Helper()
	p := job.Posting{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		Title:          "Backend engineer",
		Description:    "Build APIs",
		Skills:         []string{"Go", "PostgreSQL"},
		Location:       "Berlin",
		EmploymentType: job.FullTime,
		Experience:     job.Mid,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if mutate != nil {
		mutate(&p)
	}
	require.NoError(t, s.Jobs().Create(context.Background(), p))
	return p
}

func TestApplicationInsert_ConcurrentDuplicates(t *testing.T) {
	s := New()
	p := seedJob(t, s, nil)
	applicant := uuid.New()

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Applications().Insert(context.Background(), application.Application{
				ID:          uuid.New(),
				JobID:       p.ID,
				ApplicantID: applicant,
				EmployerID:  p.OwnerID,
				Status:      application.StatusApplied,
			})
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.Is(err, apperr.KindConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestChangeStatus_Conditional(t *testing.T) {
	s := New()
	p := seedJob(t, s, nil)
	ctx := context.Background()
	a, err := s.Applications().Insert(ctx, application.Application{
		ID: uuid.New(), JobID: p.ID, ApplicantID: uuid.New(), EmployerID: p.OwnerID,
		Status: application.StatusShortlisted,
	})
	require.NoError(t, err)

	_, err = s.Applications().ChangeStatus(ctx, application.StatusChange{
		ID:   a.ID,
		From: []application.Status{application.StatusApplied, application.StatusReviewing},
		To:   application.StatusWithdrawn,
	})
	assert.Equal(t, apperr.KindInvalidTransition, apperr.KindOf(err))

	got, err := s.Applications().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, application.StatusShortlisted, got.Status)
}

func TestJobDelete_WithApplicationsConflicts(t *testing.T) {
	s := New()
	p := seedJob(t, s, nil)
	ctx := context.Background()
	_, err := s.Applications().Insert(ctx, application.Application{
		ID: uuid.New(), JobID: p.ID, ApplicantID: uuid.New(), EmployerID: p.OwnerID, Status: application.StatusApplied,
	})
	require.NoError(t, err)

	assert.Equal(t, apperr.KindConflict, apperr.KindOf(s.Jobs().Delete(ctx, p.ID)))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(s.Jobs().Delete(ctx, uuid.New())))
}

func TestListActive_Filters(t *testing.T) {
	s := New()
	ctx := context.Background()
	goJob := seedJob(t, s, func(p *job.Posting) {
		p.Salary = job.Salary{Min: int64p(50000), Max: int64p(80000), Currency: "EUR", Period: "year"}
		p.CompanyName = "Acme"
	})
	seedJob(t, s, func(p *job.Posting) {
		p.Title = "Frontend engineer"
		p.Skills = []string{"TypeScript"}
		p.Location = "Remote"
		p.EmploymentType = job.Contract
	})
	seedJob(t, s, func(p *job.Posting) { p.Active = false })

	page, err := s.Jobs().ListActive(ctx, job.Filter{Sort: job.SortDate, Desc: true, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = s.Jobs().ListActive(ctx, job.Filter{SkillGroups: [][]string{{"golang", "go"}}, Limit: 20})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, goJob.ID, page.Items[0].ID)

	page, err = s.Jobs().ListActive(ctx, job.Filter{Search: "acme", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = s.Jobs().ListActive(ctx, job.Filter{SalaryMin: int64p(70000), Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = s.Jobs().ListActive(ctx, job.Filter{SalaryMax: int64p(40000), Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	page, err = s.Jobs().ListActive(ctx, job.Filter{EmploymentType: job.Contract, Location: "rem", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestListActive_TieBreakByID(t *testing.T) {
	s := New()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedJob(t, s, func(p *job.Posting) { p.CreatedAt = created })
	}

	page, err := s.Jobs().ListActive(context.Background(), job.Filter{Sort: job.SortDate, Desc: true, Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	for i := 1; i < len(page.Items); i++ {
		assert.Less(t, page.Items[i-1].ID.String(), page.Items[i].ID.String())
	}
}
