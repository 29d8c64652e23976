package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/application"
	"github.com/artem13815/jobboard/pkg/job"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "x"))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(translate(fmt.Errorf("scan: %w", pgx.ErrNoRows), "job not found")))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(translate(&pgconn.PgError{Code: "23505"}, "")))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(translate(&pgconn.PgError{Code: "23503"}, "")))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(translate(&pgconn.PgError{Code: "23514", ConstraintName: "jobs_salary_order"}, "")))

	internal := translate(errors.New("connection reset"), "")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(internal))
	assert.Equal(t, "internal error", apperr.Message(internal))
}

func TestActiveFilter(t *testing.T) {
	salaryMin := int64(1000)
	where, args := activeFilter(job.Filter{
		Search:         "go_dev",
		EmploymentType: job.FullTime,
		SalaryMin:      &salaryMin,
		SkillGroups:    [][]string{{"go", "golang"}, {"k8s", "kubernetes"}},
	})
	assert.Contains(t, where, "active AND employment_type = $1")
	assert.Contains(t, where, "COALESCE(salary_max, salary_min) >= $2")
	assert.Contains(t, where, "title ILIKE $3")
	assert.Contains(t, where, "skills_norm && $4")
	assert.Contains(t, where, "skills_norm && $5")
	assert.Len(t, args, 5)
	assert.Equal(t, `%go\_dev%`, args[2])
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "created_at DESC, id ASC", orderBy(job.SortDate, true))
	assert.Equal(t, "COALESCE(salary_max, salary_min, 0) ASC, id ASC", orderBy(job.SortSalary, false))
	assert.Equal(t, "lower(company_name) DESC, id ASC", orderBy(job.SortCompany, true))
}

func TestScopeFilter(t *testing.T) {
	employer, jobID := uuid.New(), uuid.New()
	where, args := scopeFilter(application.Scope{EmployerID: &employer, JobID: &jobID})
	assert.Equal(t, "TRUE AND employer_id = $1 AND job_id = $2", where)
	assert.Equal(t, []any{employer, jobID}, args)

	where, args = scopeFilter(application.Scope{})
	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)
}
