package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/application"
)

// ApplicationRepository relies on the (job_id, applicant_id) unique
// constraint for the one-application-per-posting rule.
type ApplicationRepository struct {
	pool *pgxpool.Pool
}

func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

const applicationColumns = `id, job_id, applicant_id, employer_id, status, cover_letter, resume_locator,
	expected_salary, availability, applicant_notes, employer_notes, interview, applied_at, updated_at`

func (r *ApplicationRepository) Insert(ctx context.Context, a application.Application) (application.Application, error) {
	salary, err := jsonOrNil(a.ExpectedSalary)
	if err != nil {
		return application.Application{}, err
	}
	interview, err := jsonOrNil(a.Interview)
	if err != nil {
		return application.Application{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO applications (id, job_id, applicant_id, employer_id, status, cover_letter, resume_locator,
			expected_salary, availability, applicant_notes, employer_notes, interview, applied_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (job_id, applicant_id) DO NOTHING
		RETURNING `+applicationColumns,
		a.ID, a.JobID, a.ApplicantID, a.EmployerID, string(a.Status), a.CoverLetter, a.ResumeLocator,
		salary, a.Availability, a.Notes.Applicant, a.Notes.Employer, interview, a.AppliedAt, a.UpdatedAt)
	out, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return application.Application{}, apperr.Conflict("you have already applied to this job")
	}
	if err != nil {
		return application.Application{}, translate(err, "")
	}
	return out, nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (application.Application, error) {
	a, err := scanApplication(r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if err != nil {
		return application.Application{}, translate(err, "application not found")
	}
	return a, nil
}

func (r *ApplicationRepository) FindByJobAndApplicant(ctx context.Context, jobID, applicantID uuid.UUID) (application.Application, error) {
	a, err := scanApplication(r.pool.QueryRow(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE job_id = $1 AND applicant_id = $2
	`, jobID, applicantID))
	if err != nil {
		return application.Application{}, translate(err, "application not found")
	}
	return a, nil
}

// ChangeStatus updates only while the stored status is in ch.From. When no
// row is updated it re-reads the record to tell a missing id from a
// rejected transition.
func (r *ApplicationRepository) ChangeStatus(ctx context.Context, ch application.StatusChange) (application.Application, error) {
	interview, err := jsonOrNil(ch.Interview)
	if err != nil {
		return application.Application{}, err
	}
	from := make([]string, 0, len(ch.From))
	for _, s := range ch.From {
		from = append(from, string(s))
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE applications SET
			status = $2,
			employer_notes = COALESCE($3, employer_notes),
			interview = COALESCE($4, interview),
			updated_at = $5
		WHERE id = $1 AND status = ANY($6)
		RETURNING `+applicationColumns,
		ch.ID, string(ch.To), ch.EmployerNotes, interview, ch.At, from)
	a, err := scanApplication(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return application.Application{}, translate(err, "")
	}
	cur, err := r.GetByID(ctx, ch.ID)
	if err != nil {
		return application.Application{}, err
	}
	return application.Application{}, apperr.InvalidTransition("application is " + string(cur.Status))
}

// List reads the scope counts, the filtered total and the page inside one
// read-only REPEATABLE READ transaction so all three see the same snapshot.
func (r *ApplicationRepository) List(ctx context.Context, q application.ListQuery) (application.ListResult, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return application.ListResult{}, translate(err, "")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stats, err := scopeStats(ctx, tx, q.Scope)
	if err != nil {
		return application.ListResult{}, err
	}

	where, args := scopeFilter(q.Scope)
	if q.Status != nil {
		args = append(args, string(*q.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE `+where, args...).Scan(&total); err != nil {
		return application.ListResult{}, translate(err, "")
	}

	n := len(args)
	rows, err := tx.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM applications WHERE %s
		ORDER BY applied_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, applicationColumns, where, n+1, n+2),
		append(args, q.Limit, q.Offset)...)
	if err != nil {
		return application.ListResult{}, translate(err, "")
	}
	defer rows.Close()

	items := make([]application.Application, 0, q.Limit)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return application.ListResult{}, translate(err, "")
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return application.ListResult{}, translate(err, "")
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return application.ListResult{}, translate(err, "")
	}
	return application.ListResult{Items: items, Total: total, Stats: stats}, nil
}

func scopeStats(ctx context.Context, tx pgx.Tx, scope application.Scope) (application.Stats, error) {
	where, args := scopeFilter(scope)
	rows, err := tx.Query(ctx, `SELECT status, COUNT(*) FROM applications WHERE `+where+` GROUP BY status`, args...)
	if err != nil {
		return application.Stats{}, translate(err, "")
	}
	defer rows.Close()

	var st application.Stats
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return application.Stats{}, translate(err, "")
		}
		st.Add(application.Status(status), n)
	}
	if err := rows.Err(); err != nil {
		return application.Stats{}, translate(err, "")
	}
	return st, nil
}

func scopeFilter(s application.Scope) (string, []any) {
	conds := []string{"TRUE"}
	var args []any
	add := func(col string, v uuid.UUID) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if s.ApplicantID != nil {
		add("applicant_id", *s.ApplicantID)
	}
	if s.EmployerID != nil {
		add("employer_id", *s.EmployerID)
	}
	if s.JobID != nil {
		add("job_id", *s.JobID)
	}
	return strings.Join(conds, " AND "), args
}

func scanApplication(row pgx.Row) (application.Application, error) {
	var (
		a                 application.Application
		status            string
		salary, interview []byte
	)
	err := row.Scan(&a.ID, &a.JobID, &a.ApplicantID, &a.EmployerID, &status, &a.CoverLetter, &a.ResumeLocator,
		&salary, &a.Availability, &a.Notes.Applicant, &a.Notes.Employer, &interview, &a.AppliedAt, &a.UpdatedAt)
	if err != nil {
		return application.Application{}, err
	}
	a.Status = application.Status(status)
	a.AppliedAt = a.AppliedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	if len(salary) > 0 {
		a.ExpectedSalary = &application.Money{}
		if err := json.Unmarshal(salary, a.ExpectedSalary); err != nil {
			return application.Application{}, apperr.Internal("decode expected salary", err)
		}
	}
	if len(interview) > 0 {
		a.Interview = &application.Interview{}
		if err := json.Unmarshal(interview, a.Interview); err != nil {
			return application.Application{}, apperr.Internal("decode interview", err)
		}
	}
	return a, nil
}

func jsonOrNil[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, apperr.Internal("encode json column", err)
	}
	return b, nil
}
