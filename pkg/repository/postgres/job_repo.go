package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/job"
	"github.com/artem13815/jobboard/pkg/nlp"
)

// JobRepository stores postings. Skills are kept twice: as entered for
// display and normalized for the skill filter.
type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobColumns = `id, owner_id, company_name, title, description, requirements, responsibilities,
	benefits, skills, location, employment_type, experience, salary_min, salary_max,
	salary_currency, salary_period, active, views, applications, created_at, updated_at`

func (r *JobRepository) Create(ctx context.Context, p job.Posting) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jobs (id, owner_id, company_name, title, description, requirements, responsibilities,
			benefits, skills, skills_norm, location, employment_type, experience, salary_min, salary_max,
			salary_currency, salary_period, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`, p.ID, p.OwnerID, p.CompanyName, p.Title, p.Description, p.Requirements, p.Responsibilities,
		p.Benefits, skillsOrEmpty(p.Skills), nlp.NormalizeSkills(p.Skills), p.Location, string(p.EmploymentType),
		string(p.Experience), p.Salary.Min, p.Salary.Max, p.Salary.Currency, p.Salary.Period, p.Active,
		p.CreatedAt, p.UpdatedAt)
	return translate(err, "")
}

func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (job.Posting, error) {
	p, err := scanPosting(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return job.Posting{}, translate(err, "job not found")
	}
	return p, nil
}

// Update rewrites the editable fields; owner and counters are left alone.
func (r *JobRepository) Update(ctx context.Context, p job.Posting) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs SET company_name = $2, title = $3, description = $4, requirements = $5,
			responsibilities = $6, benefits = $7, skills = $8, skills_norm = $9, location = $10,
			employment_type = $11, experience = $12, salary_min = $13, salary_max = $14,
			salary_currency = $15, salary_period = $16, active = $17, updated_at = $18
		WHERE id = $1
	`, p.ID, p.CompanyName, p.Title, p.Description, p.Requirements, p.Responsibilities, p.Benefits,
		skillsOrEmpty(p.Skills), nlp.NormalizeSkills(p.Skills), p.Location, string(p.EmploymentType),
		string(p.Experience), p.Salary.Min, p.Salary.Max, p.Salary.Currency, p.Salary.Period, p.Active,
		p.UpdatedAt)
	if err != nil {
		return translate(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("job not found")
	}
	return nil
}

func (r *JobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		err = translate(err, "")
		if apperr.Is(err, apperr.KindConflict) {
			return apperr.Conflict("job has applications; deactivate it instead")
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("job not found")
	}
	return nil
}

func (r *JobRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.bump(ctx, `UPDATE jobs SET views = views + 1 WHERE id = $1`, id)
}

func (r *JobRepository) IncrementApplications(ctx context.Context, id uuid.UUID) error {
	return r.bump(ctx, `UPDATE jobs SET applications = applications + 1 WHERE id = $1`, id)
}

func (r *JobRepository) bump(ctx context.Context, query string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return translate(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("job not found")
	}
	return nil
}

func (r *JobRepository) ListActive(ctx context.Context, f job.Filter) (job.Page, error) {
	where, args := activeFilter(f)
	return r.page(ctx, where, args, orderBy(f.Sort, f.Desc), f.Limit, f.Offset)
}

func (r *JobRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) (job.Page, error) {
	return r.page(ctx, "owner_id = $1", []any{ownerID}, orderBy(job.SortDate, true), limit, offset)
}

func (r *JobRepository) page(ctx context.Context, where string, args []any, order string, limit, offset int) (job.Page, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE `+where, args...).Scan(&total); err != nil {
		return job.Page{}, translate(err, "")
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		jobColumns, where, order, n+1, n+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return job.Page{}, translate(err, "")
	}
	defer rows.Close()

	items := make([]job.Posting, 0, limit)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return job.Page{}, translate(err, "")
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return job.Page{}, translate(err, "")
	}
	return job.Page{Items: items, Total: total}, nil
}

// activeFilter builds the WHERE clause for job.Filter. Values are always
// bound as parameters.
func activeFilter(f job.Filter) (string, []any) {
	conds := []string{"active"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.EmploymentType != "" {
		conds = append(conds, "employment_type = "+arg(string(f.EmploymentType)))
	}
	if f.Experience != "" {
		conds = append(conds, "experience = "+arg(string(f.Experience)))
	}
	if f.Location != "" {
		conds = append(conds, "location ILIKE "+arg("%"+escapeLike(f.Location)+"%"))
	}
	if f.SalaryMin != nil {
		conds = append(conds, "COALESCE(salary_max, salary_min) >= "+arg(*f.SalaryMin))
	}
	if f.SalaryMax != nil {
		conds = append(conds, "COALESCE(salary_min, salary_max) <= "+arg(*f.SalaryMax))
	}
	if f.Search != "" {
		p := arg("%" + escapeLike(f.Search) + "%")
		conds = append(conds, fmt.Sprintf(`(title ILIKE %[1]s OR description ILIKE %[1]s OR requirements ILIKE %[1]s
			OR responsibilities ILIKE %[1]s OR benefits ILIKE %[1]s OR location ILIKE %[1]s
			OR company_name ILIKE %[1]s OR array_to_string(skills, ' ') ILIKE %[1]s)`, p))
	}
	for _, group := range f.SkillGroups {
		conds = append(conds, "skills_norm && "+arg(group))
	}
	return strings.Join(conds, " AND "), args
}

func orderBy(key job.SortKey, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	var col string
	switch key {
	case job.SortSalary:
		col = "COALESCE(salary_max, salary_min, 0)"
	case job.SortTitle:
		col = "lower(title)"
	case job.SortCompany:
		col = "lower(company_name)"
	default:
		col = "created_at"
	}
	return col + " " + dir + ", id ASC"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func skillsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scanPosting(row pgx.Row) (job.Posting, error) {
	var (
		p          job.Posting
		empType    string
		experience string
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.CompanyName, &p.Title, &p.Description, &p.Requirements,
		&p.Responsibilities, &p.Benefits, &p.Skills, &p.Location, &empType, &experience,
		&p.Salary.Min, &p.Salary.Max, &p.Salary.Currency, &p.Salary.Period, &p.Active,
		&p.Views, &p.Applications, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return job.Posting{}, err
	}
	p.EmploymentType = job.EmploymentType(empType)
	p.Experience = job.ExperienceLevel(experience)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
