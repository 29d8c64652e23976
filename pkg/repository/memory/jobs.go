package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/job"
	"github.com/artem13815/jobboard/pkg/nlp"
)

type JobRepo struct{ s *Store }

func (r *JobRepo) Create(_ context.Context, p job.Posting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[p.ID]; ok {
		return apperr.Conflict("job already exists")
	}
	r.s.jobs[p.ID] = clonePosting(p)
	return nil
}

func (r *JobRepo) GetByID(_ context.Context, id uuid.UUID) (job.Posting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.jobs[id]
	if !ok {
		return job.Posting{}, apperr.NotFound("job not found")
	}
	return clonePosting(p), nil
}

// Update replaces the editable fields; owner and counters stay as stored.
func (r *JobRepo) Update(_ context.Context, p job.Posting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.jobs[p.ID]
	if !ok {
		return apperr.NotFound("job not found")
	}
	p.OwnerID = cur.OwnerID
	p.Views = cur.Views
	p.Applications = cur.Applications
	p.CreatedAt = cur.CreatedAt
	r.s.jobs[p.ID] = clonePosting(p)
	return nil
}

func (r *JobRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[id]; !ok {
		return apperr.NotFound("job not found")
	}
	for _, a := range r.s.apps {
		if a.JobID == id {
			return apperr.Conflict("job has applications; deactivate it instead")
		}
	}
	delete(r.s.jobs, id)
	return nil
}

func (r *JobRepo) IncrementViews(_ context.Context, id uuid.UUID) error {
	return r.bump(id, func(p *job.Posting) { p.Views++ })
}

func (r *JobRepo) IncrementApplications(_ context.Context, id uuid.UUID) error {
	return r.bump(id, func(p *job.Posting) { p.Applications++ })
}

func (r *JobRepo) bump(id uuid.UUID, f func(*job.Posting)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.jobs[id]
	if !ok {
		return apperr.NotFound("job not found")
	}
	f(&p)
	r.s.jobs[id] = p
	return nil
}

func (r *JobRepo) ListActive(_ context.Context, f job.Filter) (job.Page, error) {
	r.s.mu.RLock()
	var matched []job.Posting
	for _, p := range r.s.jobs {
		if p.Active && matches(p, f) {
			matched = append(matched, clonePosting(p))
		}
	}
	r.s.mu.RUnlock()

	sortPostings(matched, f.Sort, f.Desc)
	return job.Page{Items: paginate(matched, f.Limit, f.Offset), Total: len(matched)}, nil
}

func (r *JobRepo) ListByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) (job.Page, error) {
	r.s.mu.RLock()
	var mine []job.Posting
	for _, p := range r.s.jobs {
		if p.OwnerID == ownerID {
			mine = append(mine, clonePosting(p))
		}
	}
	r.s.mu.RUnlock()

	sortPostings(mine, job.SortDate, true)
	return job.Page{Items: paginate(mine, limit, offset), Total: len(mine)}, nil
}

func matches(p job.Posting, f job.Filter) bool {
	if f.EmploymentType != "" && p.EmploymentType != f.EmploymentType {
		return false
	}
	if f.Experience != "" && p.Experience != f.Experience {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(p.Location), f.Location) {
		return false
	}
	if f.SalaryMin != nil || f.SalaryMax != nil {
		lo, hi, ok := salaryBounds(p.Salary)
		if !ok {
			return false
		}
		if f.SalaryMin != nil && hi < *f.SalaryMin {
			return false
		}
		if f.SalaryMax != nil && lo > *f.SalaryMax {
			return false
		}
	}
	if f.Search != "" {
		hay := strings.ToLower(strings.Join([]string{
			p.Title, p.Description, p.Requirements, p.Responsibilities, p.Benefits,
			strings.Join(p.Skills, " "), p.Location, p.CompanyName,
		}, "\n"))
		if !strings.Contains(hay, f.Search) {
			return false
		}
	}
	if len(f.SkillGroups) > 0 {
		have := map[string]struct{}{}
		for _, s := range nlp.NormalizeSkills(p.Skills) {
			have[s] = struct{}{}
		}
		for _, group := range f.SkillGroups {
			if !anyIn(group, have) {
				return false
			}
		}
	}
	return true
}

func anyIn(variants []string, have map[string]struct{}) bool {
	for _, v := range variants {
		if _, ok := have[v]; ok {
			return true
		}
	}
	return false
}

func salaryBounds(s job.Salary) (lo, hi int64, ok bool) {
	switch {
	case s.Min != nil && s.Max != nil:
		return *s.Min, *s.Max, true
	case s.Min != nil:
		return *s.Min, *s.Min, true
	case s.Max != nil:
		return *s.Max, *s.Max, true
	}
	return 0, 0, false
}

// salaryKey matches the SQL ordering COALESCE(salary_max, salary_min, 0).
func salaryKey(s job.Salary) int64 {
	if s.Max != nil {
		return *s.Max
	}
	if s.Min != nil {
		return *s.Min
	}
	return 0
}

func sortPostings(items []job.Posting, key job.SortKey, desc bool) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var c int
		switch key {
		case job.SortSalary:
			c = cmpInt(salaryKey(a.Salary), salaryKey(b.Salary))
		case job.SortTitle:
			c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case job.SortCompany:
			c = strings.Compare(strings.ToLower(a.CompanyName), strings.ToLower(b.CompanyName))
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.ID.String() < b.ID.String()
	})
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func clonePosting(p job.Posting) job.Posting {
	p.Skills = append([]string{}, p.Skills...)
	if p.Salary.Min != nil {
		v := *p.Salary.Min
		p.Salary.Min = &v
	}
	if p.Salary.Max != nil {
		v := *p.Salary.Max
		p.Salary.Max = &v
	}
	return p
}
