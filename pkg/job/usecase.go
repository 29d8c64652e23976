package job

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/authz"
	"github.com/artem13815/jobboard/pkg/nlp"
)

const (
	defaultCurrency = "USD"
	defaultPeriod   = "year"
	maxTitleLen     = 200
	defaultLimit    = 20
	maxLimit        = 200
)

var salaryPeriods = map[string]bool{"hour": true, "month": true, "year": true}

// UseCase is the job posting registry.
type UseCase interface {
	Create(ctx context.Context, owner authz.Principal, f Fields) (Posting, error)
	Get(ctx context.Context, id uuid.UUID) (Posting, error)
	// View returns a posting for public display and records the view.
	View(ctx context.Context, id uuid.UUID) (Posting, error)
	Update(ctx context.Context, caller authz.Principal, id uuid.UUID, patch Patch) (Posting, error)
	Delete(ctx context.Context, caller authz.Principal, id uuid.UUID) error
	RecordView(ctx context.Context, id uuid.UUID)
	ListActive(ctx context.Context, q Query) (Page, error)
	ListMine(ctx context.Context, owner authz.Principal, limit, offset int) (Page, error)
}

// Query is the caller-facing shape of a listing request; Skills are raw tags.
type Query struct {
	Search         string
	Location       string
	EmploymentType EmploymentType
	Experience     ExperienceLevel
	SalaryMin      *int64
	SalaryMax      *int64
	Skills         []string
	Sort           SortKey
	Desc           bool
	Limit          int
	Offset         int
}

// CompanyDirectory resolves the company name shown on an employer's postings.
type CompanyDirectory interface {
	CompanyName(ctx context.Context, ownerID uuid.UUID) (string, error)
}

type service struct {
	repo      Repository
	companies CompanyDirectory
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, companies CompanyDirectory, logger *zap.Logger) UseCase {
	return &service{
		repo:      repo,
		companies: companies,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, owner authz.Principal, f Fields) (Posting, error) {
	if err := authz.RequireRole(owner, auth.RoleEmployer); err != nil {
		return Posting{}, err
	}
	now := s.now()
	p := Posting{
		ID:               uuid.New(),
		OwnerID:          owner.ID,
		Title:            strings.TrimSpace(f.Title),
		Description:      strings.TrimSpace(f.Description),
		Requirements:     strings.TrimSpace(f.Requirements),
		Responsibilities: strings.TrimSpace(f.Responsibilities),
		Benefits:         strings.TrimSpace(f.Benefits),
		Skills:           nlp.CleanSkills(f.Skills),
		Location:         strings.TrimSpace(f.Location),
		EmploymentType:   f.EmploymentType,
		Experience:       f.Experience,
		Salary:           normalizeSalary(f.Salary),
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := validate(p); err != nil {
		return Posting{}, err
	}
	if s.companies != nil {
		name, err := s.companies.CompanyName(ctx, owner.ID)
		if err != nil {
			s.logger.Warn("company name lookup failed",
				zap.String("owner_id", owner.ID.String()),
				zap.Error(err),
			)
		}
		p.CompanyName = name
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Posting{}, err
	}
	s.logger.Info("job posting created",
		zap.String("job_id", p.ID.String()),
		zap.String("owner_id", p.OwnerID.String()),
	)
	return p, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (Posting, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) View(ctx context.Context, id uuid.UUID) (Posting, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Posting{}, err
	}
	s.RecordView(ctx, id)
	p.Views++
	return p, nil
}

func (s *service) Update(ctx context.Context, caller authz.Principal, id uuid.UUID, patch Patch) (Posting, error) {
	if err := authz.RequireRole(caller, auth.RoleEmployer); err != nil {
		return Posting{}, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Posting{}, err
	}
	if err := authz.RequireOwner(caller, p); err != nil {
		return Posting{}, err
	}
	applyPatch(&p, patch)
	if err := validate(p); err != nil {
		return Posting{}, err
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Posting{}, err
	}
	return p, nil
}

func (s *service) Delete(ctx context.Context, caller authz.Principal, id uuid.UUID) error {
	if err := authz.RequireRole(caller, auth.RoleEmployer); err != nil {
		return err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.RequireOwner(caller, p); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("job posting deleted", zap.String("job_id", id.String()))
	return nil
}

// RecordView is best-effort: a lost increment is acceptable, a failed read is not.
func (s *service) RecordView(ctx context.Context, id uuid.UUID) {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("record job view",
			zap.String("job_id", id.String()),
			zap.Error(err),
		)
	}
}

func (s *service) ListActive(ctx context.Context, q Query) (Page, error) {
	f := Filter{
		Search:         strings.ToLower(strings.TrimSpace(q.Search)),
		Location:       strings.ToLower(strings.TrimSpace(q.Location)),
		EmploymentType: q.EmploymentType,
		Experience:     q.Experience,
		SalaryMin:      q.SalaryMin,
		SalaryMax:      q.SalaryMax,
		Sort:           q.Sort,
		Desc:           q.Desc,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
	if f.EmploymentType != "" && !f.EmploymentType.Valid() {
		return Page{}, apperr.Validation("unknown employment type")
	}
	if f.Experience != "" && !f.Experience.Valid() {
		return Page{}, apperr.Validation("unknown experience level")
	}
	if f.SalaryMin != nil && f.SalaryMax != nil && *f.SalaryMin > *f.SalaryMax {
		return Page{}, apperr.Validation("salaryMin must not exceed salaryMax")
	}
	if f.Sort == "" {
		f.Sort = SortDate
		f.Desc = true
	}
	if !f.Sort.Valid() {
		return Page{}, apperr.Validation("sort must be one of date, salary, title, company")
	}
	for _, skill := range nlp.CleanSkills(q.Skills) {
		f.SkillGroups = append(f.SkillGroups, nlp.SkillVariants(skill))
	}
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)
	return s.repo.ListActive(ctx, f)
}

func (s *service) ListMine(ctx context.Context, owner authz.Principal, limit, offset int) (Page, error) {
	if err := authz.RequireRole(owner, auth.RoleEmployer); err != nil {
		return Page{}, err
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByOwner(ctx, owner.ID, limit, offset)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func applyPatch(p *Posting, patch Patch) {
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Requirements != nil {
		p.Requirements = strings.TrimSpace(*patch.Requirements)
	}
	if patch.Responsibilities != nil {
		p.Responsibilities = strings.TrimSpace(*patch.Responsibilities)
	}
	if patch.Benefits != nil {
		p.Benefits = strings.TrimSpace(*patch.Benefits)
	}
	if patch.Skills != nil {
		p.Skills = nlp.CleanSkills(*patch.Skills)
	}
	if patch.Location != nil {
		p.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.EmploymentType != nil {
		p.EmploymentType = *patch.EmploymentType
	}
	if patch.Experience != nil {
		p.Experience = *patch.Experience
	}
	if patch.Salary != nil {
		p.Salary = normalizeSalary(*patch.Salary)
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
}

func normalizeSalary(s Salary) Salary {
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if s.Currency == "" {
		s.Currency = defaultCurrency
	}
	s.Period = strings.ToLower(strings.TrimSpace(s.Period))
	if s.Period == "" {
		s.Period = defaultPeriod
	}
	return s
}

func validate(p Posting) error {
	if p.Title == "" {
		return apperr.Validation("title is required")
	}
	if len(p.Title) > maxTitleLen {
		return apperr.Validation("title is too long")
	}
	if p.Description == "" {
		return apperr.Validation("description is required")
	}
	if !p.EmploymentType.Valid() {
		return apperr.Validation("employment type must be one of full-time, part-time, contract, internship, freelance")
	}
	if !p.Experience.Valid() {
		return apperr.Validation("experience must be one of entry, junior, mid, senior, lead, executive")
	}
	return validateSalary(p.Salary)
}

func validateSalary(s Salary) error {
	if s.Min != nil && *s.Min < 0 || s.Max != nil && *s.Max < 0 {
		return apperr.Validation("salary bounds must not be negative")
	}
	if s.Min != nil && s.Max != nil && *s.Min >= *s.Max {
		return apperr.Validation("salary min must be less than salary max")
	}
	if len(s.Currency) != 3 {
		return apperr.Validation("salary currency must be a 3-letter code")
	}
	if !salaryPeriods[s.Period] {
		return apperr.Validation("salary period must be hour, month or year")
	}
	return nil
}
