package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EmploymentType string

const (
	FullTime   EmploymentType = "full-time"
	PartTime   EmploymentType = "part-time"
	Contract   EmploymentType = "contract"
	Internship EmploymentType = "internship"
	Freelance  EmploymentType = "freelance"
)

func (t EmploymentType) Valid() bool {
	switch t {
	case FullTime, PartTime, Contract, Internship, Freelance:
		return true
	}
	return false
}

type ExperienceLevel string

const (
	Entry     ExperienceLevel = "entry"
	Junior    ExperienceLevel = "junior"
	Mid       ExperienceLevel = "mid"
	Senior    ExperienceLevel = "senior"
	Lead      ExperienceLevel = "lead"
	Executive ExperienceLevel = "executive"
)

func (l ExperienceLevel) Valid() bool {
	switch l {
	case Entry, Junior, Mid, Senior, Lead, Executive:
		return true
	}
	return false
}

// Salary bounds are optional; when both are present Min < Max.
type Salary struct {
	Min      *int64 `json:"min,omitempty"`
	Max      *int64 `json:"max,omitempty"`
	Currency string `json:"currency"`
	Period   string `json:"period"`
}

// Posting is a job opening owned by exactly one employer.
type Posting struct {
	ID               uuid.UUID       `json:"id"`
	OwnerID          uuid.UUID       `json:"ownerId"`
	CompanyName      string          `json:"companyName"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Requirements     string          `json:"requirements,omitempty"`
	Responsibilities string          `json:"responsibilities,omitempty"`
	Benefits         string          `json:"benefits,omitempty"`
	Skills           []string        `json:"skills"`
	Location         string          `json:"location"`
	EmploymentType   EmploymentType  `json:"employmentType"`
	Experience       ExperienceLevel `json:"experience"`
	Salary           Salary          `json:"salary"`
	Active           bool            `json:"active"`
	Views            int64           `json:"views"`
	Applications     int64           `json:"applications"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (p Posting) OwnerRef() uuid.UUID { return p.OwnerID }

// Fields is the employer-supplied content of a new posting.
type Fields struct {
	Title            string
	Description      string
	Requirements     string
	Responsibilities string
	Benefits         string
	Skills           []string
	Location         string
	EmploymentType   EmploymentType
	Experience       ExperienceLevel
	Salary           Salary
}

// Patch updates only the non-nil fields. Salary replaces the whole range.
type Patch struct {
	Title            *string
	Description      *string
	Requirements     *string
	Responsibilities *string
	Benefits         *string
	Skills           *[]string
	Location         *string
	EmploymentType   *EmploymentType
	Experience       *ExperienceLevel
	Salary           *Salary
	Active           *bool
}

type SortKey string

const (
	SortDate    SortKey = "date"
	SortSalary  SortKey = "salary"
	SortTitle   SortKey = "title"
	SortCompany SortKey = "company"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortDate, SortSalary, SortTitle, SortCompany:
		return true
	}
	return false
}

// Filter selects active postings. Search is matched as a case-insensitive
// substring of title, description blocks, skills, location and company.
// SkillGroups holds one slice of normalized variants per requested skill;
// a posting must carry at least one variant of every group.
// SalaryMin keeps postings whose upper bound (max, else min) reaches it,
// SalaryMax those whose lower bound (min, else max) does not exceed it;
// postings without salary are dropped when either bound is set.
type Filter struct {
	Search         string
	Location       string
	EmploymentType EmploymentType
	Experience     ExperienceLevel
	SalaryMin      *int64
	SalaryMax      *int64
	SkillGroups    [][]string
	Sort           SortKey
	Desc           bool
	Limit          int
	Offset         int
}

type Page struct {
	Items []Posting `json:"items"`
	Total int       `json:"total"`
}

// Repository is the storage port of the registry. Absent postings are
// reported as apperr.KindNotFound; deleting a posting that still has
// applications is apperr.KindConflict.
type Repository interface {
	Create(ctx context.Context, p Posting) error
	GetByID(ctx context.Context, id uuid.UUID) (Posting, error)
	Update(ctx context.Context, p Posting) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	IncrementApplications(ctx context.Context, id uuid.UUID) error
	ListActive(ctx context.Context, f Filter) (Page, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) (Page, error)
}
