package profile

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/auth"
)

type ExperienceItem struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Start       string `json:"start"` // YYYY-MM or free text
	End         string `json:"end"`   // YYYY-MM or "present"
	Description string `json:"description,omitempty"`
}

// Resume describes the file currently attached to an applicant profile.
type Resume struct {
	Locator    string    `json:"locator"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	TextLength int       `json:"textLength"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type ApplicantProfile struct {
	Headline   string           `json:"headline"`
	Location   string           `json:"location"`
	Skills     []string         `json:"skills"`
	Experience []ExperienceItem `json:"experience"`
	Resume     *Resume          `json:"resume,omitempty"`
}

type EmployerProfile struct {
	CompanyName string `json:"companyName"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Profile holds exactly one of Applicant or Employer, matching Role.
type Profile struct {
	ActorID   uuid.UUID         `json:"actorId"`
	Role      auth.Role         `json:"role"`
	Phone     string            `json:"phone,omitempty"`
	Applicant *ApplicantProfile `json:"applicant,omitempty"`
	Employer  *EmployerProfile  `json:"employer,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type ApplicantPatch struct {
	Headline   *string
	Location   *string
	Skills     *[]string
	Experience *[]ExperienceItem
}

type EmployerPatch struct {
	CompanyName *string
	Website     *string
	Description *string
	Location    *string
}

// Patch carries the role-specific part matching the caller's role.
type Patch struct {
	Phone     *string
	Applicant *ApplicantPatch
	Employer  *EmployerPatch
}

// Repository stores profiles keyed by actor. Missing profiles are
// apperr.KindNotFound; Create of an existing one is apperr.KindConflict.
type Repository interface {
	Create(ctx context.Context, p Profile) error
	Get(ctx context.Context, actorID uuid.UUID) (Profile, error)
	Save(ctx context.Context, p Profile) error
}
