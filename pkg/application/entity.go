package application

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Period   string `json:"period"`
}

type Modality string

const (
	ModalityVideo    Modality = "video"
	ModalityPhone    Modality = "phone"
	ModalityInPerson Modality = "in-person"
)

func (m Modality) Valid() bool {
	return m == ModalityVideo || m == ModalityPhone || m == ModalityInPerson
}

type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

type Interview struct {
	Date     time.Time       `json:"date"`
	Modality Modality        `json:"modality"`
	Location string          `json:"location,omitempty"`
	Link     string          `json:"link,omitempty"`
	Notes    string          `json:"notes,omitempty"`
	Status   InterviewStatus `json:"status"`
}

// Notes are kept separately per role; each side only writes its own key.
type Notes struct {
	Applicant string `json:"applicant,omitempty"`
	Employer  string `json:"employer,omitempty"`
}

// Application is one applicant's submission against one posting.
// EmployerID is copied from the posting owner at creation and never re-derived.
type Application struct {
	ID             uuid.UUID  `json:"id"`
	JobID          uuid.UUID  `json:"jobId"`
	ApplicantID    uuid.UUID  `json:"applicantId"`
	EmployerID     uuid.UUID  `json:"employerId"`
	Status         Status     `json:"status"`
	CoverLetter    string     `json:"coverLetter"`
	ResumeLocator  string     `json:"resumeLocator"`
	ExpectedSalary *Money     `json:"expectedSalary,omitempty"`
	Availability   string     `json:"availability,omitempty"`
	Notes          Notes      `json:"notes"`
	Interview      *Interview `json:"interview,omitempty"`
	AppliedAt      time.Time  `json:"appliedAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (a Application) ApplicantRef() uuid.UUID { return a.ApplicantID }

func (a Application) EmployerRef() uuid.UUID { return a.EmployerID }

// Scope restricts a listing. Exactly one of ApplicantID or EmployerID is set.
type Scope struct {
	ApplicantID *uuid.UUID
	EmployerID  *uuid.UUID
	JobID       *uuid.UUID
}

type ListQuery struct {
	Scope  Scope
	Status *Status
	Limit  int
	Offset int
}

// ListResult carries a page, the number of records matching the query and
// the per-status counts of the whole scope (status filter not applied).
type ListResult struct {
	Items []Application `json:"items"`
	Total int           `json:"total"`
	Stats Stats         `json:"stats"`
}

// StatusChange is a conditional update: it applies only while the stored
// status is one of From.
type StatusChange struct {
	ID            uuid.UUID
	From          []Status
	To            Status
	EmployerNotes *string
	Interview     *Interview
	At            time.Time
}

// Repository is the storage port. Insert must be an atomic insert-if-absent on
// (JobID, ApplicantID) and report a duplicate as apperr.KindConflict.
// ChangeStatus reports apperr.KindInvalidTransition when the stored status is
// not in From, and apperr.KindNotFound for an unknown id.
type Repository interface {
	Insert(ctx context.Context, a Application) (Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (Application, error)
	FindByJobAndApplicant(ctx context.Context, jobID, applicantID uuid.UUID) (Application, error)
	ChangeStatus(ctx context.Context, ch StatusChange) (Application, error)
	// List returns the page, its total and the scope's per-status counts
	// read from one consistent snapshot.
	List(ctx context.Context, q ListQuery) (ListResult, error)
}
