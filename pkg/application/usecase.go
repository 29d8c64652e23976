package application

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/authz"
	"github.com/artem13815/jobboard/pkg/job"
	"github.com/artem13815/jobboard/pkg/notify"
	"github.com/artem13815/jobboard/pkg/telemetry"
)

const (
	maxCoverLetter = 5000
	maxNotes       = 2000
	defaultLimit   = 20
	maxLimit       = 200
)

var tracer = telemetry.GetTracer("jobboard/application")

var availabilities = map[string]bool{
	"immediate":  true,
	"two-weeks":  true,
	"one-month":  true,
	"negotiable": true,
}

// UseCase is the application lifecycle engine.
type UseCase interface {
	Apply(ctx context.Context, caller authz.Principal, in ApplyInput) (Application, error)
	UpdateStatus(ctx context.Context, caller authz.Principal, id uuid.UUID, status Status, notes *string) (Application, error)
	Withdraw(ctx context.Context, caller authz.Principal, id uuid.UUID) (Application, error)
	ScheduleInterview(ctx context.Context, caller authz.Principal, id uuid.UUID, in InterviewInput) (Application, error)
	CheckExisting(ctx context.Context, caller authz.Principal, jobID uuid.UUID) (Existing, error)
	ListForApplicant(ctx context.Context, caller authz.Principal, status *Status, limit, offset int) (ListResult, error)
	ListForEmployer(ctx context.Context, caller authz.Principal, status *Status, jobID *uuid.UUID, limit, offset int) (ListResult, error)
	Get(ctx context.Context, caller authz.Principal, id uuid.UUID) (Application, error)
	OpenResume(ctx context.Context, caller authz.Principal, id uuid.UUID) (Resume, error)
}

type ApplyInput struct {
	JobID          uuid.UUID
	CoverLetter    string
	ResumeLocator  string
	ExpectedSalary *Money
	Availability   string
	Notes          string
}

type InterviewInput struct {
	Date     time.Time
	Modality Modality
	Location string
	Link     string
	Notes    string
}

type Existing struct {
	Exists      bool         `json:"exists"`
	Application *Application `json:"application,omitempty"`
}

type Resume struct {
	Locator string
	Data    []byte
}

// JobRegistry is the part of the job registry the engine depends on.
type JobRegistry interface {
	GetByID(ctx context.Context, id uuid.UUID) (job.Posting, error)
	IncrementApplications(ctx context.Context, id uuid.UUID) error
}

// ResumeSource yields the resume locator saved on an applicant's profile.
// An applicant without a resume yields "" and no error.
type ResumeSource interface {
	ResumeLocator(ctx context.Context, applicantID uuid.UUID) (string, error)
}

type FileReader interface {
	Retrieve(ctx context.Context, locator string) ([]byte, error)
}

type Contacts interface {
	GetByID(ctx context.Context, id uuid.UUID) (auth.Actor, error)
}

// Dispatcher delivers notifications without blocking the caller.
type Dispatcher interface {
	DispatchFunc(ctx context.Context, tmpl notify.Template, build notify.Builder)
}

type Deps struct {
	Repo     Repository
	Jobs     JobRegistry
	Resumes  ResumeSource
	Files    FileReader
	Contacts Contacts
	Notifier Dispatcher
	Logger   *zap.Logger
}

type service struct {
	repo     Repository
	jobs     JobRegistry
	resumes  ResumeSource
	files    FileReader
	contacts Contacts
	notifier Dispatcher
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(d Deps) UseCase {
	return &service{
		repo:     d.Repo,
		jobs:     d.Jobs,
		resumes:  d.Resumes,
		files:    d.Files,
		contacts: d.Contacts,
		notifier: d.Notifier,
		logger:   d.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Apply(ctx context.Context, caller authz.Principal, in ApplyInput) (app Application, err error) {
	ctx, span := tracer.Start(ctx, "application.Apply")
	defer func() { endSpan(span, err) }()

	if err := authz.RequireRole(caller, auth.RoleApplicant); err != nil {
		return Application{}, err
	}
	cover := strings.TrimSpace(in.CoverLetter)
	if cover == "" {
		return Application{}, apperr.Validation("cover letter is required")
	}
	if utf8.RuneCountInString(cover) > maxCoverLetter {
		return Application{}, apperr.Validation("cover letter is too long")
	}
	availability := strings.ToLower(strings.TrimSpace(in.Availability))
	if availability != "" && !availabilities[availability] {
		return Application{}, apperr.Validation("availability must be one of immediate, two-weeks, one-month, negotiable")
	}
	notes := strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(notes) > maxNotes {
		return Application{}, apperr.Validation("notes are too long")
	}
	salary, err := normalizeMoney(in.ExpectedSalary)
	if err != nil {
		return Application{}, err
	}

	posting, err := s.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		return Application{}, err
	}
	if !posting.Active {
		return Application{}, apperr.Validation("job is not accepting applications")
	}

	var resume string
	if s.resumes != nil {
		if resume, err = s.resumes.ResumeLocator(ctx, caller.ID); err != nil {
			return Application{}, err
		}
	}
	if resume == "" {
		return Application{}, apperr.Validation("a resume is required: upload one to your profile first")
	}
	// an attached locator may only name the caller's own profile resume
	if attached := strings.TrimSpace(in.ResumeLocator); attached != "" && attached != resume {
		return Application{}, apperr.Validation("attached resume is not the one on your profile")
	}

	now := s.now()
	app, err = s.repo.Insert(ctx, Application{
		ID:             uuid.New(),
		JobID:          posting.ID,
		ApplicantID:    caller.ID,
		EmployerID:     posting.OwnerID,
		Status:         StatusApplied,
		CoverLetter:    cover,
		ResumeLocator:  resume,
		ExpectedSalary: salary,
		Availability:   availability,
		Notes:          Notes{Applicant: notes},
		AppliedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Application{}, err
	}

	if err := s.jobs.IncrementApplications(ctx, posting.ID); err != nil {
		s.logger.Warn("increment job application counter",
			zap.String("job_id", posting.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("application created",
		zap.String("application_id", app.ID.String()),
		zap.String("job_id", app.JobID.String()),
		zap.String("applicant_id", app.ApplicantID.String()),
	)
	return app, nil
}

func (s *service) UpdateStatus(ctx context.Context, caller authz.Principal, id uuid.UUID, status Status, notes *string) (app Application, err error) {
	ctx, span := tracer.Start(ctx, "application.UpdateStatus")
	defer func() { endSpan(span, err) }()

	if err := authz.RequireRole(caller, auth.RoleEmployer); err != nil {
		return Application{}, err
	}
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		if utf8.RuneCountInString(trimmed) > maxNotes {
			return Application{}, apperr.Validation("notes are too long")
		}
		notes = &trimmed
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := authz.RequireEmployerOf(caller, current); err != nil {
		return Application{}, err
	}
	if err := checkEmployerTransition(current.Status, status); err != nil {
		return Application{}, err
	}

	app, err = s.repo.ChangeStatus(ctx, StatusChange{
		ID:            id,
		From:          open,
		To:            status,
		EmployerNotes: notes,
		At:            s.now(),
	})
	if err != nil {
		return Application{}, err
	}

	s.logger.Info("application status changed",
		zap.String("application_id", id.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(status)),
	)
	s.notifyApplicant(ctx, app, statusTemplate(status), nil)
	return app, nil
}

func (s *service) Withdraw(ctx context.Context, caller authz.Principal, id uuid.UUID) (app Application, err error) {
	ctx, span := tracer.Start(ctx, "application.Withdraw")
	defer func() { endSpan(span, err) }()

	if err := authz.RequireRole(caller, auth.RoleApplicant); err != nil {
		return Application{}, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := authz.RequireApplicantOf(caller, current); err != nil {
		return Application{}, err
	}
	if !current.Status.Withdrawable() {
		return Application{}, apperr.InvalidTransition("cannot withdraw an application that is " + string(current.Status))
	}

	// The conditional update closes the race with a concurrent employer change.
	app, err = s.repo.ChangeStatus(ctx, StatusChange{
		ID:   id,
		From: withdrawableFrom,
		To:   StatusWithdrawn,
		At:   s.now(),
	})
	if err != nil {
		return Application{}, err
	}
	s.logger.Info("application withdrawn", zap.String("application_id", id.String()))
	return app, nil
}

func (s *service) ScheduleInterview(ctx context.Context, caller authz.Principal, id uuid.UUID, in InterviewInput) (app Application, err error) {
	ctx, span := tracer.Start(ctx, "application.ScheduleInterview")
	defer func() { endSpan(span, err) }()

	if err := authz.RequireRole(caller, auth.RoleEmployer); err != nil {
		return Application{}, err
	}
	interview, err := s.buildInterview(in)
	if err != nil {
		return Application{}, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if err := authz.RequireEmployerOf(caller, current); err != nil {
		return Application{}, err
	}
	if err := checkEmployerTransition(current.Status, StatusInterviewed); err != nil {
		return Application{}, err
	}

	app, err = s.repo.ChangeStatus(ctx, StatusChange{
		ID:        id,
		From:      open,
		To:        StatusInterviewed,
		Interview: &interview,
		At:        s.now(),
	})
	if err != nil {
		return Application{}, err
	}

	s.logger.Info("interview scheduled",
		zap.String("application_id", id.String()),
		zap.Time("date", interview.Date),
		zap.String("modality", string(interview.Modality)),
	)
	s.notifyApplicant(ctx, app, notify.TemplateInterviewScheduled, map[string]string{
		"date":     interview.Date.Format(time.RFC3339),
		"modality": string(interview.Modality),
		"location": interview.Location,
		"link":     interview.Link,
	})
	return app, nil
}

func (s *service) CheckExisting(ctx context.Context, caller authz.Principal, jobID uuid.UUID) (Existing, error) {
	if err := authz.RequireRole(caller, auth.RoleApplicant); err != nil {
		return Existing{}, err
	}
	app, err := s.repo.FindByJobAndApplicant(ctx, jobID, caller.ID)
	if apperr.Is(err, apperr.KindNotFound) {
		return Existing{Exists: false}, nil
	}
	if err != nil {
		return Existing{}, err
	}
	return Existing{Exists: true, Application: &app}, nil
}

func (s *service) ListForApplicant(ctx context.Context, caller authz.Principal, status *Status, limit, offset int) (ListResult, error) {
	if err := authz.RequireRole(caller, auth.RoleApplicant); err != nil {
		return ListResult{}, err
	}
	id := caller.ID
	return s.list(ctx, Scope{ApplicantID: &id}, status, limit, offset)
}

func (s *service) ListForEmployer(ctx context.Context, caller authz.Principal, status *Status, jobID *uuid.UUID, limit, offset int) (ListResult, error) {
	if err := authz.RequireRole(caller, auth.RoleEmployer); err != nil {
		return ListResult{}, err
	}
	id := caller.ID
	return s.list(ctx, Scope{EmployerID: &id, JobID: jobID}, status, limit, offset)
}

// list returns the page for the status-filtered query together with the
// per-status counts of the unfiltered scope.
func (s *service) list(ctx context.Context, scope Scope, status *Status, limit, offset int) (ListResult, error) {
	if status != nil && !status.Valid() {
		return ListResult{}, apperr.Validation("unknown status " + string(*status))
	}
	limit, offset = clampPage(limit, offset)

	res, err := s.repo.List(ctx, ListQuery{Scope: scope, Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return ListResult{}, err
	}
	if res.Items == nil {
		res.Items = []Application{}
	}
	return res, nil
}

func (s *service) Get(ctx context.Context, caller authz.Principal, id uuid.UUID) (Application, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	part, err := authz.RequireParticipant(caller, app)
	if err != nil {
		return Application{}, err
	}
	if !part.IsEmployer {
		app.Notes.Employer = ""
	}
	return app, nil
}

func (s *service) OpenResume(ctx context.Context, caller authz.Principal, id uuid.UUID) (Resume, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Resume{}, err
	}
	if _, err := authz.RequireParticipant(caller, app); err != nil {
		return Resume{}, err
	}
	if s.files == nil {
		return Resume{}, apperr.NotFound("resume storage is not configured")
	}
	data, err := s.files.Retrieve(ctx, app.ResumeLocator)
	if err != nil {
		return Resume{}, err
	}
	return Resume{Locator: app.ResumeLocator, Data: data}, nil
}

// notifyApplicant hands a notification to the dispatcher. The recipient and
// posting lookups run with the delivery, so their failures never reach the
// state change that triggered it.
func (s *service) notifyApplicant(ctx context.Context, app Application, tmpl notify.Template, extra map[string]string) {
	if s.notifier == nil || s.contacts == nil {
		return
	}
	s.notifier.DispatchFunc(ctx, tmpl, func(ctx context.Context) (notify.Notification, error) {
		applicant, err := s.contacts.GetByID(ctx, app.ApplicantID)
		if err != nil {
			return notify.Notification{}, err
		}
		data := map[string]string{
			"applicationId": app.ID.String(),
			"jobId":         app.JobID.String(),
			"status":        string(app.Status),
			"name":          applicant.Name,
		}
		if posting, err := s.jobs.GetByID(ctx, app.JobID); err == nil {
			data["jobTitle"] = posting.Title
			data["company"] = posting.CompanyName
		}
		for k, v := range extra {
			if v != "" {
				data[k] = v
			}
		}
		return notify.Notification{Template: tmpl, Recipient: applicant.Email, Data: data}, nil
	})
}

func (s *service) buildInterview(in InterviewInput) (Interview, error) {
	if in.Date.IsZero() {
		return Interview{}, apperr.Validation("interview date is required")
	}
	if !in.Modality.Valid() {
		return Interview{}, apperr.Validation("modality must be one of video, phone, in-person")
	}
	iv := Interview{
		Date:     in.Date.UTC(),
		Modality: in.Modality,
		Location: strings.TrimSpace(in.Location),
		Link:     strings.TrimSpace(in.Link),
		Notes:    strings.TrimSpace(in.Notes),
		Status:   InterviewScheduled,
	}
	if iv.Modality == ModalityInPerson && iv.Location == "" {
		return Interview{}, apperr.Validation("location is required for in-person interviews")
	}
	if iv.Modality == ModalityVideo && iv.Link == "" {
		return Interview{}, apperr.Validation("link is required for video interviews")
	}
	if utf8.RuneCountInString(iv.Notes) > maxNotes {
		return Interview{}, apperr.Validation("notes are too long")
	}
	return iv, nil
}

func statusTemplate(s Status) notify.Template {
	switch s {
	case StatusShortlisted:
		return notify.TemplateShortlisted
	case StatusRejected:
		return notify.TemplateRejected
	default:
		return notify.TemplateStatusChanged
	}
}

func normalizeMoney(m *Money) (*Money, error) {
	if m == nil {
		return nil, nil
	}
	out := *m
	if out.Amount <= 0 {
		return nil, apperr.Validation("expected salary must be positive")
	}
	out.Currency = strings.ToUpper(strings.TrimSpace(out.Currency))
	if out.Currency == "" {
		out.Currency = "USD"
	}
	if len(out.Currency) != 3 {
		return nil, apperr.Validation("expected salary currency must be a 3-letter code")
	}
	out.Period = strings.ToLower(strings.TrimSpace(out.Period))
	if out.Period == "" {
		out.Period = "year"
	}
	switch out.Period {
	case "hour", "month", "year":
	default:
		return nil, apperr.Validation("expected salary period must be hour, month or year")
	}
	return &out, nil
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

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	}
	span.End()
}
