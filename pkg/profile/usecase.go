package profile

import (
	"context"
	"path/filepath"
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
	KindResume       = "resumes"
	maxExperience    = 50
	maxHeadlineRunes = 200
)

// FileStore is the document storage collaborator.
type FileStore interface {
	Store(ctx context.Context, kind, ext string, data []byte) (string, error)
	Retrieve(ctx context.Context, locator string) ([]byte, error)
}

// UseCase manages role-specific profiles. It also serves as the
// auth.ProfileInitializer, the job.CompanyDirectory and the
// application.ResumeSource.
type UseCase interface {
	Init(ctx context.Context, actor auth.Actor, company string) error
	Get(ctx context.Context, caller authz.Principal) (Profile, error)
	Update(ctx context.Context, caller authz.Principal, patch Patch) (Profile, error)
	UploadResume(ctx context.Context, caller authz.Principal, filename string, data []byte) (Resume, error)
	ResumeLocator(ctx context.Context, applicantID uuid.UUID) (string, error)
	CompanyName(ctx context.Context, ownerID uuid.UUID) (string, error)
}

type service struct {
	repo     Repository
	files    FileStore
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, files FileStore, maxBytes int64, logger *zap.Logger) UseCase {
	return &service{
		repo:     repo,
		files:    files,
		maxBytes: maxBytes,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Init(ctx context.Context, actor auth.Actor, company string) error {
	p := Profile{ActorID: actor.ID, Role: actor.Role, Phone: actor.Phone, UpdatedAt: s.now()}
	switch actor.Role {
	case auth.RoleApplicant:
		p.Applicant = &ApplicantProfile{Skills: []string{}, Experience: []ExperienceItem{}}
	case auth.RoleEmployer:
		p.Employer = &EmployerProfile{CompanyName: strings.TrimSpace(company)}
	default:
		return apperr.Validation("role must be applicant or employer")
	}
	return s.repo.Create(ctx, p)
}

func (s *service) Get(ctx context.Context, caller authz.Principal) (Profile, error) {
	if err := authz.RequireRole(caller, auth.RoleApplicant, auth.RoleEmployer); err != nil {
		return Profile{}, err
	}
	return s.repo.Get(ctx, caller.ID)
}

func (s *service) Update(ctx context.Context, caller authz.Principal, patch Patch) (Profile, error) {
	if err := authz.RequireRole(caller, auth.RoleApplicant, auth.RoleEmployer); err != nil {
		return Profile{}, err
	}
	p, err := s.repo.Get(ctx, caller.ID)
	if err != nil {
		return Profile{}, err
	}
	if patch.Phone != nil {
		p.Phone = strings.TrimSpace(*patch.Phone)
	}
	switch p.Role {
	case auth.RoleApplicant:
		if p.Applicant == nil {
			p.Applicant = &ApplicantProfile{Skills: []string{}, Experience: []ExperienceItem{}}
		}
		if patch.Employer != nil {
			return Profile{}, apperr.Validation("employer fields cannot be set on an applicant profile")
		}
		if err := applyApplicant(p.Applicant, patch.Applicant); err != nil {
			return Profile{}, err
		}
	case auth.RoleEmployer:
		if p.Employer == nil {
			p.Employer = &EmployerProfile{}
		}
		if patch.Applicant != nil {
			return Profile{}, apperr.Validation("applicant fields cannot be set on an employer profile")
		}
		if err := applyEmployer(p.Employer, patch.Employer); err != nil {
			return Profile{}, err
		}
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *service) UploadResume(ctx context.Context, caller authz.Principal, filename string, data []byte) (Resume, error) {
	if err := authz.RequireRole(caller, auth.RoleApplicant); err != nil {
		return Resume{}, err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".pdf" && ext != ".docx" {
		return Resume{}, apperr.Validation("unsupported file format: only pdf and docx are allowed")
	}
	if len(data) == 0 {
		return Resume{}, apperr.Validation("file is empty")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return Resume{}, apperr.Validation("file is too large")
	}
	text, err := ResumeText(filename, data)
	if err != nil {
		return Resume{}, apperr.Validation("failed to read resume: " + err.Error())
	}
	if text == "" {
		return Resume{}, apperr.Validation("empty resume content")
	}

	p, err := s.repo.Get(ctx, caller.ID)
	if err != nil {
		return Resume{}, err
	}
	locator, err := s.files.Store(ctx, KindResume, ext, data)
	if err != nil {
		return Resume{}, err
	}
	r := Resume{
		Locator:    locator,
		Filename:   filepath.Base(filename),
		Size:       int64(len(data)),
		TextLength: len([]rune(text)),
		UploadedAt: s.now(),
	}
	if p.Applicant == nil {
		p.Applicant = &ApplicantProfile{Skills: []string{}, Experience: []ExperienceItem{}}
	}
	p.Applicant.Resume = &r
	p.UpdatedAt = r.UploadedAt
	if err := s.repo.Save(ctx, p); err != nil {
		return Resume{}, err
	}
	s.logger.Info("resume uploaded",
		zap.String("actor_id", caller.ID.String()),
		zap.String("locator", locator),
		zap.Int64("size", r.Size),
	)
	return r, nil
}

func (s *service) ResumeLocator(ctx context.Context, applicantID uuid.UUID) (string, error) {
	p, err := s.repo.Get(ctx, applicantID)
	if apperr.Is(err, apperr.KindNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if p.Applicant == nil || p.Applicant.Resume == nil {
		return "", nil
	}
	return p.Applicant.Resume.Locator, nil
}

func (s *service) CompanyName(ctx context.Context, ownerID uuid.UUID) (string, error) {
	p, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if p.Employer == nil {
		return "", nil
	}
	return p.Employer.CompanyName, nil
}

func applyApplicant(a *ApplicantProfile, patch *ApplicantPatch) error {
	if patch == nil {
		return nil
	}
	if patch.Headline != nil {
		h := strings.TrimSpace(*patch.Headline)
		if len([]rune(h)) > maxHeadlineRunes {
			return apperr.Validation("headline is too long")
		}
		a.Headline = h
	}
	if patch.Location != nil {
		a.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Skills != nil {
		a.Skills = nlp.CleanSkills(*patch.Skills)
	}
	if patch.Experience != nil {
		items := *patch.Experience
		if len(items) > maxExperience {
			return apperr.Validation("too many experience entries")
		}
		out := make([]ExperienceItem, 0, len(items))
		for _, it := range items {
			it.Company = strings.TrimSpace(it.Company)
			it.Role = strings.TrimSpace(it.Role)
			if it.Company == "" || it.Role == "" {
				return apperr.Validation("experience entries need company and role")
			}
			it.Start = strings.TrimSpace(it.Start)
			it.End = strings.TrimSpace(it.End)
			it.Description = strings.TrimSpace(it.Description)
			out = append(out, it)
		}
		a.Experience = out
	}
	return nil
}

func applyEmployer(e *EmployerProfile, patch *EmployerPatch) error {
	if patch == nil {
		return nil
	}
	if patch.CompanyName != nil {
		name := strings.TrimSpace(*patch.CompanyName)
		if name == "" {
			return apperr.Validation("company name is required")
		}
		e.CompanyName = name
	}
	if patch.Website != nil {
		e.Website = strings.TrimSpace(*patch.Website)
	}
	if patch.Description != nil {
		e.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Location != nil {
		e.Location = strings.TrimSpace(*patch.Location)
	}
	return nil
}
