package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/artem13815/jobboard/api/http/presenter"
	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/application"
)

type ApplicationHandler struct {
	useCase application.UseCase
}

func NewApplicationHandler(useCase application.UseCase) *ApplicationHandler {
	return &ApplicationHandler{useCase: useCase}
}

type moneyRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
	Period   string `json:"period" validate:"omitempty,oneof=hour month year"`
}

type applyRequest struct {
	JobID          string        `json:"jobId" validate:"required,uuid"`
	CoverLetter    string        `json:"coverLetter" validate:"required"`
	ResumeLocator  string        `json:"resumeLocator"`
	ExpectedSalary *moneyRequest `json:"expectedSalary"`
	Availability   string        `json:"availability"`
	Notes          string        `json:"notes"`
}

type statusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

type interviewRequest struct {
	Date     time.Time `json:"date" validate:"required"`
	Modality string    `json:"modality" validate:"required"`
	Location string    `json:"location"`
	Link     string    `json:"link"`
	Notes    string    `json:"notes"`
}

// Apply submits an application to an active posting.
// @Summary  Apply to a job
// @Tags     applications
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    input body applyRequest true "application"
// @Success  201 {object} application.Application
// @Failure  400 {object} presenter.ErrorResponse
// @Failure  404 {object} presenter.ErrorResponse
// @Failure  409 {object} presenter.ErrorResponse
// @Router   /applications [post]
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	var req applyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in := application.ApplyInput{
		CoverLetter:   req.CoverLetter,
		ResumeLocator: req.ResumeLocator,
		Availability:  req.Availability,
		Notes:         req.Notes,
	}
	if in.JobID, err = uuid.Parse(req.JobID); err != nil {
		return apperr.Validation("invalid jobId")
	}
	if m := req.ExpectedSalary; m != nil {
		in.ExpectedSalary = &application.Money{Amount: m.Amount, Currency: m.Currency, Period: m.Period}
	}
	app, err := h.useCase.Apply(c.UserContext(), caller, in)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusCreated, app)
}

// ListMine lists the caller's applications with per-status counts.
// @Summary  Own applications
// @Tags     applications
// @Produce  json
// @Security BearerAuth
// @Param    status query string false "status filter"
// @Param    limit  query int    false "page size"
// @Param    offset query int    false "offset"
// @Success  200 {object} application.ListResult
// @Router   /applications/mine [get]
func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	status, err := queryStatus(c)
	if err != nil {
		return err
	}
	limit, offset := parseLimitOffset(c)
	res, err := h.useCase.ListForApplicant(c.UserContext(), caller, status, limit, offset)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, res)
}

// Check tells whether the caller already applied to a posting.
// @Summary  Check existing application
// @Tags     applications
// @Produce  json
// @Security BearerAuth
// @Param    jobId path string true "job id"
// @Success  200 {object} application.Existing
// @Router   /applications/check/{jobId} [get]
func (h *ApplicationHandler) Check(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	jobID, err := pathUUID(c, "jobId")
	if err != nil {
		return err
	}
	res, err := h.useCase.CheckExisting(c.UserContext(), caller, jobID)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, res)
}

// ListForEmployer lists applications received by the caller.
// @Summary  Received applications
// @Tags     applications
// @Produce  json
// @Security BearerAuth
// @Param    status query string false "status filter"
// @Param    jobId  query string false "restrict to one posting"
// @Param    limit  query int    false "page size"
// @Param    offset query int    false "offset"
// @Success  200 {object} application.ListResult
// @Failure  403 {object} presenter.ErrorResponse
// @Router   /employer/applications [get]
func (h *ApplicationHandler) ListForEmployer(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	status, err := queryStatus(c)
	if err != nil {
		return err
	}
	jobID, err := queryUUID(c, "jobId")
	if err != nil {
		return err
	}
	limit, offset := parseLimitOffset(c)
	res, err := h.useCase.ListForEmployer(c.UserContext(), caller, status, jobID, limit, offset)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, res)
}

// Get returns one application to one of its participants.
// @Summary  Get application
// @Tags     applications
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "application id"
// @Success  200 {object} application.Application
// @Failure  403 {object} presenter.ErrorResponse
// @Failure  404 {object} presenter.ErrorResponse
// @Router   /applications/{id} [get]
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	app, err := h.useCase.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, app)
}

// Resume streams the resume attached to an application.
// @Summary  Download application resume
// @Tags     applications
// @Produce  application/octet-stream
// @Security BearerAuth
// @Param    id path string true "application id"
// @Success  200 {file} file
// @Failure  403 {object} presenter.ErrorResponse
// @Failure  404 {object} presenter.ErrorResponse
// @Router   /applications/{id}/resume [get]
func (h *ApplicationHandler) Resume(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.useCase.OpenResume(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(r.Locator))
	switch ext {
	case ".pdf":
		c.Set(fiber.HeaderContentType, "application/pdf")
	case ".docx":
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	default:
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	}
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="resume-`+id.String()+ext+`"`)
	return c.Status(http.StatusOK).Send(r.Data)
}

// UpdateStatus moves an application through the employer pipeline.
// @Summary  Change application status
// @Tags     applications
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id    path string        true "application id"
// @Param    input body statusRequest true "new status and optional notes"
// @Success  200 {object} application.Application
// @Failure  400 {object} presenter.ErrorResponse
// @Failure  403 {object} presenter.ErrorResponse
// @Failure  422 {object} presenter.ErrorResponse
// @Router   /applications/{id}/status [patch]
func (h *ApplicationHandler) UpdateStatus(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	status, err := application.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	app, err := h.useCase.UpdateStatus(c.UserContext(), caller, id, status, req.Notes)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, app)
}

// Withdraw lets the applicant retract an application still under review.
// @Summary  Withdraw application
// @Tags     applications
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "application id"
// @Success  200 {object} application.Application
// @Failure  403 {object} presenter.ErrorResponse
// @Failure  422 {object} presenter.ErrorResponse
// @Router   /applications/{id}/withdraw [post]
func (h *ApplicationHandler) Withdraw(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	app, err := h.useCase.Withdraw(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, app)
}

// ScheduleInterview records an interview and moves the application to interviewed.
// @Summary  Schedule interview
// @Tags     applications
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id    path string           true "application id"
// @Param    input body interviewRequest true "interview"
// @Success  200 {object} application.Application
// @Failure  400 {object} presenter.ErrorResponse
// @Failure  403 {object} presenter.ErrorResponse
// @Failure  422 {object} presenter.ErrorResponse
// @Router   /applications/{id}/interview [post]
func (h *ApplicationHandler) ScheduleInterview(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req interviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	app, err := h.useCase.ScheduleInterview(c.UserContext(), caller, id, application.InterviewInput{
		Date:     req.Date,
		Modality: application.Modality(strings.ToLower(strings.TrimSpace(req.Modality))),
		Location: req.Location,
		Link:     req.Link,
		Notes:    req.Notes,
	})
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, app)
}

func queryStatus(c *fiber.Ctx) (*application.Status, error) {
	v := strings.TrimSpace(c.Query("status"))
	if v == "" {
		return nil, nil
	}
	s, err := application.ParseStatus(v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
