package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/jobboard/api/http/presenter"
	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/profile"
)

type ProfileHandler struct {
	useCase  profile.UseCase
	maxBytes int64
}

func NewProfileHandler(useCase profile.UseCase, maxBytes int64) *ProfileHandler {
	return &ProfileHandler{useCase: useCase, maxBytes: maxBytes}
}

type applicantProfileRequest struct {
	Headline   *string                   `json:"headline"`
	Location   *string                   `json:"location"`
	Skills     *[]string                 `json:"skills" validate:"omitempty,max=100"`
	Experience *[]profile.ExperienceItem `json:"experience" validate:"omitempty,max=50"`
}

type employerProfileRequest struct {
	CompanyName *string `json:"companyName" validate:"omitempty,min=1,max=200"`
	Website     *string `json:"website" validate:"omitempty,url"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

type updateProfileRequest struct {
	Phone     *string                  `json:"phone" validate:"omitempty,max=32"`
	Applicant *applicantProfileRequest `json:"applicant"`
	Employer  *employerProfileRequest  `json:"employer"`
}

// Get returns the caller's profile.
// @Summary  Own profile
// @Tags     profile
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} profile.Profile
// @Failure  401 {object} presenter.ErrorResponse
// @Router   /profile [get]
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	p, err := h.useCase.Get(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, p)
}

// Update changes the caller's profile. Only the section matching the
// caller's role may be sent.
// @Summary  Update own profile
// @Tags     profile
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    input body updateProfileRequest true "fields to change"
// @Success  200 {object} profile.Profile
// @Failure  400 {object} presenter.ErrorResponse
// @Router   /profile [put]
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	patch := profile.Patch{Phone: req.Phone}
	if a := req.Applicant; a != nil {
		patch.Applicant = &profile.ApplicantPatch{
			Headline:   a.Headline,
			Location:   a.Location,
			Skills:     a.Skills,
			Experience: a.Experience,
		}
	}
	if e := req.Employer; e != nil {
		patch.Employer = &profile.EmployerPatch{
			CompanyName: e.CompanyName,
			Website:     e.Website,
			Description: e.Description,
			Location:    e.Location,
		}
	}
	p, err := h.useCase.Update(c.UserContext(), caller, patch)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, p)
}

// UploadResume stores a PDF/DOCX resume on the applicant's profile.
// @Summary     Upload resume
// @Description Accepts PDF or DOCX. The file must contain extractable text.
// @Tags        profile
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "resume file (pdf or docx)"
// @Security    BearerAuth
// @Success     201 {object} profile.Resume
// @Failure     400 {object} presenter.ErrorResponse
// @Failure     403 {object} presenter.ErrorResponse
// @Router      /profile/resume [post]
func (h *ProfileHandler) UploadResume(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		return apperr.Validation("file is required (pdf or docx)")
	}
	file, err := fh.Open()
	if err != nil {
		return apperr.Validation("failed to open uploaded file")
	}
	defer file.Close()
	data, err := readAtMost(file, h.maxBytes)
	if err != nil {
		return err
	}
	r, err := h.useCase.UploadResume(c.UserContext(), caller, fh.Filename, data)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusCreated, r)
}
