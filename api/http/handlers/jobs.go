package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/jobboard/api/http/presenter"
	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/job"
)

type JobHandler struct {
	useCase job.UseCase
}

func NewJobHandler(useCase job.UseCase) *JobHandler {
	return &JobHandler{useCase: useCase}
}

type salaryRequest struct {
	Min      *int64 `json:"min" validate:"omitempty,gte=0"`
	Max      *int64 `json:"max" validate:"omitempty,gte=0"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
	Period   string `json:"period" validate:"omitempty,oneof=hour month year"`
}

func (r *salaryRequest) toSalary() job.Salary {
	return job.Salary{Min: r.Min, Max: r.Max, Currency: r.Currency, Period: r.Period}
}

type createJobRequest struct {
	Title            string         `json:"title" validate:"required,max=200"`
	Description      string         `json:"description" validate:"required"`
	Requirements     string         `json:"requirements"`
	Responsibilities string         `json:"responsibilities"`
	Benefits         string         `json:"benefits"`
	Skills           []string       `json:"skills" validate:"max=50"`
	Location         string         `json:"location"`
	EmploymentType   string         `json:"employmentType" validate:"required"`
	Experience       string         `json:"experience" validate:"required"`
	Salary           *salaryRequest `json:"salary"`
}

type updateJobRequest struct {
	Title            *string        `json:"title" validate:"omitempty,max=200"`
	Description      *string        `json:"description"`
	Requirements     *string        `json:"requirements"`
	Responsibilities *string        `json:"responsibilities"`
	Benefits         *string        `json:"benefits"`
	Skills           *[]string      `json:"skills" validate:"omitempty,max=50"`
	Location         *string        `json:"location"`
	EmploymentType   *string        `json:"employmentType"`
	Experience       *string        `json:"experience"`
	Salary           *salaryRequest `json:"salary"`
	Active           *bool          `json:"active"`
}

// List returns active postings.
// @Summary List active jobs
// @Tags    jobs
// @Produce json
// @Param   search         query string false "substring of title, description, skills, location or company"
// @Param   location       query string false "location substring"
// @Param   employmentType query string false "full-time, part-time, contract, internship, freelance"
// @Param   experience     query string false "entry, junior, mid, senior, lead, executive"
// @Param   salaryMin      query int    false "lower salary bound"
// @Param   salaryMax      query int    false "upper salary bound"
// @Param   skills         query string false "comma separated skills, all required"
// @Param   sort           query string false "date, salary, title, company"
// @Param   order          query string false "asc or desc"
// @Param   limit          query int    false "page size (default 20, max 200)"
// @Param   offset         query int    false "offset"
// @Success 200 {object} job.Page
// @Failure 400 {object} presenter.ErrorResponse
// @Router  /jobs [get]
func (h *JobHandler) List(c *fiber.Ctx) error {
	salaryMin, err := queryInt64(c, "salaryMin")
	if err != nil {
		return err
	}
	salaryMax, err := queryInt64(c, "salaryMax")
	if err != nil {
		return err
	}
	limit, offset := parseLimitOffset(c)
	q := job.Query{
		Search:         c.Query("search"),
		Location:       c.Query("location"),
		EmploymentType: job.EmploymentType(strings.TrimSpace(c.Query("employmentType"))),
		Experience:     job.ExperienceLevel(strings.TrimSpace(c.Query("experience"))),
		SalaryMin:      salaryMin,
		SalaryMax:      salaryMax,
		Skills:         queryList(c, "skills"),
		Sort:           job.SortKey(strings.TrimSpace(c.Query("sort"))),
		Limit:          limit,
		Offset:         offset,
	}
	order := strings.ToLower(strings.TrimSpace(c.Query("order")))
	switch order {
	case "", "desc":
		q.Desc = true
	case "asc":
	default:
		return apperr.Validation("order must be asc or desc")
	}
	if q.Sort == "" && order != "" {
		q.Sort = job.SortDate
	}
	page, err := h.useCase.ListActive(c.UserContext(), q)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, page)
}

// Get returns one posting and counts the view.
// @Summary Get job
// @Tags    jobs
// @Produce json
// @Param   id path string true "job id"
// @Success 200 {object} job.Posting
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /jobs/{id} [get]
func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.useCase.View(c.UserContext(), id)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, p)
}

// Create publishes a posting owned by the calling employer.
// @Summary  Create job
// @Tags     jobs
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    input body createJobRequest true "posting"
// @Success  201 {object} job.Posting
// @Failure  400 {object} presenter.ErrorResponse
// @Failure  403 {object} presenter.ErrorResponse
// @Router   /jobs [post]
func (h *JobHandler) Create(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	var req createJobRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	f := job.Fields{
		Title:            req.Title,
		Description:      req.Description,
		Requirements:     req.Requirements,
		Responsibilities: req.Responsibilities,
		Benefits:         req.Benefits,
		Skills:           req.Skills,
		Location:         req.Location,
		EmploymentType:   job.EmploymentType(req.EmploymentType),
		Experience:       job.ExperienceLevel(req.Experience),
	}
	if req.Salary != nil {
		f.Salary = req.Salary.toSalary()
	}
	p, err := h.useCase.Create(c.UserContext(), caller, f)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusCreated, p)
}

// Update patches a posting. Only its owner may do so.
// @Summary  Update job
// @Tags     jobs
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id    path string           true "job id"
// @Param    input body updateJobRequest true "fields to change"
// @Success  200 {object} job.Posting
// @Failure  400 {object} presenter.ErrorResponse
// @Failure  403 {object} presenter.ErrorResponse
// @Failure  404 {object} presenter.ErrorResponse
// @Router   /jobs/{id} [patch]
func (h *JobHandler) Update(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req updateJobRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	patch := job.Patch{
		Title:            req.Title,
		Description:      req.Description,
		Requirements:     req.Requirements,
		Responsibilities: req.Responsibilities,
		Benefits:         req.Benefits,
		Skills:           req.Skills,
		Location:         req.Location,
		Active:           req.Active,
	}
	if req.EmploymentType != nil {
		t := job.EmploymentType(*req.EmploymentType)
		patch.EmploymentType = &t
	}
	if req.Experience != nil {
		l := job.ExperienceLevel(*req.Experience)
		patch.Experience = &l
	}
	if req.Salary != nil {
		s := req.Salary.toSalary()
		patch.Salary = &s
	}
	p, err := h.useCase.Update(c.UserContext(), caller, id, patch)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, p)
}

// Delete removes a posting without applications.
// @Summary  Delete job
// @Tags     jobs
// @Security BearerAuth
// @Param    id path string true "job id"
// @Success  204
// @Failure  403 {object} presenter.ErrorResponse
// @Failure  404 {object} presenter.ErrorResponse
// @Failure  409 {object} presenter.ErrorResponse
// @Router   /jobs/{id} [delete]
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.useCase.Delete(c.UserContext(), caller, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListMine returns all postings of the calling employer, inactive included.
// @Summary  Employer's jobs
// @Tags     jobs
// @Produce  json
// @Security BearerAuth
// @Param    limit  query int false "page size"
// @Param    offset query int false "offset"
// @Success  200 {object} job.Page
// @Failure  403 {object} presenter.ErrorResponse
// @Router   /employer/jobs [get]
func (h *JobHandler) ListMine(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	limit, offset := parseLimitOffset(c)
	page, err := h.useCase.ListMine(c.UserContext(), caller, limit, offset)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, page)
}
