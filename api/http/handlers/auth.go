package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/jobboard/api/http/presenter"
	"github.com/artem13815/jobboard/pkg/auth"
)

type AuthHandler struct {
	useCase auth.AuthUseCase
}

func NewAuthHandler(useCase auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{useCase: useCase}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=applicant employer"`
	Name     string `json:"name" validate:"required,max=200"`
	Phone    string `json:"phone" validate:"max=32"`
	Company  string `json:"company" validate:"max=200"`
}

type authResponse struct {
	User  auth.Actor `json:"user"`
	Token string     `json:"token"`
}

// Register handles actor registration.
// @Summary Register applicant or employer
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body registerRequest true "registration payload"
// @Success 201 {object} authResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return err
	}
	result, err := h.useCase.Register(c.UserContext(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		Name:     req.Name,
		Phone:    req.Phone,
		Company:  req.Company,
	})
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusCreated, authResponse{User: result.Actor, Token: result.Token})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles actor login.
// @Summary Login
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body loginRequest true "login payload"
// @Success 200 {object} authResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.useCase.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, authResponse{User: result.Actor, Token: result.Token})
}

// Me returns the authenticated actor.
// @Summary  Current actor
// @Tags     auth
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} auth.Actor
// @Failure  401 {object} presenter.ErrorResponse
// @Router   /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	caller, err := principal(c)
	if err != nil {
		return err
	}
	actor, err := h.useCase.Me(c.UserContext(), caller.ID)
	if err != nil {
		return err
	}
	return presenter.JSON(c, http.StatusOK, actor)
}
