package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/artem13815/jobboard/pkg/apperr"
)

const minPasswordLen = 8

// AuthUseCase describes authentication/registration behavior.
type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	Me(ctx context.Context, actorID uuid.UUID) (Actor, error)
}

type RegisterInput struct {
	Email    string
	Password string
	Role     Role
	Name     string
	Phone    string
	Company  string
}

type AuthResult struct {
	Actor Actor
	Token string
}

type authService struct {
	repo     ActorRepository
	profiles ProfileInitializer
	tokens   TokenIssuer
	logger   *zap.Logger
}

// NewAuthService returns default implementation of AuthUseCase.
func NewAuthService(repo ActorRepository, profiles ProfileInitializer, tokens TokenIssuer, logger *zap.Logger) AuthUseCase {
	return &authService{repo: repo, profiles: profiles, tokens: tokens, logger: logger}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResult{}, apperr.Validation("invalid email")
	}
	if len(in.Password) < minPasswordLen {
		return AuthResult{}, apperr.Validation("password must be at least 8 characters")
	}
	if !in.Role.Valid() {
		return AuthResult{}, apperr.Validation("role must be applicant or employer")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return AuthResult{}, apperr.Validation("name is required")
	}
	company := strings.TrimSpace(in.Company)
	if in.Role == RoleEmployer && company == "" {
		return AuthResult{}, apperr.Validation("company is required for employers")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, apperr.Internal("hash password", err)
	}

	actor := Actor{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         in.Role,
		PasswordHash: string(passwordHash),
		CreatedAt:    time.Now().UTC(),
	}
	// the unique index on email decides duplicates
	if err := s.repo.Create(ctx, actor); err != nil {
		return AuthResult{}, err
	}
	if err := s.profiles.Init(ctx, actor, company); err != nil {
		// release the email so the registration can be retried
		if derr := s.repo.Delete(context.WithoutCancel(ctx), actor.ID); derr != nil {
			s.logger.Error("failed to roll back actor after profile init error",
				zap.String("actor_id", actor.ID.String()),
				zap.Error(derr),
			)
		}
		return AuthResult{}, err
	}
	token, err := s.tokens.Issue(ctx, actor)
	if err != nil {
		return AuthResult{}, apperr.Internal("issue token", err)
	}
	s.logger.Info("actor registered",
		zap.String("actor_id", actor.ID.String()),
		zap.String("role", string(actor.Role)),
	)
	return AuthResult{Actor: actor, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	actor, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return AuthResult{}, apperr.Unauthorized("invalid credentials")
		}
		return AuthResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, apperr.Unauthorized("invalid credentials")
	}
	token, err := s.tokens.Issue(ctx, actor)
	if err != nil {
		return AuthResult{}, apperr.Internal("issue token", err)
	}
	return AuthResult{Actor: actor, Token: token}, nil
}

func (s *authService) Me(ctx context.Context, actorID uuid.UUID) (Actor, error) {
	return s.repo.GetByID(ctx, actorID)
}
