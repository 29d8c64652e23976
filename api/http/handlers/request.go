package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/authz"
	"github.com/artem13815/jobboard/pkg/security/jwt"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bind parses the JSON body into dst and runs its `validate` tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validation("invalid JSON payload")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation(describe(verrs[0]))
		}
		return apperr.Validation(err.Error())
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// principal reads the caller placed into Locals by the auth middleware.
func principal(c *fiber.Ctx) (authz.Principal, error) {
	idStr, _ := c.Locals(jwt.LocalUserID).(string)
	id, err := uuid.Parse(idStr)
	if err != nil {
		return authz.Principal{}, apperr.Unauthorized("unauthorized")
	}
	role, _ := c.Locals(jwt.LocalRole).(auth.Role)
	return authz.Principal{ID: id, Role: role}, nil
}

func pathUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + name)
	}
	return id, nil
}

func readAtMost(f multipart.File, max int64) ([]byte, error) {
	limited := io.LimitReader(f, max+1)
	b, err := io.ReadAll(limited)
	if err != nil {
		return nil, apperr.Validation("failed to read file")
	}
	if int64(len(b)) > max {
		return nil, apperr.Validation(fmt.Sprintf("file too large: limit is %d bytes", max))
	}
	return b, nil
}
