package presenter

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artem13815/jobboard/pkg/apperr"
)

func TestStatusFor(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindValidation:        400,
		apperr.KindUnauthorized:      401,
		apperr.KindForbidden:         403,
		apperr.KindNotFound:          404,
		apperr.KindConflict:          409,
		apperr.KindInvalidTransition: 422,
		apperr.KindInternal:          500,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(kind), kind)
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/conflict", func(*fiber.Ctx) error { return apperr.Conflict("already applied") })
	app.Get("/boom", func(*fiber.Ctx) error { return errors.New("pq: connection refused") })

	resp, err := app.Test(httptest.NewRequest("GET", "/conflict", nil))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, ErrorResponse{Message: "already applied", Kind: "conflict"}, body)

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "internal error", body.Message)

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
