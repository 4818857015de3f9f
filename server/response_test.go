package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-io/taskforge/auth"
)

func newEnvelopeApp(t *testing.T, handler fiber.Handler) *fiber.App {
	t.Helper()

	s := &Server{logger: noopLogger{}}
	app := fiber.New(fiber.Config{ErrorHandler: s.errorHandler})
	app.Get("/probe", handler)
	return app
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func probe(t *testing.T, app *fiber.App) (int, map[string]any) {
	t.Helper()

	res, err := app.Test(httptest.NewRequest("GET", "/probe", nil))
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return res.StatusCode, body
}

func TestSuccessEnvelope(t *testing.T) {
	app := newEnvelopeApp(t, func(c *fiber.Ctx) error {
		return respond(c, fiber.StatusOK, "all good", fiber.Map{"value": 42})
	})

	status, body := probe(t, app)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "all good", body["message"])
	assert.Equal(t, float64(fiber.StatusOK), body["statusCode"])
	assert.Equal(t, map[string]any{"value": float64(42)}, body["data"])
}

func TestErrorEnvelopeFromRichError(t *testing.T) {
	app := newEnvelopeApp(t, func(c *fiber.Ctx) error {
		return auth.ErrInvalidCredentials()
	})

	status, body := probe(t, app)

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid credentials", body["message"])
	assert.Contains(t, body["errors"], auth.TextCodeInvalidCredentials)
}

func TestErrorEnvelopeFromValidation(t *testing.T) {
	type payload struct {
		Email string
	}

	app := newEnvelopeApp(t, func(c *fiber.Ctx) error {
		p := payload{Email: "not-an-email"}
		return validation.ValidateStruct(&p,
			validation.Field(&p.Email, validation.Required, is.Email),
		)
	})

	status, body := probe(t, app)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid request payload", body["message"])

	details, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Contains(t, details[0], "Email")
}

func TestErrorEnvelopeHidesInternals(t *testing.T) {
	app := newEnvelopeApp(t, func(c *fiber.Ctx) error {
		return goerrors.New("database exploded at 10.0.0.3", goerrors.CategoryInternal)
	})

	status, body := probe(t, app)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body["message"])
	assert.NotContains(t, body["message"], "10.0.0.3")
}

func TestErrorEnvelopeFromFiberError(t *testing.T) {
	app := newEnvelopeApp(t, func(c *fiber.Ctx) error {
		return fiber.ErrMethodNotAllowed
	})

	status, body := probe(t, app)

	assert.Equal(t, fiber.StatusMethodNotAllowed, status)
	assert.Equal(t, false, body["success"])
}

func TestStatusFromRichErrorCategoryFallback(t *testing.T) {
	cases := map[int]*goerrors.Error{
		fiber.StatusUnauthorized: goerrors.New("x", goerrors.CategoryAuth),
		fiber.StatusForbidden:    goerrors.New("x", goerrors.CategoryAuthz),
		fiber.StatusNotFound:     goerrors.New("x", goerrors.CategoryNotFound),
		fiber.StatusConflict:     goerrors.New("x", goerrors.CategoryConflict),
		fiber.StatusBadRequest:   goerrors.New("x", goerrors.CategoryValidation),
	}

	for want, err := range cases {
		assert.Equal(t, want, statusFromRichError(err))
	}
}
