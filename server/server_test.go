package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-io/taskforge/project"
)

type serverConfig struct {
	origins []string
}

func (c serverConfig) GetAccessTokenTTL() time.Duration  { return time.Minute }
func (c serverConfig) GetRefreshTokenTTL() time.Duration { return time.Hour }
func (c serverConfig) GetCORSOrigins() []string          { return c.origins }
func (c serverConfig) IsDebug() bool                     { return false }

func newTestServer(t *testing.T, origins []string) *Server {
	t.Helper()
	return New(serverConfig{origins: origins}, nil, nil, nil,
		project.NewService(nil, nil, nil, nil), noopLogger{})
}

func TestNewWithoutCORSOrigins(t *testing.T) {
	// An empty origin list must not combine credentialed CORS with the
	// middleware's wildcard fallback, which refuses to start.
	s := newTestServer(t, nil)

	res, err := s.App().Test(httptest.NewRequest("GET", "/api/v1/healthcheck", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestNewWithCORSOrigins(t *testing.T) {
	s := newTestServer(t, []string{"http://localhost:3000"})

	req := httptest.NewRequest("GET", "/api/v1/healthcheck", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	res, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCurrentUserAcceptsPost(t *testing.T) {
	s := newTestServer(t, nil)

	// Anonymous POST reaches the guard and gets 401; GET is not routed.
	res, err := s.App().Test(httptest.NewRequest("POST", "/api/v1/auth/current-user", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	res, err = s.App().Test(httptest.NewRequest("GET", "/api/v1/auth/current-user", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusMethodNotAllowed, res.StatusCode)
}
