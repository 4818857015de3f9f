// Package guard provides the request-time authentication and project
// authorization middleware.
package guard

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/taskforge-io/taskforge/auth"
)

const (
	// AccessTokenCookie is the session cookie carrying the access token.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie is the session cookie carrying the refresh token.
	RefreshTokenCookie = "refreshToken"

	bearerScheme = "Bearer"

	userLocalsKey = "guard:user"
	roleLocalsKey = "guard:project-role"
)

// TokenValidator verifies access tokens without tying the guard to a
// specific signing implementation.
type TokenValidator interface {
	ValidateAccess(raw string) (*auth.Claims, error)
}

// UserLoader resolves the authenticated identity record.
type UserLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
}

// MembershipLookup resolves the (user, project, role) edge.
type MembershipLookup interface {
	FindRole(ctx context.Context, projectID, userID uuid.UUID) (auth.Role, error)
}

type Config struct {
	Validator TokenValidator
	Users     UserLoader
	Logger    auth.Logger
}

// New authenticates the request from the accessToken cookie or the
// Authorization header (cookie wins). Every failure mode collapses into one
// unauthorized response so callers cannot tell a missing token from a bad
// one or from a vanished user.
func New(cfg Config) fiber.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return func(c *fiber.Ctx) error {
		raw := extractToken(c)
		if raw == "" {
			return auth.ErrUnauthorized()
		}

		claims, err := cfg.Validator.ValidateAccess(raw)
		if err != nil {
			logger.Debug("guard token validation failed", "error", err)
			return auth.ErrUnauthorized()
		}

		id, err := claims.UserUUID()
		if err != nil {
			return auth.ErrUnauthorized()
		}

		user, err := cfg.Users.FindByID(c.UserContext(), id)
		if err != nil {
			logger.Debug("guard user lookup failed", "user_id", id.String(), "error", err)
			return auth.ErrUnauthorized()
		}

		sanitized := user.Sanitize()
		c.Locals(userLocalsKey, sanitized)
		c.SetUserContext(auth.WithContext(c.UserContext(), sanitized))

		return c.Next()
	}
}

// RequireProjectRole authorizes a project-scoped action. It resolves the
// caller's membership for the projectId path parameter, rejects non-members
// and disallowed roles, and passes control through with the resolved role
// attached on success.
func RequireProjectRole(members MembershipLookup, allowed ...auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := User(c)
		if !ok {
			return auth.ErrUnauthorized()
		}

		raw := c.Params("projectId")
		if raw == "" {
			return goerrors.New("project id is missing", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest)
		}

		projectID, err := uuid.Parse(raw)
		if err != nil {
			return goerrors.New("project id is invalid", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest)
		}

		role, err := members.FindRole(c.UserContext(), projectID, user.ID)
		if err != nil {
			return goerrors.New("not a project member", goerrors.CategoryAuthz).
				WithCode(goerrors.CodeForbidden).
				WithTextCode(auth.TextCodeNotProjectMember)
		}

		if !role.OneOf(allowed...) {
			return goerrors.New("you do not have permission to perform this action", goerrors.CategoryAuthz).
				WithCode(goerrors.CodeForbidden)
		}

		c.Locals(roleLocalsKey, role)
		c.SetUserContext(auth.WithProjectRole(c.UserContext(), role))

		return c.Next()
	}
}

// User returns the authenticated, sanitized user attached by New.
func User(c *fiber.Ctx) (*auth.User, bool) {
	user, ok := c.Locals(userLocalsKey).(*auth.User)
	return user, ok
}

// ProjectRole returns the role attached by RequireProjectRole.
func ProjectRole(c *fiber.Ctx) (auth.Role, bool) {
	role, ok := c.Locals(roleLocalsKey).(auth.Role)
	return role, ok
}

func extractToken(c *fiber.Ctx) string {
	if cookie := c.Cookies(AccessTokenCookie); cookie != "" {
		return cookie
	}

	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
