// Package server exposes the HTTP surface: the fiber application, its
// routes and the uniform response envelope.
package server

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/taskforge-io/taskforge/auth"
	"github.com/taskforge-io/taskforge/middleware/guard"
	"github.com/taskforge-io/taskforge/project"
)

const bodyLimit = 16 * 1024

// Config is the slice of the app configuration the HTTP layer needs.
type Config interface {
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetCORSOrigins() []string
	IsDebug() bool
}

type Server struct {
	app      *fiber.App
	cfg      Config
	auth     *auth.Service
	tokens   *auth.TokenService
	users    auth.UserStore
	projects *project.Service
	logger   auth.Logger
}

func New(cfg Config, authSvc *auth.Service, tokens *auth.TokenService, users auth.UserStore, projects *project.Service, logger auth.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		auth:     authSvc,
		tokens:   tokens,
		users:    users,
		projects: projects,
		logger:   logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "taskforge",
		BodyLimit:    bodyLimit,
		ErrorHandler: s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New(s.corsConfig()))

	s.routes()
	return s
}

// corsConfig enables credentialed CORS only for an explicit origin list.
// With no origins configured fiber would fall back to a wildcard, and a
// wildcard plus AllowCredentials is rejected by the middleware at startup.
func (s *Server) corsConfig() cors.Config {
	origins := s.cfg.GetCORSOrigins()
	if len(origins) == 0 {
		return cors.Config{
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}
	}

	return cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}
}

func (s *Server) routes() {
	api := s.app.Group("/api/v1")

	api.Get("/healthcheck", s.healthcheck)

	authenticated := guard.New(guard.Config{
		Validator: s.tokens,
		Users:     s.users,
		Logger:    s.logger,
	})

	ar := api.Group("/auth")
	ar.Post("/register", s.register)
	ar.Post("/login", s.login)
	ar.Post("/refresh-token", s.refreshToken)
	ar.Get("/verify-email/:token", s.verifyEmail)
	ar.Post("/forgot-password", s.forgotPassword)
	ar.Post("/reset-password/:token", s.resetPassword)

	ar.Post("/logout", authenticated, s.logout)
	ar.Post("/current-user", authenticated, s.currentUser)
	ar.Post("/change-password", authenticated, s.changePassword)
	ar.Post("/resend-email-verification", authenticated, s.resendEmailVerification)

	members := s.projects.Members()
	anyRole := guard.RequireProjectRole(members, auth.AllRoles()...)
	adminOnly := guard.RequireProjectRole(members, auth.RoleAdmin)

	pr := api.Group("/projects", authenticated)
	pr.Post("/", s.createProject)
	pr.Get("/", s.listProjects)
	pr.Get("/:projectId", anyRole, s.getProject)
	pr.Put("/:projectId", adminOnly, s.updateProject)
	pr.Delete("/:projectId", adminOnly, s.deleteProject)

	pr.Get("/:projectId/members", anyRole, s.listMembers)
	pr.Post("/:projectId/members", adminOnly, s.addMember)
	pr.Put("/:projectId/members/:userId", adminOnly, s.updateMemberRole)
	pr.Delete("/:projectId/members/:userId", adminOnly, s.removeMember)
}

func (s *Server) healthcheck(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "OK", fiber.Map{"status": "healthy"})
}

// App exposes the fiber application for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
