package server

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/taskforge-io/taskforge/auth"
	"github.com/taskforge-io/taskforge/middleware/guard"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r projectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

func (s *Server) createProject(c *fiber.Ctx) error {
	user, ok := guard.User(c)
	if !ok {
		return auth.ErrUnauthorized()
	}

	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return badPayload(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	record, err := s.projects.Create(c.UserContext(), req.Name, req.Description, user.ID)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Project created successfully", record)
}

func (s *Server) listProjects(c *fiber.Ctx) error {
	user, ok := guard.User(c)
	if !ok {
		return auth.ErrUnauthorized()
	}

	records, err := s.projects.ListForUser(c.UserContext(), user.ID)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Projects fetched successfully", records)
}

func (s *Server) getProject(c *fiber.Ctx) error {
	projectID, err := pathUUID(c, "projectId")
	if err != nil {
		return err
	}

	record, err := s.projects.Get(c.UserContext(), projectID)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Project fetched successfully", record)
}

func (s *Server) updateProject(c *fiber.Ctx) error {
	projectID, err := pathUUID(c, "projectId")
	if err != nil {
		return err
	}

	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return badPayload(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	record, err := s.projects.Update(c.UserContext(), projectID, req.Name, req.Description)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Project updated successfully", record)
}

func (s *Server) deleteProject(c *fiber.Ctx) error {
	projectID, err := pathUUID(c, "projectId")
	if err != nil {
		return err
	}

	if err := s.projects.Delete(c.UserContext(), projectID); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Project deleted successfully", fiber.Map{})
}

func (s *Server) listMembers(c *fiber.Ctx) error {
	projectID, err := pathUUID(c, "projectId")
	if err != nil {
		return err
	}

	records, err := s.projects.ListMembers(c.UserContext(), projectID)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Project members fetched successfully", records)
}

type addMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r addMemberRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Role, validation.Required),
	)
}

func (s *Server) addMember(c *fiber.Ctx) error {
	projectID, err := pathUUID(c, "projectId")
	if err != nil {
		return err
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badPayload(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	role, ok := auth.ParseRole(req.Role)
	if !ok {
		return goerrors.New("invalid member role", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	record, err := s.projects.AddMember(c.UserContext(), projectID, req.Email, role)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Project member added successfully", record)
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

func (r updateMemberRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required),
	)
}

func (s *Server) updateMemberRole(c *fiber.Ctx) error {
	projectID, err := pathUUID(c, "projectId")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	var req updateMemberRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badPayload(err)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	role, ok := auth.ParseRole(req.Role)
	if !ok {
		return goerrors.New("invalid member role", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	if err := s.projects.UpdateMemberRole(c.UserContext(), projectID, userID, role); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Member role updated successfully", fiber.Map{})
}

func (s *Server) removeMember(c *fiber.Ctx) error {
	projectID, err := pathUUID(c, "projectId")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userId")
	if err != nil {
		return err
	}

	if err := s.projects.RemoveMember(c.UserContext(), projectID, userID); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Project member removed successfully", fiber.Map{})
}

func pathUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, goerrors.New(name+" is not a valid id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	return id, nil
}
