package project

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/taskforge-io/taskforge/auth"
)

// Service covers project and membership CRUD. The creator of a project
// becomes its admin in the same transaction that creates the record.
type Service struct {
	db       *bun.DB
	projects Projects
	members  Members
	users    auth.UserStore
}

func NewService(db *bun.DB, projects Projects, members Members, users auth.UserStore) *Service {
	return &Service{
		db:       db,
		projects: projects,
		members:  members,
		users:    users,
	}
}

// Members exposes the membership repository for the access guard.
func (s *Service) Members() Members {
	return s.members
}

func (s *Service) Create(ctx context.Context, name, description string, creator uuid.UUID) (*Project, error) {
	record := &Project{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedBy:   creator,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create project")
		}

		if _, err := s.members.UpsertTx(ctx, tx, record.ID, creator, auth.RoleAdmin); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not add creator membership")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	record, err := s.projects.GetByID(ctx, id.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, goerrors.New("project not found", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return nil, err
	}
	return record, nil
}

// ListForUser returns the projects the user is a member of.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error) {
	var records []*Project
	err := s.db.NewSelect().
		Model(&records).
		Join("JOIN project_members AS pmb ON pmb.project_id = prj.id").
		Where("pmb.user_id = ?", userID).
		Order("prj.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, name, description string) (*Project, error) {
	res, err := s.db.NewUpdate().
		Model((*Project)(nil)).
		Set("name = ?", name).
		Set("description = ?", description).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, goerrors.New("project not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}

	return s.Get(ctx, id)
}

// Delete removes the project and its membership edges together.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Member)(nil)).
			Where("project_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewDelete().
			Model((*Project)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}

func (s *Service) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*Member, error) {
	sanitized := make([]*Member, 0)

	records, err := s.members.List(ctx, projectID)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		record.User = record.User.Sanitize()
		sanitized = append(sanitized, record)
	}
	return sanitized, nil
}

// AddMember invites an existing user, identified by email, with the given role.
func (s *Service) AddMember(ctx context.Context, projectID uuid.UUID, email string, role auth.Role) (*Member, error) {
	if !role.IsValid() {
		return nil, goerrors.New("invalid member role", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) || isRecordNotFound(err) {
			return nil, goerrors.New("user does not exist", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return nil, err
	}

	record, err := s.members.Upsert(ctx, projectID, user.ID, role)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not add project member")
	}
	return record, nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, projectID, userID uuid.UUID, role auth.Role) error {
	if !role.IsValid() {
		return goerrors.New("invalid member role", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	if err := s.members.UpdateRole(ctx, projectID, userID, role); err != nil {
		if goerrors.IsNotFound(err) || isRecordNotFound(err) {
			return goerrors.New("not a project member", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return err
	}
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return s.members.Remove(ctx, projectID, userID)
}

func isRecordNotFound(err error) bool {
	if repository.IsRecordNotFound(err) {
		return true
	}
	return errors.Is(err, sql.ErrNoRows)
}
