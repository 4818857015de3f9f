package project

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/taskforge-io/taskforge/auth"
)

// Projects is the project repository.
type Projects interface {
	repository.Repository[*Project]
}

// Members records the authorization edges the access guard consults.
type Members interface {
	FindRole(ctx context.Context, projectID, userID uuid.UUID) (auth.Role, error)
	List(ctx context.Context, projectID uuid.UUID) ([]*Member, error)
	Upsert(ctx context.Context, projectID, userID uuid.UUID, role auth.Role) (*Member, error)
	UpsertTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID, role auth.Role) (*Member, error)
	UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role auth.Role) error
	Remove(ctx context.Context, projectID, userID uuid.UUID) error
}

func NewProjectsRepository(db *bun.DB) Projects {
	return repository.NewRepository[*Project](db, repository.ModelHandlers[*Project]{
		NewRecord: func() *Project { return &Project{} },
		GetID: func(p *Project) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Project, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})
}

type members struct {
	db *bun.DB
}

var _ Members = (*members)(nil)

func NewMembersRepository(db *bun.DB) Members {
	return &members{db: db}
}

func (m *members) FindRole(ctx context.Context, projectID, userID uuid.UUID) (auth.Role, error) {
	record := &Member{}
	err := m.db.NewSelect().
		Model(record).
		Where("?TableAlias.project_id = ?", projectID).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"project_id": projectID.String(),
					"user_id":    userID.String(),
				})
		}
		return "", err
	}
	return record.Role, nil
}

func (m *members) List(ctx context.Context, projectID uuid.UUID) ([]*Member, error) {
	var records []*Member
	err := m.db.NewSelect().
		Model(&records).
		Relation("User").
		Where("?TableAlias.project_id = ?", projectID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (m *members) Upsert(ctx context.Context, projectID, userID uuid.UUID, role auth.Role) (*Member, error) {
	return m.UpsertTx(ctx, m.db, projectID, userID, role)
}

func (m *members) UpsertTx(ctx context.Context, tx bun.IDB, projectID, userID uuid.UUID, role auth.Role) (*Member, error) {
	record := &Member{
		ID:        uuid.New(),
		UserID:    userID,
		ProjectID: projectID,
		Role:      role,
	}

	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (user_id, project_id) DO UPDATE").
		Set("member_role = EXCLUDED.member_role").
		Set("updated_at = ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (m *members) UpdateRole(ctx context.Context, projectID, userID uuid.UUID, role auth.Role) error {
	res, err := m.db.NewUpdate().
		Model((*Member)(nil)).
		Set("member_role = ?", role).
		Set("updated_at = ?", time.Now()).
		Where("project_id = ?", projectID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"project_id": projectID.String(),
				"user_id":    userID.String(),
			})
	}
	return nil
}

func (m *members) Remove(ctx context.Context, projectID, userID uuid.UUID) error {
	_, err := m.db.NewDelete().
		Model((*Member)(nil)).
		Where("project_id = ?", projectID).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}
