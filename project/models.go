package project

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/taskforge-io/taskforge/auth"
)

// Project is a container of work owned by its creator.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`

	ID          uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name        string     `bun:"name,notnull" json:"name,omitempty"`
	Description string     `bun:"description" json:"description,omitempty"`
	CreatedBy   uuid.UUID  `bun:"created_by,notnull,type:uuid" json:"created_by,omitempty"`
	CreatedAt   *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt   *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Member is the (user, project, role) authorization edge. At most one row
// exists per (user, project) pair.
type Member struct {
	bun.BaseModel `bun:"table:project_members,alias:pmb"`

	ID        uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID    uuid.UUID  `bun:"user_id,notnull,type:uuid,unique:user_project" json:"user_id,omitempty"`
	ProjectID uuid.UUID  `bun:"project_id,notnull,type:uuid,unique:user_project" json:"project_id,omitempty"`
	Role      auth.Role  `bun:"member_role,notnull" json:"role,omitempty"`
	User      *auth.User `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
