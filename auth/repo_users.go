package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Housekeeping updates touch only the named columns on purpose: a partial
// mutation must never trip validation of unrelated fields.
var storeVerificationTokenSQL = `UPDATE "users" AS "usr"
SET
	"email_verification_token" = ?,
	"email_verification_expiry" = ?,
	"updated_at" = ?
WHERE "usr"."id" = ?;`

var storeResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"forgot_password_token" = ?,
	"forgot_password_expiry" = ?,
	"updated_at" = ?
WHERE "usr"."id" = ?;`

var markEmailVerifiedSQL = `UPDATE "users" AS "usr"
SET
	"is_email_verified" = TRUE,
	"email_verification_token" = '',
	"email_verification_expiry" = NULL,
	"updated_at" = ?
WHERE "usr"."id" = ?;`

// Users exposes the credential store. It layers the generic repository CRUD
// with the partial-update operations the credential lifecycle needs.
type Users interface {
	repository.Repository[*User]
	UserStore
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users     = (*users)(nil)
	_ UserStore = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.Create(ctx, user)
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.findOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id)
	})
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.findOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.email = ?", email)
	})
}

func (a *users) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	count, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		WhereOr("?TableAlias.username = ?", username).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *users) FindByVerificationToken(ctx context.Context, hash string, now time.Time) (*User, error) {
	if hash == "" {
		return nil, repository.NewRecordNotFound()
	}
	return a.findOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("?TableAlias.email_verification_token = ?", hash).
			Where("?TableAlias.email_verification_expiry > ?", now)
	})
}

func (a *users) FindByResetToken(ctx context.Context, hash string, now time.Time) (*User, error) {
	if hash == "" {
		return nil, repository.NewRecordNotFound()
	}
	return a.findOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("?TableAlias.forgot_password_token = ?", hash).
			Where("?TableAlias.forgot_password_expiry > ?", now)
	})
}

func (a *users) StoreVerificationToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error {
	_, err := a.db.NewRaw(storeVerificationTokenSQL, hash, expiry, time.Now(), id).Exec(ctx)
	return err
}

func (a *users) StoreResetToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error {
	_, err := a.db.NewRaw(storeResetTokenSQL, hash, expiry, time.Now(), id).Exec(ctx)
	return err
}

func (a *users) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewRaw(markEmailVerifiedSQL, time.Now(), id).Exec(ctx)
	return err
}

func (a *users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, clearReset bool) error {
	q := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id)

	if clearReset {
		q = q.
			Set("forgot_password_token = ''").
			Set("forgot_password_expiry = NULL")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, id)
}

func (a *users) StoreRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("refresh_token = ?", token).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowsAffected(res, id)
}

// RotateRefreshToken is a compare-and-swap: the write only lands while the
// stored value still matches oldToken, which makes a refresh token
// single-use under concurrent rotation.
func (a *users) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error) {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("refresh_token = ?", newToken).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("refresh_token = ?", oldToken).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (a *users) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("refresh_token = ''").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *users) findOne(ctx context.Context, apply func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	record := &User{}
	err := apply(a.db.NewSelect().Model(record)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}
	return record, nil
}

func requireRowsAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}
	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
