package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Logger takes a message plus alternating key/value pairs, matching the
// slog calling convention so an *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Mailer delivers rendered account messages. Implementations must not block
// request handling on delivery failures; the service logs and moves on.
type Mailer interface {
	SendEmailVerification(ctx context.Context, to, username, link string) error
	SendPasswordReset(ctx context.Context, to, username, link string) error
}

// UserStore is the persistence surface the Service and Access Guard consume.
// The bun-backed Users repository implements it; tests substitute fakes.
// Mutations that only touch housekeeping fields (tokens, expiries, password,
// refresh token) are targeted updates and never re-validate the full record.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Register(ctx context.Context, user *User) (*User, error)

	FindByVerificationToken(ctx context.Context, hash string, now time.Time) (*User, error)
	FindByResetToken(ctx context.Context, hash string, now time.Time) (*User, error)

	StoreVerificationToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error
	StoreResetToken(ctx context.Context, id uuid.UUID, hash string, expiry time.Time) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, clearReset bool) error

	StoreRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	// RotateRefreshToken swaps the stored refresh token only if it still
	// equals oldToken. Returns false when a concurrent rotation won.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error)
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { printLine("ERR", msg, args) }
func (d defLogger) Warn(msg string, args ...any)  { printLine("WRN", msg, args) }
func (d defLogger) Info(msg string, args ...any)  { printLine("INF", msg, args) }
func (d defLogger) Debug(msg string, args ...any) { printLine("DBG", msg, args) }

func printLine(level, msg string, args []any) {
	if len(args) == 0 {
		fmt.Printf("[%s] AUTH %s\n", level, msg)
		return
	}
	fmt.Printf("[%s] AUTH %s %v\n", level, msg, args)
}
