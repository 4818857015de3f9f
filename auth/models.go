package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the credential-bearing identity record. Password and token
// material never leave this package unsanitized.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email        string    `bun:"email,notnull,unique" json:"email,omitempty"`
	Username     string    `bun:"username,notnull,unique" json:"username,omitempty"`
	FullName     string    `bun:"full_name" json:"full_name,omitempty"`
	AvatarURL    string    `bun:"avatar_url" json:"avatar_url,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`

	EmailVerified           bool       `bun:"is_email_verified" json:"is_email_verified"`
	EmailVerificationToken  string     `bun:"email_verification_token" json:"-"`
	EmailVerificationExpiry *time.Time `bun:"email_verification_expiry,nullzero" json:"-"`

	ForgotPasswordToken  string     `bun:"forgot_password_token" json:"-"`
	ForgotPasswordExpiry *time.Time `bun:"forgot_password_expiry,nullzero" json:"-"`

	RefreshToken string `bun:"refresh_token" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Sanitize returns a copy with every secret-bearing field stripped. Any
// record that leaves the service boundary goes through here.
func (u *User) Sanitize() *User {
	if u == nil {
		return nil
	}

	out := *u
	out.PasswordHash = ""
	out.RefreshToken = ""
	out.EmailVerificationToken = ""
	out.EmailVerificationExpiry = nil
	out.ForgotPasswordToken = ""
	out.ForgotPasswordExpiry = nil
	return &out
}

// HasPendingVerification reports whether an unexpired verification secret
// is outstanding.
func (u *User) HasPendingVerification(now time.Time) bool {
	return u.EmailVerificationToken != "" &&
		u.EmailVerificationExpiry != nil &&
		u.EmailVerificationExpiry.After(now)
}
