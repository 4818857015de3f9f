package auth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const serviceOpTimeout = time.Second * 10

// ServiceConfig carries the credential-lifecycle knobs the Service needs.
type ServiceConfig interface {
	GetTempTokenTTL() time.Duration
	GetVerifyEmailURL() string
	GetResetPasswordURL() string
}

// Service orchestrates the credential lifecycle: registration, login,
// token rotation, email verification and password reset.
type Service struct {
	store            UserStore
	tokens           *TokenService
	mailer           Mailer
	logger           Logger
	tempTokenTTL     time.Duration
	verifyEmailURL   string
	resetPasswordURL string
}

// NewService wires the auth service. The configuration is read once and
// treated as immutable for the process lifetime.
func NewService(store UserStore, tokens *TokenService, mailer Mailer, cfg ServiceConfig) *Service {
	return &Service{
		store:            store,
		tokens:           tokens,
		mailer:           mailer,
		logger:           defLogger{},
		tempTokenTTL:     cfg.GetTempTokenTTL(),
		verifyEmailURL:   strings.TrimRight(cfg.GetVerifyEmailURL(), "/"),
		resetPasswordURL: strings.TrimRight(cfg.GetResetPasswordURL(), "/"),
	}
}

func (s *Service) WithLogger(logger Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// RegisterInput is the shape the boundary hands to Register after payload
// validation has already run.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName string
}

// TokenPair is an access/refresh token couple as issued by login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult carries the sanitized user plus the issued session tokens.
type LoginResult struct {
	User *User `json:"user"`
	TokenPair
}

// Register creates the account, issues a verification secret and dispatches
// the verification mail. The returned record is sanitized.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during registration")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, serviceOpTimeout)
	defer cancel()

	taken, err := s.store.ExistsByEmailOrUsername(ctx, input.Email, input.Username)
	if err != nil {
		return nil, wrapInternal(err, "failed to check for existing user")
	}
	if taken {
		return nil, goerrors.New("user with this email or username already exists", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	user := &User{
		Email:         input.Email,
		Username:      input.Username,
		FullName:      input.FullName,
		PasswordHash:  hash,
		EmailVerified: false,
	}

	if id, err := hashid.NewUUID(input.Email); err == nil {
		user.ID = id
	}

	if user, err = s.store.Register(ctx, user); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	if err := s.issueVerification(ctx, user); err != nil {
		return nil, err
	}

	return user.Sanitize(), nil
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password collapse into one error so callers cannot probe for accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" {
		return nil, goerrors.New("email is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, serviceOpTimeout)
	defer cancel()

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials()
		}
		return nil, wrapInternal(err, "failed to look up user")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials()
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:      user.Sanitize(),
		TokenPair: *pair,
	}, nil
}

// Logout drops the stored refresh token. Safe to call repeatedly.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, serviceOpTimeout)
	defer cancel()

	if err := s.store.ClearRefreshToken(ctx, userID); err != nil {
		return wrapInternal(err, "failed to clear refresh token")
	}
	return nil
}

// Refresh exchanges a refresh token for a new pair. The stored value is the
// single source of truth: a token that no longer matches it is rejected even
// when its own signature and expiry are fine, and the swap to the new value
// is conditional so a refresh token is single-use under races.
func (s *Service) Refresh(ctx context.Context, incoming string) (*TokenPair, error) {
	if incoming == "" {
		return nil, ErrUnauthorized()
	}

	ctx, cancel := context.WithTimeout(ctx, serviceOpTimeout)
	defer cancel()

	claims, err := s.tokens.ValidateRefresh(incoming)
	if err != nil {
		return nil, ErrUnauthorized()
	}

	id, err := claims.UserUUID()
	if err != nil {
		return nil, ErrUnauthorized()
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, ErrUnauthorized()
	}

	if user.RefreshToken == "" || user.RefreshToken != incoming {
		s.logger.Warn("refresh token reuse detected", "user_id", user.ID.String())
		return nil, ErrUnauthorized()
	}

	access, err := s.tokens.IssueAccessToken(user.ID.String(), RoleMember)
	if err != nil {
		return nil, wrapInternal(err, "failed to issue access token")
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID.String())
	if err != nil {
		return nil, wrapInternal(err, "failed to issue refresh token")
	}

	swapped, err := s.store.RotateRefreshToken(ctx, user.ID, incoming, refresh)
	if err != nil {
		return nil, wrapInternal(err, "failed to rotate refresh token")
	}
	if !swapped {
		// A concurrent refresh already rotated the stored value.
		return nil, ErrUnauthorized()
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyEmail consumes a verification secret. Single-use: the stored hash
// and expiry are cleared on success.
func (s *Service) VerifyEmail(ctx context.Context, plaintext string) error {
	if plaintext == "" {
		return goerrors.New("email verification token is missing", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, serviceOpTimeout)
	defer cancel()

	user, err := s.store.FindByVerificationToken(ctx, HashForLookup(plaintext), time.Now())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.New("token is invalid or expired", goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest).
				WithTextCode(TextCodeTokenExpired)
		}
		return wrapInternal(err, "failed to look up verification token")
	}

	if !VerifyOneTimeSecret(plaintext, user.EmailVerificationToken) {
		return goerrors.New("token is invalid or expired", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeTokenExpired)
	}

	if err := s.store.MarkEmailVerified(ctx, user.ID); err != nil {
		return wrapInternal(err, "failed to mark email verified")
	}

	return nil
}

// ResendEmailVerification repeats the registration-time secret issuance.
func (s *Service) ResendEmailVerification(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, serviceOpTimeout)
	defer cancel()

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.New("user does not exist", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return wrapInternal(err, "failed to look up user")
	}

	if user.EmailVerified {
		return goerrors.New("email is already verified", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}

	return s.issueVerification(ctx, user)
}

// ForgotPassword issues a reset secret and mails the reset link.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, serviceOpTimeout)
	defer cancel()

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.New("user does not exist", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return wrapInternal(err, "failed to look up user")
	}

	secret, err := GenerateOneTimeSecret(s.tempTokenTTL)
	if err != nil {
		return wrapInternal(err, "failed to generate reset token")
	}

	if err := s.store.StoreResetToken(ctx, user.ID, secret.Hash, secret.ExpiresAt); err != nil {
		return wrapInternal(err, "failed to store reset token")
	}

	s.dispatchMail(ctx, "password reset", func(ctx context.Context) error {
		return s.mailer.SendPasswordReset(ctx, user.Email, user.Username, s.resetPasswordURL+"/"+secret.Plaintext)
	})

	return nil
}

// ResetForgotPassword consumes a reset secret and installs a new password.
// No authentication is required; possession of the secret is the proof.
func (s *Service) ResetForgotPassword(ctx context.Context, plaintext, newPassword string) error {
	if plaintext == "" {
		return goerrors.New("reset token is missing", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, serviceOpTimeout)
	defer cancel()

	user, err := s.store.FindByResetToken(ctx, HashForLookup(plaintext), time.Now())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.New("token is invalid or expired", goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest).
				WithTextCode(TextCodeTokenExpired)
		}
		return wrapInternal(err, "failed to look up reset token")
	}

	if !VerifyOneTimeSecret(plaintext, user.ForgotPasswordToken) {
		return goerrors.New("token is invalid or expired", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithTextCode(TextCodeTokenExpired)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	if err := s.store.UpdatePassword(ctx, user.ID, hash, true); err != nil {
		return wrapInternal(err, "failed to update password")
	}

	return nil
}

// ChangeCurrentPassword rotates the password of an authenticated user.
func (s *Service) ChangeCurrentPassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, serviceOpTimeout)
	defer cancel()

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return wrapInternal(err, "failed to look up user")
	}

	if err := ComparePasswordAndHash(oldPassword, user.PasswordHash); err != nil {
		return goerrors.New("invalid old password", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	if err := s.store.UpdatePassword(ctx, user.ID, hash, false); err != nil {
		return wrapInternal(err, "failed to update password")
	}

	return nil
}

func (s *Service) issueTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.ID.String(), RoleMember)
	if err != nil {
		return nil, wrapInternal(err, "failed to issue access token")
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID.String())
	if err != nil {
		return nil, wrapInternal(err, "failed to issue refresh token")
	}

	if err := s.store.StoreRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, wrapInternal(err, "failed to persist refresh token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// issueVerification mints a one-time secret, persists its digest and mails
// the plaintext link. Exactly one outbound message per call.
func (s *Service) issueVerification(ctx context.Context, user *User) error {
	secret, err := GenerateOneTimeSecret(s.tempTokenTTL)
	if err != nil {
		return wrapInternal(err, "failed to generate verification token")
	}

	if err := s.store.StoreVerificationToken(ctx, user.ID, secret.Hash, secret.ExpiresAt); err != nil {
		return wrapInternal(err, "failed to store verification token")
	}

	s.dispatchMail(ctx, "email verification", func(ctx context.Context) error {
		return s.mailer.SendEmailVerification(ctx, user.Email, user.Username, s.verifyEmailURL+"/"+secret.Plaintext)
	})

	return nil
}

// dispatchMail swallows delivery errors: registration and reset flows must
// succeed even when the message never sends.
func (s *Service) dispatchMail(ctx context.Context, kind string, send func(context.Context) error) {
	if s.mailer == nil {
		s.logger.Warn("no mailer configured, skipping outbound message", "kind", kind)
		return
	}

	if err := send(ctx); err != nil {
		s.logger.Error("outbound mail delivery failed", "kind", kind, "error", err)
	}
}
