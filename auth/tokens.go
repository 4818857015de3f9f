package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Claims is the JWT payload for both access and refresh tokens. Refresh
// tokens carry identity only; Role is populated for access tokens.
type Claims struct {
	jwt.RegisteredClaims
	UID  string `json:"uid,omitempty"`
	Role string `json:"role,omitempty"`
}

// UserID returns the user ID, falling back to the subject claim.
func (c *Claims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// UserUUID parses the user ID claim.
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID())
}

// TokenConfig is the subset of configuration the codec needs. It is read
// once at construction; the codec holds no mutable state afterwards.
type TokenConfig interface {
	GetAccessTokenSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenSecret() string
	GetRefreshTokenTTL() time.Duration
	GetIssuer() string
}

// TokenService mints and verifies the signed access and refresh tokens.
type TokenService struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	issuer        string
	logger        Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg TokenConfig, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		accessSecret:  []byte(cfg.GetAccessTokenSecret()),
		accessTTL:     cfg.GetAccessTokenTTL(),
		refreshSecret: []byte(cfg.GetRefreshTokenSecret()),
		refreshTTL:    cfg.GetRefreshTokenTTL(),
		issuer:        cfg.GetIssuer(),
		logger:        logger,
	}
}

// IssueAccessToken signs a short-lived token carrying identity and role.
func (ts *TokenService) IssueAccessToken(userID string, role Role) (string, error) {
	return ts.sign(userID, string(role), ts.accessSecret, ts.accessTTL)
}

// IssueRefreshToken signs a longer-lived token carrying identity only.
func (ts *TokenService) IssueRefreshToken(userID string) (string, error) {
	return ts.sign(userID, "", ts.refreshSecret, ts.refreshTTL)
}

// ValidateAccess verifies an access token and returns its claims.
func (ts *TokenService) ValidateAccess(raw string) (*Claims, error) {
	return ts.validate(raw, ts.accessSecret)
}

// ValidateRefresh verifies a refresh token and returns its claims.
func (ts *TokenService) ValidateRefresh(raw string) (*Claims, error) {
	return ts.validate(raw, ts.refreshSecret)
}

func (ts *TokenService) sign(userID, role string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:  userID,
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// validate collapses signature mismatch, expiry and decode failures into one
// error kind; callers cannot tell a stale token from a forged one.
func (ts *TokenService) validate(raw string, secret []byte) (*Claims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, parserOptions...)

	if err != nil {
		return nil, ErrInvalidToken()
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("token validate could not decode claims")
	return nil, ErrInvalidToken()
}
