package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-io/taskforge/auth"
)

type tokenConfig struct {
	accessSecret  string
	accessTTL     time.Duration
	refreshSecret string
	refreshTTL    time.Duration
	issuer        string
}

func (c tokenConfig) GetAccessTokenSecret() string      { return c.accessSecret }
func (c tokenConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c tokenConfig) GetRefreshTokenSecret() string     { return c.refreshSecret }
func (c tokenConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }
func (c tokenConfig) GetIssuer() string                 { return c.issuer }

func newTokenConfig() tokenConfig {
	return tokenConfig{
		accessSecret:  "access-secret",
		accessTTL:     time.Minute,
		refreshSecret: "refresh-secret",
		refreshTTL:    time.Hour,
		issuer:        "taskforge-test",
	}
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	ts := auth.NewTokenService(newTokenConfig(), nil)

	raw, err := ts.IssueAccessToken("8c3e9f7e-0db8-4b6c-86e3-7b5f0a1d9f11", auth.RoleMember)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := ts.ValidateAccess(raw)
	require.NoError(t, err)
	assert.Equal(t, "8c3e9f7e-0db8-4b6c-86e3-7b5f0a1d9f11", claims.UserID())
	assert.Equal(t, string(auth.RoleMember), claims.Role)

	id, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, "8c3e9f7e-0db8-4b6c-86e3-7b5f0a1d9f11", id.String())
}

func TestRefreshTokenCarriesNoRole(t *testing.T) {
	ts := auth.NewTokenService(newTokenConfig(), nil)

	raw, err := ts.IssueRefreshToken("8c3e9f7e-0db8-4b6c-86e3-7b5f0a1d9f11")
	require.NoError(t, err)

	claims, err := ts.ValidateRefresh(raw)
	require.NoError(t, err)
	assert.Empty(t, claims.Role)
}

func TestValidateRejectsCrossTokenUse(t *testing.T) {
	ts := auth.NewTokenService(newTokenConfig(), nil)

	access, err := ts.IssueAccessToken("8c3e9f7e-0db8-4b6c-86e3-7b5f0a1d9f11", auth.RoleAdmin)
	require.NoError(t, err)

	// An access token must never pass refresh validation, they are signed
	// with different secrets.
	_, err = ts.ValidateRefresh(access)
	assert.Error(t, err)
}

func TestValidateCollapsesFailures(t *testing.T) {
	cfg := newTokenConfig()
	ts := auth.NewTokenService(cfg, nil)

	expiredCfg := cfg
	expiredCfg.accessTTL = -time.Minute
	expired, err := auth.NewTokenService(expiredCfg, nil).IssueAccessToken("user-1", auth.RoleMember)
	require.NoError(t, err)

	otherCfg := cfg
	otherCfg.accessSecret = "some-other-secret"
	forged, err := auth.NewTokenService(otherCfg, nil).IssueAccessToken("user-1", auth.RoleMember)
	require.NoError(t, err)

	cases := map[string]string{
		"expired":   expired,
		"forged":    forged,
		"malformed": "not.a.token",
		"empty":     "",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ts.ValidateAccess(raw)
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, auth.TextCodeInvalidToken, richErr.TextCode)
			assert.Equal(t, goerrors.CodeUnauthorized, richErr.Code)
		})
	}
}

func TestValidateRejectsUnexpectedSigningMethod(t *testing.T) {
	cfg := newTokenConfig()
	ts := auth.NewTokenService(cfg, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
		"iss": cfg.issuer,
	})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.ValidateAccess(raw)
	assert.Error(t, err)
}
