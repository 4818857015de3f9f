package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-io/taskforge/auth"
)

func TestGenerateOneTimeSecret(t *testing.T) {
	secret, err := auth.GenerateOneTimeSecret(time.Minute * 20)
	require.NoError(t, err)

	assert.Len(t, secret.Plaintext, 40, "20 random bytes hex encoded")
	assert.Len(t, secret.Hash, 64, "sha256 hex digest")
	assert.NotEqual(t, secret.Plaintext, secret.Hash)
	assert.WithinDuration(t, time.Now().Add(time.Minute*20), secret.ExpiresAt, time.Second*5)

	other, err := auth.GenerateOneTimeSecret(time.Minute * 20)
	require.NoError(t, err)
	assert.NotEqual(t, secret.Plaintext, other.Plaintext)
}

func TestHashForLookupIsDeterministic(t *testing.T) {
	a := auth.HashForLookup("some-plaintext")
	b := auth.HashForLookup("some-plaintext")
	assert.Equal(t, a, b)

	c := auth.HashForLookup("other-plaintext")
	assert.NotEqual(t, a, c)
}

func TestVerifyOneTimeSecret(t *testing.T) {
	secret, err := auth.GenerateOneTimeSecret(time.Minute)
	require.NoError(t, err)

	assert.True(t, auth.VerifyOneTimeSecret(secret.Plaintext, secret.Hash))
	assert.False(t, auth.VerifyOneTimeSecret("wrong-value", secret.Hash))
	assert.False(t, auth.VerifyOneTimeSecret(secret.Plaintext, ""))
	assert.False(t, auth.VerifyOneTimeSecret("", secret.Hash))
}
