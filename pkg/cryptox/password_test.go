package cryptox_test

import (
	"testing"

	"github.com/crowdwork/taskd/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := cryptox.HashPassword("longenough1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEqual(t, "longenough1", hash)

	require.True(t, cryptox.VerifyPassword("longenough1", hash))
	require.False(t, cryptox.VerifyPassword("wrongpassword", hash))
}

func TestHashPasswordIsSalted(t *testing.T) {
	t.Parallel()

	a, err := cryptox.HashPassword("same-input")
	require.NoError(t, err)
	b, err := cryptox.HashPassword("same-input")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.True(t, cryptox.VerifyPassword("same-input", a))
	require.True(t, cryptox.VerifyPassword("same-input", b))
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	t.Parallel()

	require.False(t, cryptox.VerifyPassword("anything", ""))
	require.False(t, cryptox.VerifyPassword("anything", "not-a-bcrypt-digest"))
}
