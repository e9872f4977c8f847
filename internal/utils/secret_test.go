package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSecretRoundTrip(t *testing.T) {
	hash, err := HashSecret("hunter2", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifySecret(hash, "hunter2"))
	assert.False(t, VerifySecret(hash, "hunter3"))
	assert.False(t, VerifySecret("not-a-hash", "hunter2"))
}
