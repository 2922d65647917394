package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("correct horse battery stable", hash))
	assert.False(t, CheckPasswordHash("", hash))
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("pw")
	require.NoError(t, err)
	b, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
