package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcastellan/terravia-backend/pkg/config"
)

func fastConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func TestHashAndVerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", fastConfig())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	valid, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("same-password", fastConfig())
	require.NoError(t, err)
	second, err := HashPassword("same-password", fastConfig())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	_, err := HashPassword("", fastConfig())
	assert.Error(t, err)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("whatever", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)

	_, err = VerifyPassword("whatever", "$bcrypt$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestParamsAreClampedToSaneBounds(t *testing.T) {
	hash, err := HashPassword("pw", config.PasswordConfig{
		ArgonMemoryKB:    1,
		ArgonTime:        0,
		ArgonParallelism: 0,
		ArgonSaltLen:     1,
		ArgonKeyLen:      1,
	})
	require.NoError(t, err)

	valid, err := VerifyPassword("pw", hash)
	require.NoError(t, err)
	assert.True(t, valid)
}
