package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcastellan/terravia-backend/pkg/config"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "terravia-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()

	token, err := MintAccessToken(testConfig(), now, AccessTokenPayload{
		UserID: userID,
		Email:  "ana@example.com",
		Role:   enums.UserRoleAgent,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testConfig(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, enums.UserRoleAgent, claims.Role)
	assert.Equal(t, "terravia-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := MintAccessToken(testConfig(), time.Now().UTC(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleClient,
	})
	require.NoError(t, err)

	other := testConfig()
	other.Secret = "different-secret"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := MintAccessToken(testConfig(), time.Now().UTC(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleClient,
	})
	require.NoError(t, err)

	other := testConfig()
	other.Issuer = "somebody-else"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Now().UTC().Add(-2 * time.Hour)
	token, err := MintAccessToken(testConfig(), issuedAt, AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleClient,
	})
	require.NoError(t, err)

	_, err = ParseAccessToken(testConfig(), token)
	assert.Error(t, err)
}

func TestMintRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(testConfig(), time.Now().UTC(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRole("SUPERUSER"),
	})
	assert.Error(t, err)
}

func TestMintKeepsProvidedJTI(t *testing.T) {
	jti := uuid.NewString()
	token, err := MintAccessToken(testConfig(), time.Now().UTC(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleClient,
		JTI:    jti,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testConfig(), token)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
}
