package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/mcastellan/terravia-backend/pkg/auth"
	"github.com/mcastellan/terravia-backend/pkg/config"
	"github.com/mcastellan/terravia-backend/pkg/enums"
)

func authTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "terravia-test",
		ExpirationMinutes: 15,
	}
}

func TestAuthSeedsContextFromBearerToken(t *testing.T) {
	userID := uuid.New()
	token, err := pkgauth.MintAccessToken(authTestConfig(), time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Email:  "ana@example.com",
		Role:   enums.UserRoleAgent,
	})
	require.NoError(t, err)

	var gotUserID, gotRole string
	handler := Auth(authTestConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	}))

	r := httptest.NewRequest("GET", "/api/orders", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), gotUserID)
	assert.Equal(t, "SALES_AGENT", gotRole)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler := Auth(authTestConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	r := httptest.NewRequest("GET", "/api/orders", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsTamperedToken(t *testing.T) {
	token, err := pkgauth.MintAccessToken(authTestConfig(), time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleClient,
	})
	require.NoError(t, err)

	handler := Auth(authTestConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	r := httptest.NewRequest("GET", "/api/orders", nil)
	r.Header.Set("Authorization", "Bearer "+token+"tampered")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
