package validators

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
)

type signupBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"ana@example.com","password":"supersecret"}`))

	var body signupBody
	require.NoError(t, DecodeJSONBody(r, &body))
	assert.Equal(t, "ana@example.com", body.Email)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"ana@example.com","password":"supersecret","role":"ADMIN"}`))

	var body signupBody
	err := DecodeJSONBody(r, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDecodeJSONBodyReportsFieldsByJSONTag(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"not-an-email","password":"short"}`))

	var body signupBody
	err := DecodeJSONBody(r, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 8", details["password"])
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=30", nil)
	value, err := ParseQueryInt(r, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 30, value)

	r = httptest.NewRequest("GET", "/", nil)
	value, err = ParseQueryInt(r, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, value)

	r = httptest.NewRequest("GET", "/?limit=999", nil)
	_, err = ParseQueryInt(r, "limit", 25, 1, 100)
	require.Error(t, err)

	r = httptest.NewRequest("GET", "/?limit=abc", nil)
	_, err = ParseQueryInt(r, "limit", 25, 1, 100)
	require.Error(t, err)
}

func TestParseQueryBool(t *testing.T) {
	r := httptest.NewRequest("GET", "/?unread=true", nil)
	value, err := ParseQueryBool(r, "unread")
	require.NoError(t, err)
	assert.True(t, value)

	r = httptest.NewRequest("GET", "/", nil)
	value, err = ParseQueryBool(r, "unread")
	require.NoError(t, err)
	assert.False(t, value)

	r = httptest.NewRequest("GET", "/?unread=maybe", nil)
	_, err = ParseQueryBool(r, "unread")
	require.Error(t, err)
}

func TestParseQueryTime(t *testing.T) {
	r := httptest.NewRequest("GET", "/?from=2026-05-01", nil)
	value, err := ParseQueryTime(r, "from")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), value.UTC())

	r = httptest.NewRequest("GET", "/?from=2026-05-01T10:30:00Z", nil)
	value, err = ParseQueryTime(r, "from")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, 10, value.UTC().Hour())

	r = httptest.NewRequest("GET", "/", nil)
	value, err = ParseQueryTime(r, "from")
	require.NoError(t, err)
	assert.Nil(t, value)

	r = httptest.NewRequest("GET", "/?from=yesterday", nil)
	_, err = ParseQueryTime(r, "from")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
