package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mcastellan/terravia-backend/pkg/errors"
)

func newUsersService(t *testing.T) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(setupUsersTestDB(t))
	svc, err := NewService(ServiceParams{Repo: repo})
	require.NoError(t, err)
	return svc, repo
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc, _ := newUsersService(t)

	_, err := svc.GetProfile(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateProfileTrimsAndUppercasesCountry(t *testing.T) {
	svc, repo := newUsersService(t)
	id := createTestUser(t, repo, "ana@example.com")

	firstName := "  Anabel "
	country := " ar "
	dto, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{
		FirstName: &firstName,
		Country:   &country,
	})
	require.NoError(t, err)
	assert.Equal(t, "Anabel", dto.FirstName)
	require.NotNil(t, dto.Country)
	assert.Equal(t, "AR", *dto.Country)
}

func TestUpdateProfileRejectsBlankName(t *testing.T) {
	svc, repo := newUsersService(t)
	id := createTestUser(t, repo, "ana@example.com")

	blank := "   "
	_, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{FirstName: &blank})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc, _ := newUsersService(t)

	name := "Anabel"
	_, err := svc.UpdateProfile(context.Background(), uuid.New(), UpdateProfileInput{FirstName: &name})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateProfileNoFieldsReturnsCurrentProfile(t *testing.T) {
	svc, repo := newUsersService(t)
	id := createTestUser(t, repo, "ana@example.com")

	dto, err := svc.UpdateProfile(context.Background(), id, UpdateProfileInput{})
	require.NoError(t, err)
	assert.Equal(t, "Ana", dto.FirstName)
}
