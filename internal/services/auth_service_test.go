package services

import (
	"context"
	"testing"

	"livedesk/internal/config"
	"livedesk/internal/domain"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(users *fakeUserRepo) *AuthService {
	return NewAuthService(users, config.AuthConfig{
		JWTSecret:      "test-secret",
		AccessTTLHours: 1,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users)

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:       "Ada@Example.com",
		Password:    "correct horse",
		DisplayName: "Ada",
		Role:        domain.UserRoleAgent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, string(domain.UserRoleAgent), res.User.Role)

	login, err := svc.Login(context.Background(), LoginInput{
		Email:    "ada@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	claims, err := svc.ParseAccessToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, string(domain.UserRoleAgent), claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:       "ada@example.com",
		Password:    "correct horse",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "ada@example.com",
		Password: "battery staple",
	})
	assert.ErrorIs(t, err, livedesk_errors.ErrUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, livedesk_errors.ErrUnauthorized)
}

func TestRegisterRejectsReservedRoles(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())

	for _, role := range []domain.UserRole{domain.UserRoleAdmin, domain.UserRoleSystem} {
		_, err := svc.Register(context.Background(), RegisterInput{
			Email:       "ada@example.com",
			Password:    "correct horse",
			DisplayName: "Ada",
			Role:        role,
		})
		assert.ErrorIs(t, err, livedesk_errors.ErrInvalidInput)
	}
}

func TestLoginReactivatesAwayAgent(t *testing.T) {
	users := newFakeUserRepo()
	svc := newAuthService(users)

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:       "grace@desk.example.com",
		Password:    "correct horse",
		DisplayName: "Grace",
		Role:        domain.UserRoleAgent,
	})
	require.NoError(t, err)

	claims, err := svc.ParseAccessToken(res.AccessToken)
	require.NoError(t, err)

	var agent domain.User
	for _, u := range users.items {
		if u.ID.String() == claims.UserID {
			agent = u
		}
	}
	require.NoError(t, users.SetActive(context.Background(), agent.ID, false))

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "grace@desk.example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	row, err := users.GetByID(context.Background(), agent.ID)
	require.NoError(t, err)
	assert.True(t, row.IsActive)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())

	_, err := svc.ParseAccessToken("not-a-token")
	assert.ErrorIs(t, err, livedesk_errors.ErrUnauthorized)
}
