package dto

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

func validRegister() RegisterRequest {
	return RegisterRequest{
		Login:    "john.doe",
		Password: "secret",
		Email:    "john@example.com",
		LangKey:  "en",
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		field  string
	}{
		{name: "valid", mutate: func(*RegisterRequest) {}},
		{name: "missing login", mutate: func(r *RegisterRequest) { r.Login = "" }, field: "login"},
		{name: "login with spaces", mutate: func(r *RegisterRequest) { r.Login = "john doe" }, field: "login"},
		{name: "login too long", mutate: func(r *RegisterRequest) { r.Login = strings.Repeat("a", 51) }, field: "login"},
		{name: "short password", mutate: func(r *RegisterRequest) { r.Password = "abc" }, field: "password"},
		{name: "long password", mutate: func(r *RegisterRequest) { r.Password = strings.Repeat("p", 101) }, field: "password"},
		{name: "bad email", mutate: func(r *RegisterRequest) { r.Email = "not-an-email" }, field: "email"},
		{name: "missing email", mutate: func(r *RegisterRequest) { r.Email = "" }, field: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegister()
			tt.mutate(&req)

			err := Validate(req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var de *apperrors.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
			assert.Equal(t, apperrors.CodeValidationFailed, de.Code)
			assert.Contains(t, de.Details, tt.field)
		})
	}
}

func TestRegisterRequest_PasswordCountsRunes(t *testing.T) {
	req := validRegister()
	req.Password = "ßßßß"
	assert.NoError(t, req.Validate())
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, LoginRequest{Username: "admin", Password: "admin"}.Validate())
	assert.Error(t, LoginRequest{Password: "admin"}.Validate())
	assert.Error(t, LoginRequest{Username: "admin"}.Validate())
}

func TestManagedUserRequest_Validate(t *testing.T) {
	req := ManagedUserRequest{
		Login:       "jane",
		Email:       "jane@example.com",
		Authorities: []string{domain.AuthorityUser},
	}
	assert.NoError(t, req.Validate())

	req.Authorities = []string{domain.AuthorityUser, ""}
	err := Validate(req)
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Details, "authorities")
}

func TestManagedUserRequest_Input(t *testing.T) {
	req := ManagedUserRequest{ID: "x", Login: "jane", Activated: true, Authorities: []string{domain.AuthorityAdmin}}
	in := req.Input()
	assert.Equal(t, "x", in.ID)
	assert.Equal(t, "jane", in.Login)
	assert.True(t, in.Activated)
	assert.Equal(t, []string{domain.AuthorityAdmin}, in.Authorities)
}

func TestNewUserResponse_HidesSecrets(t *testing.T) {
	key := "k"
	resp := NewUserResponse(&domain.User{
		ID:            "1",
		Login:         "jane",
		PasswordHash:  "$2a$hash",
		ActivationKey: &key,
	})
	assert.Equal(t, "jane", resp.Login)
	assert.Equal(t, []string{}, resp.Authorities)
}

func TestKeyAndPasswordRequest_Validate(t *testing.T) {
	assert.NoError(t, KeyAndPasswordRequest{Key: "abc", NewPassword: "newpass"}.Validate())
	assert.Error(t, KeyAndPasswordRequest{NewPassword: "newpass"}.Validate())
	assert.Error(t, KeyAndPasswordRequest{Key: "abc", NewPassword: "x"}.Validate())
}

func TestLoggerLevelRequest_Validate(t *testing.T) {
	assert.NoError(t, LoggerLevelRequest{Level: "debug"}.Validate())
	assert.Error(t, LoggerLevelRequest{Level: "verbose"}.Validate())
}
