package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

func adminCtx() context.Context {
	return auth.ContextWithIdentity(context.Background(), auth.Identity{
		Username:    "admin",
		Authorities: []string{domain.AuthorityAdmin},
	})
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.CreateUser(adminCtx(), ManagedUserInput{
		Login:       "NewUser",
		Email:       "new@example.com",
		Authorities: []string{domain.AuthorityUser, domain.AuthorityUser},
	})
	require.NoError(t, err)

	assert.Equal(t, "newuser", user.Login)
	assert.True(t, user.Activated)
	assert.Equal(t, domain.DefaultLangKey, user.LangKey)
	assert.Equal(t, []string{domain.AuthorityUser}, user.Authorities)
	require.NotNil(t, user.ResetKey)
	require.NotNil(t, user.ResetDate)
	assert.Equal(t, "admin", user.CreatedBy)

	require.Len(t, f.dispatched, 1)
	assert.Equal(t, events.EventUserCreated, f.dispatched[0].Type)

	// the invitation reset key works like a requested one
	_, err = f.accounts.CompletePasswordReset(context.Background(), "chosen", *user.ResetKey)
	require.NoError(t, err)
	_, err = f.accounts.Authenticate(context.Background(), "newuser", "chosen")
	require.NoError(t, err)
}

func TestCreateUser_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	_, err := f.users.CreateUser(ctx, ManagedUserInput{Login: "taken", Email: "taken@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   ManagedUserInput
		code string
	}{
		{name: "id set", in: ManagedUserInput{ID: "x", Login: "a", Email: "a@example.com"}, code: CodeIDExists},
		{name: "login used", in: ManagedUserInput{Login: "TAKEN", Email: "b@example.com"}, code: CodeLoginAlreadyUsed},
		{name: "email used", in: ManagedUserInput{Login: "c", Email: "Taken@example.com"}, code: CodeEmailAlreadyUsed},
		{name: "unknown authority", in: ManagedUserInput{Login: "d", Email: "d@example.com", Authorities: []string{"ROLE_ROOT"}}, code: CodeUnknownAuthority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.CreateUser(ctx, tt.in)
			requireCode(t, err, http.StatusBadRequest, tt.code)
		})
	}
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	created, err := f.users.CreateUser(ctx, ManagedUserInput{Login: "lisa", Email: "lisa@example.com", Authorities: []string{domain.AuthorityUser}})
	require.NoError(t, err)
	_, err = f.users.CreateUser(ctx, ManagedUserInput{Login: "mike", Email: "mike@example.com"})
	require.NoError(t, err)

	_, err = f.users.UpdateUser(ctx, ManagedUserInput{ID: created.ID, Login: "mike", Email: "lisa@example.com"})
	requireCode(t, err, http.StatusBadRequest, CodeLoginAlreadyUsed)

	_, err = f.users.UpdateUser(ctx, ManagedUserInput{ID: "missing", Login: "zed", Email: "zed@example.com"})
	requireCode(t, err, http.StatusNotFound, apperrors.CodeNotFound)

	updated, err := f.users.UpdateUser(ctx, ManagedUserInput{
		ID:          created.ID,
		Login:       "lisa2",
		Email:       "lisa@example.com",
		Activated:   false,
		LangKey:     "de",
		Authorities: []string{domain.AuthorityAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, "lisa2", updated.Login)
	assert.False(t, updated.Activated)

	got, err := f.users.GetUser(ctx, "lisa2")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.AuthorityAdmin}, got.Authorities)
	assert.Equal(t, "de", got.LangKey)
}

func TestDeleteUser_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	_, err := f.users.CreateUser(ctx, ManagedUserInput{Login: "nina", Email: "nina@example.com"})
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteUser(ctx, "nina"))
	require.NoError(t, f.users.DeleteUser(ctx, "nina"))

	_, err = f.users.GetUser(ctx, "nina")
	requireCode(t, err, http.StatusNotFound, apperrors.CodeNotFound)
}

func TestListUsers_HidesAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	for _, login := range []string{"anonymoususer", "oscar", "paul", "quinn"} {
		_, err := f.users.CreateUser(ctx, ManagedUserInput{Login: login, Email: login + "@example.com"})
		require.NoError(t, err)
	}

	page, total, err := f.users.ListUsers(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "oscar", page[0].Login)

	page, _, err = f.users.ListUsers(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "quinn", page[0].Login)
}

func TestAuthorities(t *testing.T) {
	f := newFixture(t)

	names, err := f.users.Authorities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{domain.AuthorityAdmin, domain.AuthorityUser}, names)
}

func TestRemoveNotActivatedUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Register(ctx, registerInput("stale"))
	require.NoError(t, err)
	activeUser(t, f, "active")

	f.clock.Advance(2 * 24 * time.Hour)
	_, err = f.accounts.Register(ctx, registerInput("fresh"))
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)
	removed, err := f.users.RemoveNotActivatedUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = f.users.RemoveNotActivatedUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	_, err = f.users.GetUser(ctx, "stale")
	requireCode(t, err, http.StatusNotFound, "")
	_, err = f.users.GetUser(ctx, "fresh")
	require.NoError(t, err)
	_, err = f.users.GetUser(ctx, "active")
	require.NoError(t, err)
}
