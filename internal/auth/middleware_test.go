package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityEchoApp(t *testing.T, tp *TokenProvider) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Use(NewAuthMiddleware(tp, nil).Handle)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		login, _ := CurrentLogin(c.UserContext())
		return c.JSON(fiber.Map{
			"authenticated": ok,
			"username":      identity.Username,
			"authorities":   identity.Authorities,
			"current_login": login,
		})
	})
	return app
}

type whoami struct {
	Authenticated bool     `json:"authenticated"`
	Username      string   `json:"username"`
	Authorities   []string `json:"authorities"`
	CurrentLogin  string   `json:"current_login"`
}

func callWhoami(t *testing.T, app *fiber.App, header string) whoami {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set(AuthorizationHeader, header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out whoami
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tp := newTestProvider(t, "secret-a")
	token, err := tp.CreateToken(Identity{Username: "admin", Authorities: []string{"ROLE_ADMIN", "ROLE_USER"}}, false)
	require.NoError(t, err)

	got := callWhoami(t, identityEchoApp(t, tp), BearerPrefix+token)

	assert.True(t, got.Authenticated)
	assert.Equal(t, "admin", got.Username)
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, got.Authorities)
	assert.Equal(t, "admin", got.CurrentLogin)
}

func TestAuthMiddleware_PassesThroughWithoutIdentity(t *testing.T) {
	tp := newTestProvider(t, "secret-a")
	foreign := newTestProvider(t, "secret-b")
	foreignToken, err := foreign.CreateToken(Identity{Username: "admin"}, false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header"},
		{name: "empty bearer", header: "Bearer "},
		{name: "basic scheme", header: "Basic YWRtaW46YWRtaW4="},
		{name: "lowercase scheme", header: "bearer " + foreignToken},
		{name: "garbage token", header: "Bearer garbage"},
		{name: "foreign signature", header: "Bearer " + foreignToken},
	}

	app := identityEchoApp(t, tp)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := callWhoami(t, app, tt.header)
			assert.False(t, got.Authenticated)
			assert.Empty(t, got.Username)
			assert.Empty(t, got.CurrentLogin)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc.def.ghi", token: "abc.def.ghi", ok: true},
		{header: "Bearer   abc  ", token: "abc", ok: true},
		{header: "Bearer ", ok: false},
		{header: "Bearer", ok: false},
		{header: "Token abc", ok: false},
		{header: "", ok: false},
	}

	for _, tt := range tests {
		token, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestIdentity_HasAnyAuthority(t *testing.T) {
	identity := Identity{Username: "user", Authorities: []string{"ROLE_USER"}}

	assert.True(t, identity.HasAuthority("ROLE_USER"))
	assert.False(t, identity.HasAuthority("ROLE_ADMIN"))
	assert.True(t, identity.HasAnyAuthority("ROLE_ADMIN", "ROLE_USER"))
	assert.False(t, identity.HasAnyAuthority())
}
