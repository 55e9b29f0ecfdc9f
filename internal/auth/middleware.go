package auth

import (
	"context"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	identityKey = "auth_identity"

	// AuthorizationHeader carries the bearer token on requests and on the login response.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the scheme marker expected in front of the token.
	BearerPrefix = "Bearer "
)

type identityCtxKey struct{}

// Identity is the authenticated caller for one request.
type Identity struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

// HasAuthority reports whether the identity carries the named authority.
func (i Identity) HasAuthority(name string) bool {
	return slices.Contains(i.Authorities, name)
}

// HasAnyAuthority reports whether the identity carries at least one of names.
func (i Identity) HasAnyAuthority(names ...string) bool {
	for _, name := range names {
		if i.HasAuthority(name) {
			return true
		}
	}
	return false
}

// AuthMiddleware resolves bearer tokens into an Identity. It never rejects a
// request: a missing or bad token just leaves the identity slot empty and the
// authorization stage decides what happens next.
type AuthMiddleware struct {
	tokens *TokenProvider
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenProvider, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, logger: logger}
}

// Handle runs the token check and always continues the chain.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := BearerToken(c.Get(AuthorizationHeader))
	if !ok {
		return c.Next()
	}

	if !m.tokens.ValidateToken(token) {
		m.logger.Debug("ignoring invalid bearer token", zap.String("path", c.Path()))
		return c.Next()
	}

	SetIdentity(c, m.tokens.Authentication(token))
	return c.Next()
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(BearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// SetIdentity installs the identity in the request slot and in the user
// context handed to services.
func SetIdentity(c *fiber.Ctx, identity Identity) {
	c.Locals(identityKey, identity)
	c.SetUserContext(ContextWithIdentity(c.UserContext(), identity))
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(identityKey).(Identity)
	if !ok || identity.Username == "" {
		return Identity{}, false
	}
	return identity, true
}

// ContextWithIdentity stores the identity in ctx.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromUserContext returns the identity stored by ContextWithIdentity.
func IdentityFromUserContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityCtxKey{}).(Identity)
	if !ok || identity.Username == "" {
		return Identity{}, false
	}
	return identity, true
}

// CurrentLogin returns the login of the caller in ctx, if any.
func CurrentLogin(ctx context.Context) (string, bool) {
	identity, ok := IdentityFromUserContext(ctx)
	return identity.Username, ok
}
