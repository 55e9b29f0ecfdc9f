package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
)

// Access describes who may call a route.
type Access int

const (
	PermitAll Access = iota
	Authenticated
	AdminOnly
)

// AccessRule binds a method and path pattern to an access level. An empty
// Method matches every method. Pattern is either an exact path or a prefix
// ending in "/**".
type AccessRule struct {
	Method  string
	Pattern string
	Access  Access
}

// DefaultAccessRules is the policy table of the account API. Order matters:
// the first matching rule decides.
var DefaultAccessRules = []AccessRule{
	{Method: fiber.MethodPost, Pattern: "/api/register", Access: PermitAll},
	{Method: fiber.MethodGet, Pattern: "/api/activate", Access: PermitAll},
	{Method: fiber.MethodPost, Pattern: "/api/authenticate", Access: PermitAll},
	{Method: fiber.MethodGet, Pattern: "/api/authenticate", Access: PermitAll},
	{Method: fiber.MethodPost, Pattern: "/api/account/reset-password/init", Access: PermitAll},
	{Method: fiber.MethodPost, Pattern: "/api/account/reset-password/finish", Access: PermitAll},
	{Method: fiber.MethodGet, Pattern: "/api/profile-info", Access: PermitAll},
	{Method: fiber.MethodGet, Pattern: "/management/health/**", Access: PermitAll},
	{Pattern: "/api/users/**", Access: AdminOnly},
	{Pattern: "/management/**", Access: AdminOnly},
	{Pattern: "/api/**", Access: Authenticated},
}

// Matches reports whether the rule applies to method and path.
func (r AccessRule) Matches(method, path string) bool {
	if r.Method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == r.Pattern
}

// Authorize evaluates rules against every request. Paths no rule matches are
// public.
func Authorize(rules []AccessRule) fiber.Handler {
	authenticated := auth.RequireAuthenticated()
	admin := auth.RequireAuthority(domain.AuthorityAdmin)

	return func(c *fiber.Ctx) error {
		// Fiber routes case-insensitively, so rules must match the same way.
		path := strings.ToLower(strings.TrimSuffix(c.Path(), "/"))
		if path == "" {
			path = "/"
		}
		for _, rule := range rules {
			if !rule.Matches(c.Method(), path) {
				continue
			}
			switch rule.Access {
			case Authenticated:
				return authenticated(c)
			case AdminOnly:
				return admin(c)
			default:
				return c.Next()
			}
		}
		return c.Next()
	}
}
