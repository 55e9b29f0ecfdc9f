package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Account        *handlers.AccountHandler
	UserJWT        *handlers.UserJWTHandler
	Users          *handlers.UsersHandler
	Management     *handlers.ManagementHandler
	Profile        *handlers.ProfileHandler
	AuthMiddleware *auth.AuthMiddleware
	// LoginLimiter guards POST /api/authenticate. Nil disables it.
	LoginLimiter fiber.Handler
	// AccessRules defaults to DefaultAccessRules.
	AccessRules []AccessRule
}

// RegisterRoutes wires HTTP routes. The token filter and the authorization
// stage run ahead of every handler.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	rules := cfg.AccessRules
	if rules == nil {
		rules = DefaultAccessRules
	}
	app.Use(cfg.AuthMiddleware.Handle, Authorize(rules))

	management := app.Group("/management")
	management.Get("/health", cfg.Health.Live)
	management.Get("/health/ready", cfg.Health.Ready)
	management.Get("/metrics", cfg.Management.Metrics)
	management.Get("/loggers", cfg.Management.Level)
	management.Put("/loggers", cfg.Management.SetLevel)

	api := app.Group("/api")
	api.Get("/profile-info", cfg.Profile.ProfileInfo)
	api.Post("/register", cfg.Account.Register)
	api.Get("/activate", cfg.Account.Activate)

	login := []fiber.Handler{cfg.UserJWT.Authorize}
	if cfg.LoginLimiter != nil {
		login = append([]fiber.Handler{cfg.LoginLimiter}, login...)
	}
	api.Post("/authenticate", login...)
	api.Get("/authenticate", cfg.UserJWT.IsAuthenticated)

	api.Get("/account", cfg.Account.Account)
	api.Post("/account", cfg.Account.SaveAccount)
	api.Post("/account/change-password", cfg.Account.ChangePassword)
	api.Post("/account/reset-password/init", cfg.Account.RequestPasswordReset)
	api.Post("/account/reset-password/finish", cfg.Account.FinishPasswordReset)

	users := api.Group("/users")
	users.Get("", cfg.Users.List)
	users.Post("", cfg.Users.Create)
	users.Put("", cfg.Users.Update)
	users.Get("/authorities", cfg.Users.Authorities)
	users.Get("/:login", cfg.Users.Get)
	users.Delete("/:login", cfg.Users.Delete)
}
