package handlers

import "github.com/gofiber/fiber/v2"

// ProfileHandler reports the active runtime profile to the frontend.
type ProfileHandler struct {
	env string
}

// NewProfileHandler returns a handler for the given environment name.
func NewProfileHandler(env string) *ProfileHandler {
	return &ProfileHandler{env: env}
}

// ProfileInfo handles GET /api/profile-info.
func (h *ProfileHandler) ProfileInfo(c *fiber.Ctx) error {
	profiles := []string{}
	if h.env != "" {
		profiles = append(profiles, h.env)
	}
	return c.JSON(fiber.Map{"activeProfiles": profiles})
}
