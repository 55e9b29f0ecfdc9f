package handlers

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	totalCountHeader = "X-Total-Count"
)

// UsersHandler exposes admin user management.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.ManagedUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.CreateUser(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	c.Location("/api/users/" + url.PathEscape(user.Login))
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// Update handles PUT /api/users.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.ManagedUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateUser(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// List handles GET /api/users?page=&size=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", defaultPageSize)
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	if page > math.MaxInt32/size {
		return apperrors.NewBadRequest(apperrors.CodeBadRequest, "page out of range")
	}

	users, total, err := h.users.ListUsers(c.UserContext(), page, size)
	if err != nil {
		return err
	}

	c.Set(totalCountHeader, strconv.Itoa(total))
	if link := paginationLink(c.Path(), page, size, total); link != "" {
		c.Set(fiber.HeaderLink, link)
	}
	return c.JSON(dto.NewUserResponses(users))
}

// Get handles GET /api/users/:login.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	login, err := loginParam(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetUser(c.UserContext(), login)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Delete handles DELETE /api/users/:login.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	login, err := loginParam(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), login); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Authorities handles GET /api/users/authorities.
func (h *UsersHandler) Authorities(c *fiber.Ctx) error {
	names, err := h.users.Authorities(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(names)
}

func loginParam(c *fiber.Ctx) (string, error) {
	login, err := url.PathUnescape(c.Params("login"))
	if err != nil || login == "" {
		return "", apperrors.NewBadRequest(apperrors.CodeBadRequest, "invalid login")
	}
	return login, nil
}

// paginationLink renders an RFC 5988 Link header with next, prev, last and
// first relations.
func paginationLink(path string, page, size, total int) string {
	lastPage := 0
	if total > 0 {
		lastPage = (total - 1) / size
	}

	ref := func(p int, rel string) string {
		return fmt.Sprintf(`<%s?page=%d&size=%d>; rel="%s"`, path, p, size, rel)
	}

	var links []string
	if page < lastPage {
		links = append(links, ref(page+1, "next"))
	}
	if page > 0 {
		links = append(links, ref(page-1, "prev"))
	}
	links = append(links, ref(lastPage, "last"), ref(0, "first"))
	return strings.Join(links, ",")
}
