package dto

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
)

// ManagedUserRequest payload for POST and PUT /api/users.
type ManagedUserRequest struct {
	ID          string   `json:"id"`
	Login       string   `json:"login"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	ImageURL    string   `json:"imageUrl"`
	Activated   bool     `json:"activated"`
	LangKey     string   `json:"langKey"`
	Authorities []string `json:"authorities"`
}

// Validate will validate the payload
func (r ManagedUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Login, loginRules...),
		validation.Field(&r.FirstName, validation.Length(0, 50)),
		validation.Field(&r.LastName, validation.Length(0, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(5, 254), is.Email),
		validation.Field(&r.ImageURL, validation.Length(0, 256)),
		validation.Field(&r.LangKey, validation.Length(2, 6)),
		validation.Field(&r.Authorities, validation.By(nonBlankStrings)),
	)
}

// Input converts the request to the service input.
func (r ManagedUserRequest) Input() service.ManagedUserInput {
	return service.ManagedUserInput{
		ID:          r.ID,
		Login:       r.Login,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		ImageURL:    r.ImageURL,
		LangKey:     r.LangKey,
		Activated:   r.Activated,
		Authorities: r.Authorities,
	}
}

func nonBlankStrings(value interface{}) error {
	names, _ := value.([]string)
	for _, name := range names {
		if name == "" {
			return errors.New("must not contain blank entries")
		}
	}
	return nil
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID               string    `json:"id"`
	Login            string    `json:"login"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	ImageURL         string    `json:"imageUrl"`
	Activated        bool      `json:"activated"`
	LangKey          string    `json:"langKey"`
	Authorities      []string  `json:"authorities"`
	CreatedBy        string    `json:"createdBy"`
	CreatedDate      time.Time `json:"createdDate"`
	LastModifiedBy   string    `json:"lastModifiedBy"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

// NewUserResponse maps a domain user; secrets and keys are never exposed.
func NewUserResponse(u *domain.User) UserResponse {
	authorities := u.Authorities
	if authorities == nil {
		authorities = []string{}
	}
	return UserResponse{
		ID:               u.ID,
		Login:            u.Login,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		ImageURL:         u.ImageURL,
		Activated:        u.Activated,
		LangKey:          u.LangKey,
		Authorities:      authorities,
		CreatedBy:        u.CreatedBy,
		CreatedDate:      u.CreatedAt,
		LastModifiedBy:   u.LastModifiedBy,
		LastModifiedDate: u.LastModifiedAt,
	}
}

// NewUserResponses maps a page of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// LoggerLevelRequest payload for PUT /management/loggers.
type LoggerLevelRequest struct {
	Level string `json:"level"`
}

// Validate will validate the payload
func (r LoggerLevelRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Level, validation.Required,
			validation.In("debug", "info", "warn", "error", "dpanic", "panic", "fatal",
				"DEBUG", "INFO", "WARN", "ERROR", "DPANIC", "PANIC", "FATAL")),
	)
}
