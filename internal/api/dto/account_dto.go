package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginRequest payload for POST /api/authenticate.
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// Validate will validate the payload
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Password, passwordRules...),
	)
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	IDToken string `json:"id_token"`
}

// RegisterRequest payload for POST /api/register.
type RegisterRequest struct {
	Login     string `json:"login"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	ImageURL  string `json:"imageUrl"`
	LangKey   string `json:"langKey"`
}

// Validate will validate the payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Login, loginRules...),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.FirstName, validation.Length(0, 50)),
		validation.Field(&r.LastName, validation.Length(0, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(5, 254), is.Email),
		validation.Field(&r.ImageURL, validation.Length(0, 256)),
		validation.Field(&r.LangKey, validation.Length(2, 6)),
	)
}

// AccountRequest payload for POST /api/account.
type AccountRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	ImageURL  string `json:"imageUrl"`
	LangKey   string `json:"langKey"`
}

// Validate will validate the payload
func (r AccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 50)),
		validation.Field(&r.LastName, validation.Length(0, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(5, 254), is.Email),
		validation.Field(&r.ImageURL, validation.Length(0, 256)),
		validation.Field(&r.LangKey, validation.Length(2, 6)),
	)
}

// PasswordChangeRequest payload for POST /api/account/change-password.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Validate will validate the payload
func (r PasswordChangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}

// ResetInitRequest payload for POST /api/account/reset-password/init.
type ResetInitRequest struct {
	Email string `json:"email"`
}

// Validate will validate the payload
func (r ResetInitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// KeyAndPasswordRequest payload for POST /api/account/reset-password/finish.
type KeyAndPasswordRequest struct {
	Key         string `json:"key"`
	NewPassword string `json:"newPassword"`
}

// Validate will validate the payload
func (r KeyAndPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Key, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}
