package domain

import (
	"regexp"
	"slices"
	"time"
)

// Reserved logins.
const (
	SystemAccount  = "system"
	AnonymousUser  = "anonymoususer"
	DefaultLangKey = "en"
)

// Field limits shared by request validation and the services.
const (
	LoginMaxLength    = 50
	PasswordMinLength = 4
	PasswordMaxLength = 100
	KeyLength         = 20
)

// LoginPattern restricts the characters allowed in a login.
var LoginPattern = regexp.MustCompile(`^[_.@A-Za-z0-9-]*$`)

// User is the account record owned by persistence.
type User struct {
	ID             string
	Login          string
	PasswordHash   string
	FirstName      string
	LastName       string
	Email          string
	ImageURL       string
	Activated      bool
	LangKey        string
	ActivationKey  *string
	ResetKey       *string
	ResetDate      *time.Time
	Authorities    []string
	CreatedBy      string
	CreatedAt      time.Time
	LastModifiedBy string
	LastModifiedAt time.Time
}

// HasAuthority reports whether the user was granted the named authority.
func (u *User) HasAuthority(name string) bool {
	return slices.Contains(u.Authorities, name)
}

// ValidPasswordLength reports whether password fits the allowed bounds.
func ValidPasswordLength(password string) bool {
	n := len([]rune(password))
	return n >= PasswordMinLength && n <= PasswordMaxLength
}
