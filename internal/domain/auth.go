package domain

// Authority names.
const (
	AuthorityAdmin     = "ROLE_ADMIN"
	AuthorityUser      = "ROLE_USER"
	AuthorityAnonymous = "ROLE_ANONYMOUS"
)

// Authority is a named grant attached to users.
type Authority struct {
	Name string
}
