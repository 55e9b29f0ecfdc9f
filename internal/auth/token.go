package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/account-service/internal/config"
)

// Reasons a token is rejected. They never leave the process: ValidateToken
// folds all of them into false.
var (
	ErrTokenEmpty       = errors.New("token is empty")
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenUnsupported = errors.New("token signing method is not supported")
	ErrTokenSignature   = errors.New("token signature is invalid")
	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenClaims      = errors.New("token claims are invalid")
)

var signingMethod = jwt.SigningMethodHS512

// Claims describes the JWT payload.
type Claims struct {
	Authorities string `json:"auth"`
	jwt.RegisteredClaims
}

// TokenProvider issues and validates stateless session tokens.
// It holds no mutable state after construction.
type TokenProvider struct {
	secret        []byte
	ttl           time.Duration
	rememberMeTTL time.Duration
	now           func() time.Time
	onInvalid     func(error)
}

// TokenOption customizes a TokenProvider.
type TokenOption func(*TokenProvider)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) TokenOption {
	return func(tp *TokenProvider) {
		if now != nil {
			tp.now = now
		}
	}
}

// WithInvalidTokenHook is called with the rejection reason of every token
// that fails validation.
func WithInvalidTokenHook(fn func(error)) TokenOption {
	return func(tp *TokenProvider) {
		tp.onInvalid = fn
	}
}

// NewTokenProvider builds a provider from the auth configuration.
func NewTokenProvider(cfg config.AuthConfig, opts ...TokenOption) (*TokenProvider, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	ttl := cfg.TokenValidity()
	rememberMeTTL := cfg.TokenValidityRememberMe()
	if ttl <= 0 {
		return nil, errors.New("token validity must be positive")
	}
	if rememberMeTTL <= ttl {
		return nil, errors.New("remember-me token validity must exceed token validity")
	}

	tp := &TokenProvider{
		secret:        []byte(cfg.JWTSecret),
		ttl:           ttl,
		rememberMeTTL: rememberMeTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(tp)
	}
	return tp, nil
}

// TTL returns the lifetime applied by CreateToken.
func (tp *TokenProvider) TTL(rememberMe bool) time.Duration {
	if rememberMe {
		return tp.rememberMeTTL
	}
	return tp.ttl
}

// CreateToken signs a token for the identity.
func (tp *TokenProvider) CreateToken(identity Identity, rememberMe bool) (string, error) {
	if identity.Username == "" {
		return "", errors.New("identity has no username")
	}
	now := tp.now()
	claims := &Claims{
		Authorities: strings.Join(identity.Authorities, ","),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tp.TTL(rememberMe))),
		},
	}

	return jwt.NewWithClaims(signingMethod, claims).SignedString(tp.secret)
}

// Parse verifies the token and returns the identity it carries, or the
// reason it was rejected.
func (tp *TokenProvider) Parse(tokenStr string) (Identity, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return Identity{}, ErrTokenEmpty
	}

	parser := jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tp.now),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != signingMethod {
			return nil, ErrTokenUnsupported
		}
		return tp.secret, nil
	})
	if err != nil {
		return Identity{}, classifyParseError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrTokenClaims
	}
	return Identity{
		Username:    claims.Subject,
		Authorities: splitAuthorities(claims.Authorities),
	}, nil
}

// ValidateToken reports whether the token is well formed, correctly signed
// and not expired. It never returns an error.
func (tp *TokenProvider) ValidateToken(tokenStr string) bool {
	_, err := tp.Parse(tokenStr)
	if err != nil {
		if tp.onInvalid != nil {
			tp.onInvalid(err)
		}
		return false
	}
	return true
}

// Authentication extracts the identity from a token that already passed
// ValidateToken. An invalid token yields the zero Identity.
func (tp *TokenProvider) Authentication(tokenStr string) Identity {
	identity, err := tp.Parse(tokenStr)
	if err != nil {
		return Identity{}
	}
	return identity
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, ErrTokenUnsupported), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenUnsupported
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return ErrTokenClaims
	}
}

func splitAuthorities(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
