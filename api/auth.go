package api

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Tokens are effectively non-expiring for this system's intended use.
const tokenLifetime = 10 * 365 * 24 * time.Hour

var (
	errMissingAuthorization = errors.New("missing authorization header")

	// ErrInvalidToken covers every verification failure: bad signature,
	// malformed token, expired token, missing subject.
	ErrInvalidToken = errors.New("invalid token")
)

// Auth issues and verifies signed identity tokens.
type Auth struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

// NewAuth creates a new Auth instance signing with the given shared secret.
func NewAuth(secret []byte) *Auth {
	if len(secret) == 0 {
		panic("token signing secret must not be empty")
	}
	return &Auth{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		now:    time.Now,
	}
}

// Issue produces a signed token asserting the given subject id.
func (a *Auth) Issue(subjectID string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// SubjectFromAuthHeader resolves an Authorization header to a subject id.
// The header value is the bare token, not a "Bearer" scheme. An empty header
// is reported distinctly from a token that fails verification.
func (a *Auth) SubjectFromAuthHeader(h string) (string, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		return "", errMissingAuthorization
	}

	token, err := a.parser.Parse(h, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
