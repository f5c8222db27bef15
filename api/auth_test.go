package api

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	auth := NewAuth([]byte("test-secret"))

	token, err := auth.Issue("64f1b0c2a1b2c3d4e5f60718")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sub, err := auth.SubjectFromAuthHeader(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "64f1b0c2a1b2c3d4e5f60718" {
		t.Fatalf("unexpected subject: %s", sub)
	}
}

func TestTwoTokensSameSubject(t *testing.T) {
	auth := NewAuth([]byte("test-secret"))

	t1, err := auth.Issue("subject-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	t2, err := auth.Issue("subject-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if t1 == t2 {
		t.Fatal("tokens should carry distinct jti claims")
	}
	for _, tok := range []string{t1, t2} {
		sub, err := auth.SubjectFromAuthHeader(tok)
		if err != nil || sub != "subject-1" {
			t.Fatalf("verify: sub=%q err=%v", sub, err)
		}
	}
}

func TestMissingHeader(t *testing.T) {
	auth := NewAuth([]byte("test-secret"))
	if _, err := auth.SubjectFromAuthHeader(""); !errors.Is(err, errMissingAuthorization) {
		t.Fatalf("expected missing header error, got %v", err)
	}
	if _, err := auth.SubjectFromAuthHeader("   "); !errors.Is(err, errMissingAuthorization) {
		t.Fatalf("expected missing header error for blank header, got %v", err)
	}
}

func TestMalformedToken(t *testing.T) {
	auth := NewAuth([]byte("test-secret"))
	for _, h := range []string{"garbage", "a.b", "a.b.c.d", "Bearer"} {
		if _, err := auth.SubjectFromAuthHeader(h); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("header %q: expected ErrInvalidToken, got %v", h, err)
		}
	}
}

func TestWrongSecret(t *testing.T) {
	issuer := NewAuth([]byte("secret-a"))
	verifier := NewAuth([]byte("secret-b"))

	token, err := issuer.Issue("subject-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.SubjectFromAuthHeader(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	auth := NewAuth([]byte("test-secret"))
	auth.now = func() time.Time { return time.Now().Add(-tokenLifetime - time.Hour) }

	token, err := auth.Issue("subject-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewAuth([]byte("test-secret")).SubjectFromAuthHeader(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestRejectsForeignSigningMethod(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"sub": "subject-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	auth := NewAuth(secret)
	if _, err := auth.SubjectFromAuthHeader(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512 token, got %v", err)
	}
}

func TestMissingSubject(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	auth := NewAuth(secret)
	if _, err := auth.SubjectFromAuthHeader(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for token without sub, got %v", err)
	}
}
