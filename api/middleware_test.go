package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func protectedEcho(auth Authenticator) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.String(http.StatusOK, subjectID(c))
	}, RequireAuth(auth))
	return e
}

func TestRequireAuthMissingHeader(t *testing.T) {
	e := protectedEcho(NewAuth([]byte("test-secret")))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Access Denied") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	e := protectedEcho(NewAuth([]byte("test-secret")))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "not.a.token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid Token") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRequireAuthAttachesSubject(t *testing.T) {
	auth := NewAuth([]byte("test-secret"))
	e := protectedEcho(auth)

	token, err := auth.Issue("subject-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "subject-42" {
		t.Fatalf("handler saw subject %q", rec.Body.String())
	}
}

// The original contract uses a bare token in the Authorization header; a
// Bearer prefix makes the value fail verification.
func TestRequireAuthRejectsBearerScheme(t *testing.T) {
	auth := NewAuth([]byte("test-secret"))
	e := protectedEcho(auth)

	token, err := auth.Issue("subject-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for Bearer-prefixed token, got %d", rec.Code)
	}
}
