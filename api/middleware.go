package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

const subjectContextKey = "doozy.subject"

// RequireAuth rejects requests lacking a valid identity token. A missing
// Authorization header is a 401 without any verification attempt; a header
// that fails verification is a 400. On success the subject id is attached to
// the request context once and downstream handlers read it via subjectID
// without re-verifying the token.
func RequireAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sub, err := auth.SubjectFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if errors.Is(err, errMissingAuthorization) {
					return c.JSON(http.StatusUnauthorized, messageResponse{Message: "Access Denied"})
				}
				return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid Token"})
			}
			c.Set(subjectContextKey, sub)
			return next(c)
		}
	}
}

func subjectID(c echo.Context) string {
	sub, _ := c.Get(subjectContextKey).(string)
	return sub
}
