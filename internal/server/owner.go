package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-formflow/pkg/frontend"
	"github.com/goliatone/go-formflow/pkg/model"
)

type ownerContextKey struct{}

// WithOwner stores the visitor's owner key on ctx.
func WithOwner(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, key)
}

// OwnerFromContext returns the owner key stored by the owner middleware.
func OwnerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	key, _ := ctx.Value(ownerContextKey{}).(string)
	return key
}

// OwnerAccess lets a visitor continue only the submissions they started.
// Fresh renders and unowned submissions are open to everyone.
var OwnerAccess frontend.AccessChecker = frontend.AccessFunc(func(ctx context.Context, _ model.Form, sub *model.Submission) bool {
	if sub == nil || sub.OwnerKey == "" {
		return true
	}
	return sub.OwnerKey == OwnerFromContext(ctx)
})

// ownerMiddleware issues the owner cookie on first visit and exposes its
// value on the request context.
func ownerMiddleware(cookieName string, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := ""
			if cookie, err := c.Cookie(cookieName); err == nil {
				key = cookie.Value
			}
			if _, err := uuid.Parse(key); err != nil {
				key = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     cookieName,
					Value:    key,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			req := c.Request()
			c.SetRequest(req.WithContext(WithOwner(req.Context(), key)))
			return next(c)
		}
	}
}
