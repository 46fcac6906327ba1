// Package authmw guards echo routes with the auth gate.
package authmw

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/auth"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const identityKey = "identity"

type Middleware struct {
	Gate *auth.Gate
}

func New(g *auth.Gate) *Middleware {
	return &Middleware{Gate: g}
}

// Protect lets through any logged in, active user.
func (m *Middleware) Protect(next echo.HandlerFunc) echo.HandlerFunc {
	return m.Require()(next)
}

// RestrictTo runs after Protect. It re-checks the role of the identity
// Protect attached.
func RestrictTo(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return apperr.Authentication(auth.MsgNoToken)
			}
			if err := auth.Authorize(id, roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// Require runs the whole gate in one step; roles may be empty.
func (m *Middleware) Require(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			creds := auth.Credentials{Authorization: c.Request().Header.Get(echo.HeaderAuthorization)}
			if ck, err := c.Cookie(auth.CookieName); err == nil {
				creds.Cookie = ck.Value
			}

			d := m.Gate.Evaluate(ctx, creds, roles...)
			if !d.Allowed() {
				logging.FromContext(ctx).Debug("auth_rejected", "check", d.FailedAt, "error", d.Err)
				return d.Err
			}

			c.Set(identityKey, d.Identity)
			l := logging.FromContext(ctx).With("user_id", d.Identity.UserID().String(), "role", string(d.Identity.Role()))
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			return next(c)
		}
	}
}

func IdentityFrom(c echo.Context) (*auth.Identity, bool) {
	id, ok := c.Get(identityKey).(*auth.Identity)
	return id, ok && id != nil
}

// MustIdentity is for handlers mounted behind Protect.
func MustIdentity(c echo.Context) (*auth.Identity, error) {
	id, ok := IdentityFrom(c)
	if !ok {
		return nil, apperr.Authentication(auth.MsgNoToken)
	}
	return id, nil
}
