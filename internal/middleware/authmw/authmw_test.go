package authmw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/auth"
	"github.com/Skotchmaster/shoe_store/internal/models"
)

type users map[uuid.UUID]*models.User

func (u users) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if v, ok := u[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func setup(t *testing.T) (*Middleware, *models.User, string) {
	t.Helper()
	u := &models.User{ID: uuid.New(), Role: models.RoleSeller, Active: true}
	tk := auth.NewTokens([]byte("secret"), time.Hour)
	tok, _, err := tk.Issue(u.ID)
	require.NoError(t, err)
	return New(&auth.Gate{Tokens: tk, Users: users{u.ID: u}}), u, tok
}

func run(c echo.Context, mws ...echo.MiddlewareFunc) (bool, error) {
	reached := false
	h := echo.HandlerFunc(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return reached, h(c)
}

func TestProtect(t *testing.T) {
	t.Parallel()
	m, u, tok := setup(t)
	e := echo.New()

	tests := []struct {
		name   string
		prep   func(r *http.Request)
		ok     bool
		status int
	}{
		{name: "cookie", prep: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tok}) }, ok: true},
		{name: "bearer", prep: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }, ok: true},
		{name: "missing", prep: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "bad token", prep: func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer x.y.z") }, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prep(req)
			c := e.NewContext(req, httptest.NewRecorder())

			reached, err := run(c, m.Protect)
			assert.Equal(t, tt.ok, reached)
			if tt.ok {
				require.NoError(t, err)
				id, ok := IdentityFrom(c)
				require.True(t, ok)
				assert.Equal(t, u.ID, id.UserID())
				return
			}
			ae, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, ae.Status())
		})
	}
}

func TestRestrictTo(t *testing.T) {
	t.Parallel()
	m, _, tok := setup(t)
	e := echo.New()

	newCtx := func() echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tok})
		return e.NewContext(req, httptest.NewRecorder())
	}

	reached, err := run(newCtx(), m.Protect, RestrictTo(models.RoleAdmin))
	assert.False(t, reached)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	reached, err = run(newCtx(), m.Protect, RestrictTo(models.RoleSeller, models.RoleAdmin))
	require.NoError(t, err)
	assert.True(t, reached)

	reached, err = run(newCtx(), m.Require(models.RoleAdmin))
	assert.False(t, reached)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	// without Protect in front there is nobody to restrict
	reached, err = run(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()), RestrictTo(models.RoleUser))
	assert.False(t, reached)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
}

func TestMustIdentity(t *testing.T) {
	t.Parallel()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := MustIdentity(c)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
}
