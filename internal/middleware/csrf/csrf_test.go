package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
)

func call(t *testing.T, req *http.Request, cfg Config) (*httptest.ResponseRecorder, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	err := Middleware(cfg)(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c)
	return rec, err
}

func TestSafeMethodIssuesToken(t *testing.T) {
	t.Parallel()
	rec, err := call(t, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil), DefaultConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "XSRF-TOKEN=")
}

func TestUnsafeMethod(t *testing.T) {
	t.Parallel()

	newReq := func(token, header, origin string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/cart/1", nil)
		r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
		if header != "" {
			r.Header.Set("X-CSRF-Token", header)
		}
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	_, err := call(t, newReq("abc", "abc", "http://example.com"), DefaultConfig())
	require.NoError(t, err)

	_, err = call(t, newReq("abc", "abd", "http://example.com"), DefaultConfig())
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, MsgInvalidToken, e.Message)

	_, err = call(t, newReq("abc", "abc", "http://evil.test"), DefaultConfig())
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, MsgInvalidOrigin, e.Message)
}

func TestSkips(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Skipper = BearerSkipper
	cfg.SkipPaths = []string{"/api/v1/checkout/webhook"}

	_, err := call(t, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/webhook", nil), cfg)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/cart/1", nil)
	r.Header.Set(echo.HeaderAuthorization, "Bearer tok")
	_, err = call(t, r, cfg)
	require.NoError(t, err)
}
