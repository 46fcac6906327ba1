package httpserver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shoe_store/internal/media"
	"github.com/Skotchmaster/shoe_store/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/shoe_store/pkg/middleware/logging"
)

const (
	jsonBodyLimit = "10K"
	WebhookPath   = "/api/v1/checkout/webhook"
)

type Options struct {
	Production  bool
	CORSOrigins []string
	CSRF        bool
	// MediaDir is served under MediaURL when set (disk media store).
	MediaDir       string
	MediaURL       string
	MaxUploadBytes int64
}

// New returns an echo instance with the shop's middleware chain, error
// handler and validator installed. Routes are added by Register.
func New(logger *slog.Logger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(opts.Production)
	e.Validator = NewValidator()

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, csrf.DefaultConfig().HeaderName,
		},
	}))
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: jsonBodyLimit,
		Skipper: func(c echo.Context) bool {
			return isMultipart(c) || c.Request().URL.Path == WebhookPath
		},
	}))
	e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit:   multipartLimit(opts.MaxUploadBytes),
		Skipper: func(c echo.Context) bool { return !isMultipart(c) },
	}))
	if opts.CSRF {
		cfg := csrf.DefaultConfig()
		cfg.Secure = opts.Production
		cfg.Skipper = csrf.BearerSkipper
		cfg.SkipPaths = []string{WebhookPath, "/health/live", "/health/ready"}
		e.Use(csrf.Middleware(cfg))
	}

	if opts.MediaDir != "" {
		prefix := opts.MediaURL
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			prefix = "/uploads"
		}
		e.Static(prefix, opts.MediaDir)
	}
	return e
}

// multipartLimit leaves room for a full set of product images plus the
// form fields around them.
func multipartLimit(perFile int64) string {
	if perFile <= 0 {
		perFile = 2 << 20
	}
	total := perFile*(media.MaxProductImages+1) + 64<<10
	return fmt.Sprintf("%dK", total>>10)
}
