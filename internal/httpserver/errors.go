package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const MsgInternal = "Something went very wrong!"

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ErrorHandler is the single place errors become responses. Operational
// errors keep their message; anything else is a 500 that only reveals its
// cause outside production.
func ErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := render(err, production)
		if code >= http.StatusInternalServerError {
			logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", code, "error", err)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, body)
		}
		if werr != nil {
			logging.FromContext(c.Request().Context()).Error("write_error_response", "error", werr)
		}
	}
}

func render(err error, production bool) (int, errorBody) {
	if ae, ok := apperr.As(err); ok && ae.Operational() {
		code := ae.Status()
		return code, errorBody{Status: statusWord(code), Message: ae.Message}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, errorBody{Status: statusWord(he.Code), Message: msg}
	}

	body := errorBody{Status: "error", Message: MsgInternal}
	if !production {
		body.Error = err.Error()
	}
	return http.StatusInternalServerError, body
}

func statusWord(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}
