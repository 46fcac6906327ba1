package httpserver

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
)

const MsgInvalidBody = "Invalid request body"

// bindValid decodes the body into req and runs the validator on it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.Wrap(apperr.KindValidation, MsgInvalidBody, err)
	}
	return c.Validate(req)
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validationf("Invalid %s: %s", name, raw)
	}
	return id, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// uploads opens every file sent under field. The returned closer releases
// them all.
func uploads(form *multipart.Form, field string) ([]io.Reader, func(), error) {
	headers := form.File[field]
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	readers := make([]io.Reader, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperr.Wrap(apperr.KindValidation, "Could not read the uploaded file", err)
		}
		files = append(files, f)
		readers = append(readers, f)
	}
	return readers, closeAll, nil
}

func formString(form *multipart.Form, key string) *string {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

func formDecimal(form *multipart.Form, key string) (*decimal.Decimal, error) {
	raw := formString(form, key)
	if raw == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, apperr.Validationf("Invalid %s: %s", key, *raw)
	}
	return &d, nil
}

func formBool(form *multipart.Form, key string) (*bool, error) {
	raw := formString(form, key)
	if raw == nil {
		return nil, nil
	}
	if strings.TrimSpace(*raw) == "" {
		f := false
		return &f, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(*raw))
	if err != nil {
		return nil, apperr.Validationf("Invalid %s: %s", key, *raw)
	}
	return &b, nil
}

// formSizes accepts repeated values and comma separated lists alike.
func formSizes(form *multipart.Form, key string) ([]int64, error) {
	vals, ok := form.Value[key]
	if !ok {
		return nil, nil
	}
	out := []int64{}
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, apperr.Validationf("Invalid shoe size: %s", part)
			}
			out = append(out, n)
		}
	}
	return out, nil
}
