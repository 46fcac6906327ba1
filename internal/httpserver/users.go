package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/auth"
	"github.com/Skotchmaster/shoe_store/internal/middleware/authmw"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/service"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const (
	MsgNotForPasswords = "This route is not for password updates. Please use /users/update-password."
	MsgNotForRoles     = "You cannot change your own role"
)

type UsersHTTP struct {
	Auth          *service.AuthService
	Users         *service.UserService
	SecureCookies bool
}

func (h *UsersHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.signup")

	var req SignupRequest
	if err := bindValid(c, &req); err != nil {
		l.Warn("signup_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	sess, err := h.Auth.Signup(ctx, service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusCreated, sess)
}

func (h *UsersHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.login")

	var req LoginRequest
	if err := bindValid(c, &req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	sess, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, sess)
}

func (h *UsersHTTP) Logout(c echo.Context) error {
	c.SetCookie(auth.LoggedOutCookie(h.SecureCookies))
	return c.JSON(http.StatusOK, envelope{Status: "success"})
}

func (h *UsersHTTP) UpdatePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_password")

	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	var req UpdatePasswordRequest
	if err := bindValid(c, &req); err != nil {
		l.Warn("update_password_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	sess, err := h.Auth.ChangePassword(ctx, id.UserID(), req.PasswordCurrent, req.Password)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, sess)
}

func (h *UsersHTTP) Me(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	u, err := h.Users.Me(c.Request().Context(), id.UserID())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, map[string]any{"user": u})
}

// UpdateMe takes JSON, or multipart when an avatar is sent under "image".
func (h *UsersHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_me")

	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}

	var (
		req UpdateMeRequest
		in  service.UpdateMeInput
	)
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, MsgInvalidBody, err)
		}
		req.Name = formString(form, "name")
		req.Email = formString(form, "email")
		req.Password = formString(form, "password")
		req.Role = formString(form, "role")

		files, closeAll, err := uploads(form, "image")
		if err != nil {
			return err
		}
		defer closeAll()
		if len(files) > 0 {
			in.Avatar = files[0]
		}
	} else if err := c.Bind(&req); err != nil {
		return apperr.Wrap(apperr.KindValidation, MsgInvalidBody, err)
	}

	if req.Password != nil {
		l.Warn("update_me_error", "status", 400, "reason", "password in body")
		return apperr.Validation(MsgNotForPasswords)
	}
	if req.Role != nil {
		l.Warn("update_me_error", "status", 400, "reason", "role in body")
		return apperr.Validation(MsgNotForRoles)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	in.Name, in.Email = req.Name, req.Email

	u, err := h.Users.UpdateMe(ctx, id.UserID(), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, map[string]any{"user": u})
}

func (h *UsersHTTP) DeleteMe(c echo.Context) error {
	id, err := authmw.MustIdentity(c)
	if err != nil {
		return err
	}
	if err := h.Users.DeleteMe(c.Request().Context(), id.UserID()); err != nil {
		return err
	}
	c.SetCookie(auth.LoggedOutCookie(h.SecureCookies))
	return c.NoContent(http.StatusNoContent)
}

func (h *UsersHTTP) List(c echo.Context) error {
	res, err := h.Users.List(c.Request().Context(), c.QueryParams())
	if err != nil {
		return err
	}
	return page(c, "users", res)
}

func (h *UsersHTTP) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	u, err := h.Users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, map[string]any{"user": u})
}

func (h *UsersHTTP) sendSession(c echo.Context, code int, sess *service.Session) error {
	c.SetCookie(auth.SessionCookie(sess.Token, sess.Expires, h.SecureCookies))
	return c.JSON(code, envelope{
		Status: "success",
		Token:  sess.Token,
		Data:   map[string]any{"user": sess.User},
	})
}
