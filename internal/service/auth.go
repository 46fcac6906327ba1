package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/auth"
	"github.com/Skotchmaster/shoe_store/internal/events"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/repo"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const (
	MsgBadCredentials       = "Incorrect email or password"
	MsgWrongCurrentPassword = "Your current password is wrong"
	MsgSamePassword         = "Your new password must be different from your current password"
	MsgEmailTaken           = "Duplicate field value: email. Please use another value!"
	MsgSignupRole           = "Role is either: user, seller"
)

type AuthService struct {
	Repo         *repo.GormRepo
	Tokens       *auth.Tokens
	Events       events.Publisher
	DefaultImage string
	Now          func() time.Time
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// Session is a freshly issued credential and the user it belongs to.
type Session struct {
	Token   string
	Expires time.Time
	User    *models.User
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if in.Role != models.RoleUser && in.Role != models.RoleSeller {
		return nil, apperr.Validation(MsgSignupRole)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		Image:        s.DefaultImage,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("signup_error", "status", 400, "reason", "email taken")
			return nil, apperr.Conflict(MsgEmailTaken)
		}
		l.Error("signup_error", "status", 500, "error", err)
		return nil, err
	}

	sess, err := s.issue(u)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, err
	}
	events.Emit(ctx, s.Events, events.New(events.UserSignedUp, u.ID.String(), map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"role":  u.Role,
	}))
	l.Info("signup_successful", "user_id", u.ID.String())
	return sess, nil
}

// Login answers every failure with the same message so callers cannot tell
// an unknown email from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	u, err := s.Repo.FindUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, apperr.Authentication(MsgBadCredentials)
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password", "user_id", u.ID.String())
		return nil, apperr.Authentication(MsgBadCredentials)
	}
	if !u.Active {
		l.Warn("login_failed", "status", 401, "reason", "inactive account", "user_id", u.ID.String())
		return nil, apperr.Authentication(MsgBadCredentials)
	}

	sess, err := s.issue(u)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	l.Info("login_successful", "user_id", u.ID.String())
	return sess, nil
}

// ChangePassword invalidates every token issued before it returns.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")

	u, err := s.Repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, auth.MsgUserGone)
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		l.Warn("change_password_failed", "status", 401, "reason", "wrong current password")
		return nil, apperr.Authentication(MsgWrongCurrentPassword)
	}
	if auth.CheckPassword(u.PasswordHash, next) {
		l.Warn("change_password_failed", "status", 400, "reason", "same password")
		return nil, apperr.Validation(MsgSamePassword)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return nil, err
	}
	// one second back so the token issued below is not older than the change
	changed := s.now().Add(-time.Second).UTC()
	if err := s.Repo.UpdatePassword(ctx, u.ID, hash, changed); err != nil {
		l.Error("change_password_failed", "status", 500, "error", err)
		return nil, err
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = &changed

	l.Info("password_changed")
	return s.issue(u)
}

func (s *AuthService) issue(u *models.User) (*Session, error) {
	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Expires: exp, User: u}, nil
}

func (s *AuthService) now() time.Time {
	return clock(s.Now).now()
}
