package service

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/media"
	"github.com/Skotchmaster/shoe_store/internal/models"
	"github.com/Skotchmaster/shoe_store/internal/query"
	"github.com/Skotchmaster/shoe_store/internal/repo"
	"github.com/Skotchmaster/shoe_store/pkg/logging"
)

const MsgNoUser = "No user found with that ID"

type UserService struct {
	Lister
	Repo   *repo.GormRepo
	Media  media.Store
	Images media.Processor
}

type UpdateMeInput struct {
	Name   *string
	Email  *string
	Avatar io.Reader
}

func (s *UserService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, MsgNoUser)
	}
	return u, nil
}

// UpdateMe changes the caller's profile. Passwords go through
// AuthService.ChangePassword only.
func (s *UserService) UpdateMe(ctx context.Context, id uuid.UUID, in UpdateMeInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.update_me")

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Please tell us your name")
		}
		fields["name"] = name
	}
	if in.Email != nil {
		fields["email"] = NormalizeEmail(*in.Email)
	}
	if in.Avatar != nil {
		data, err := s.Images.Process(in.Avatar, media.AvatarShape)
		if err != nil {
			l.Warn("update_me_error", "status", 400, "reason", "bad avatar", "error", err)
			return nil, err
		}
		folder := media.UserFolder(id)
		link, err := s.Media.Store(ctx, data, folder, "avatar")
		if err != nil {
			l.Error("update_me_error", "status", 502, "reason", "media store failed", "error", err)
			return nil, err
		}
		fields["image"] = link
		fields["media_folder"] = folder
	}
	if len(fields) == 0 {
		return s.Me(ctx, id)
	}

	u, err := s.Repo.UpdateUser(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Conflict(MsgEmailTaken)
		}
		return nil, notFound(err, MsgNoUser)
	}
	l.Info("profile_updated", "fields", len(fields))
	return u, nil
}

// DeleteMe deactivates the account; the row stays.
func (s *UserService) DeleteMe(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeactivateUser(ctx, id); err != nil {
		return notFound(err, MsgNoUser)
	}
	logging.FromContext(ctx).Info("account_deactivated", "svc", "users.delete_me", "user_id", id.String())
	return nil
}

func (s *UserService) List(ctx context.Context, params url.Values) (*query.Result[models.User], error) {
	return s.Repo.ListUsers(ctx, s.build(UserSchema, params))
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.Me(ctx, id)
}
