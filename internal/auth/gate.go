package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shoe_store/internal/apperr"
	"github.com/Skotchmaster/shoe_store/internal/models"
)

const (
	MsgNoToken         = "You are not logged in! Please log in to get access."
	MsgInvalidToken    = "Invalid or expired token. Please log in again."
	MsgUserGone        = "The user belonging to this token no longer exists."
	MsgPasswordChanged = "User recently changed password! Please log in again."
	MsgForbidden       = "You do not have permission to perform this action"
)

type UserFinder interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	User *models.User
}

func (i *Identity) UserID() uuid.UUID { return i.User.ID }
func (i *Identity) Role() models.Role { return i.User.Role }
func (i *Identity) IsAdmin() bool     { return i.User.Role == models.RoleAdmin }

// Credentials are the places a token can arrive from.
type Credentials struct {
	Cookie        string
	Authorization string
}

func (c Credentials) token() string {
	if c.Cookie != "" && c.Cookie != LoggedOutValue {
		return c.Cookie
	}
	if rest, ok := strings.CutPrefix(c.Authorization, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}

// Decision is the outcome of the access checks for one request: an identity,
// or the first check that rejected it and why.
type Decision struct {
	Identity *Identity
	FailedAt string
	Err      error
}

func (d Decision) Allowed() bool { return d.Err == nil }

type evaluation struct {
	creds  Credentials
	roles  []models.Role
	token  string
	claims *Claims
	user   *models.User
}

type check struct {
	name string
	run  func(g *Gate, ctx context.Context, ev *evaluation) error
}

// checks run in this order; the first failure decides.
var checks = []check{
	{"extract", (*Gate).extract},
	{"verify", (*Gate).verify},
	{"resolve", (*Gate).resolve},
	{"fresh", (*Gate).fresh},
	{"role", (*Gate).authorize},
}

type Gate struct {
	Tokens *Tokens
	Users  UserFinder
}

func (g *Gate) Evaluate(ctx context.Context, creds Credentials, roles ...models.Role) Decision {
	ev := &evaluation{creds: creds, roles: roles}
	for _, c := range checks {
		if err := c.run(g, ctx, ev); err != nil {
			return Decision{FailedAt: c.name, Err: err}
		}
	}
	return Decision{Identity: &Identity{User: ev.user}}
}

// VerifyToken runs the checks that do not depend on where the token came from.
func (g *Gate) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	d := g.Evaluate(ctx, Credentials{Authorization: "Bearer " + token})
	if !d.Allowed() {
		return nil, d.Err
	}
	return d.Identity, nil
}

func (g *Gate) extract(_ context.Context, ev *evaluation) error {
	ev.token = ev.creds.token()
	if ev.token == "" {
		return apperr.Authentication(MsgNoToken)
	}
	return nil
}

func (g *Gate) verify(_ context.Context, ev *evaluation) error {
	claims, err := g.Tokens.Parse(ev.token)
	if err != nil {
		return apperr.Wrap(apperr.KindAuthentication, MsgInvalidToken, err)
	}
	ev.claims = claims
	return nil
}

func (g *Gate) resolve(ctx context.Context, ev *evaluation) error {
	id, _ := ev.claims.UserID()
	user, err := g.Users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Authentication(MsgUserGone)
		}
		return fmt.Errorf("auth: resolve user: %w", err)
	}
	if !user.Active {
		return apperr.Authentication(MsgUserGone)
	}
	ev.user = user
	return nil
}

func (g *Gate) fresh(_ context.Context, ev *evaluation) error {
	if ev.user.ChangedPasswordAfter(ev.claims.IssuedAtTime()) {
		return apperr.Authentication(MsgPasswordChanged)
	}
	return nil
}

func (g *Gate) authorize(_ context.Context, ev *evaluation) error {
	if len(ev.roles) == 0 {
		return nil
	}
	return Authorize(&Identity{User: ev.user}, ev.roles...)
}

// Authorize fails with 403 unless the identity holds one of roles.
func Authorize(id *Identity, roles ...models.Role) error {
	if id == nil || !slices.Contains(roles, id.Role()) {
		return apperr.Authorization(MsgForbidden)
	}
	return nil
}
