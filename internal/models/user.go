package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return slices.Contains([]Role{RoleUser, RoleSeller, RoleAdmin}, r)
}

type User struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"                     json:"id"`
	Name              string     `gorm:"not null"                                 json:"name"`
	Email             string     `gorm:"uniqueIndex;not null"                     json:"email"`
	Image             string     `                                                json:"image"`
	PasswordHash      string     `gorm:"not null"                                 json:"-"`
	Role              Role       `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	Active            bool       `gorm:"not null;default:true"                    json:"-"`
	PasswordChangedAt *time.Time `                                                json:"-"`
	MediaFolder       string     `                                                json:"-"`
	CreatedAt         time.Time  `gorm:"<-:create"                                json:"created_at"`
	UpdatedAt         time.Time  `                                                json:"updated_at"`
}

// UserHiddenColumns never leave the store through list endpoints.
var UserHiddenColumns = []string{"password_hash", "password_changed_at", "media_folder", "active"}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// ChangedPasswordAfter reports whether the password changed after a token
// with the given issued-at second was signed. Both sides compare in whole
// seconds and the change time is stored one second early, so a token signed
// up to about two seconds before the change still passes.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}
