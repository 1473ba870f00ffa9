package models

import (
	"github.com/google/uuid"
	"github.com/tauraamui/xerror"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	registerForAutomigration(&User{})
}

// User is an API account. Tokens are stateless so nothing about a
// login is persisted beyond the password hash.
type User struct {
	gorm.Model
	UUID     string `gorm:"uniqueIndex"`
	Name     string `gorm:"uniqueIndex"`
	AuthHash string
}

var (
	ErrBlankName     = xerror.New("user name must not be blank")
	ErrBlankPassword = xerror.New("user password must not be blank")
)

// BeforeCreate replaces the plaintext password held in AuthHash with
// its bcrypt hash.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.Name) == 0 {
		return ErrBlankName
	}
	if len(u.AuthHash) == 0 {
		return ErrBlankPassword
	}
	if len(u.UUID) == 0 {
		u.UUID = uuid.NewString()
	}

	h, err := bcrypt.GenerateFromPassword([]byte(u.AuthHash), bcrypt.DefaultCost)
	if err != nil {
		return xerror.Errorf("unable to hash password for user [%s]: %w", u.Name, err)
	}
	u.AuthHash = string(h)
	return nil
}

func (u *User) ComparePassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.AuthHash), []byte(password)); err != nil {
		return xerror.Errorf("incorrect password: %w", err)
	}
	return nil
}
