package repos

import (
	"github.com/tauraamui/scandaemon/pkg/database/dbconn"
	"github.com/tauraamui/scandaemon/pkg/database/models"
	"github.com/tauraamui/xerror"
)

var ErrInvalidCredentials = xerror.New("invalid username or password")

type UserRepository struct {
	DB dbconn.GormWrapper
}

func (r *UserRepository) Create(user *models.User) error {
	return r.DB.Create(user).Error()
}

func (r *UserRepository) FindByUUID(uuid string) (models.User, error) {
	user := models.User{}
	if err := r.DB.Where("uuid = ?", uuid).First(&user).Error(); err != nil {
		return user, xerror.Errorf("user of uuid %s not found", uuid)
	}

	return user, nil
}

func (r *UserRepository) FindByName(username string) (models.User, error) {
	user := models.User{}
	if err := r.DB.Where("name = ?", username).First(&user).Error(); err != nil {
		return user, xerror.Errorf("user of name %s not found", username)
	}

	return user, nil
}

// Authenticate never says which half of the credentials was wrong.
func (r *UserRepository) Authenticate(username, password string) (models.User, error) {
	user, err := r.FindByName(username)
	if err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	if err := user.ComparePassword(password); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}
