package database

import (
	"context"
	"time"

	"github.com/thereayou/securechat/internal/common"
	"github.com/thereayou/securechat/internal/models"
)

// CreateUser inserts user and fills its ID. A taken username yields
// common.ErrDuplicateUsername.
func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return common.ErrDuplicateUsername
		}
		return classify(err)
	}
	return nil
}

func (d *Database) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, classify(err)
	}
	return &user, nil
}

// UpdateProfile changes the non-nil profile fields of username.
func (d *Database) UpdateProfile(ctx context.Context, username string, bio, picture *string) error {
	fields := map[string]interface{}{"updated_at": time.Now()}
	if bio != nil {
		fields["bio"] = *bio
	}
	if picture != nil {
		fields["profile_picture"] = *picture
	}

	res := d.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Updates(fields)
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}
