package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username       string    `gorm:"uniqueIndex;not null"`
	PasswordHash   string    `gorm:"not null"`
	Bio            string    `gorm:"not null;default:''"`
	ProfilePicture string    `gorm:"not null;default:''"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Profile is the public part of a User.
type Profile struct {
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
}

func (u *User) Profile() Profile {
	return Profile{
		Username:       u.Username,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
	}
}
