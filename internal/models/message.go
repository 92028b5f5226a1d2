package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is the persisted copy of a broadcast chat line. Rows are only
// ever appended.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Sender    string    `gorm:"not null;index"`
	Text      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
