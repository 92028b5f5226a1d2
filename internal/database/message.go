package database

import (
	"context"
	"time"

	"github.com/thereayou/securechat/internal/models"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return classify(d.db.WithContext(ctx).Create(message).Error)
}

// ListMessages returns up to limit messages older than before (all when
// before is nil), oldest first.
func (d *Database) ListMessages(ctx context.Context, limit int, before *time.Time) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.WithContext(ctx)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, classify(err)
	}

	// newest-first from the query; callers want ascending order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
