package database

import (
	"gorm.io/gorm"
)

// Database owns the gorm handle and its underlying connection pool. It is
// built once by Connect and passed to whatever needs storage.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}
