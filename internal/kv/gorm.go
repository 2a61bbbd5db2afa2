package kv

import (
	"context"
	"errors"
	"time"

	"movie-roulette/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormChannel stores keys in the kv_entries table, one row per key.
type GormChannel struct {
	conn *gorm.DB
}

func NewGormChannel(conn *gorm.DB) *GormChannel {
	return &GormChannel{conn: conn}
}

func (c *GormChannel) Put(ctx context.Context, key, value string) error {
	entry := db.KVEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return c.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (c *GormChannel) Get(ctx context.Context, key string) (string, bool, error) {
	var entry db.KVEntry
	err := c.conn.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (c *GormChannel) Delete(ctx context.Context, key string) error {
	return c.conn.WithContext(ctx).Delete(&db.KVEntry{}, "key = ?", key).Error
}
