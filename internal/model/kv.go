package model

import "time"

// KVEntry backs the gorm key-value repository: one row per (namespace, key).
type KVEntry struct {
	Namespace string `gorm:"primaryKey;size:64;not null"` // session id
	Key       string `gorm:"primaryKey;size:64;not null"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
