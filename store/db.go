package store

import (
	"errors"
	"log"

	"gorm.io/gorm"
)

// Entry is one row of the key-value table backing DBStore.
type Entry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"type:text;not null"`
}

func (Entry) TableName() string { return "kv_entries" }

// DBStore persists the namespace in a single sqlite file, the device-local
// analog of the browser's per-origin localStorage. A MaxBytes of zero means
// unlimited.
type DBStore struct {
	db       *gorm.DB
	MaxBytes int64
}

func NewDBStore(db *gorm.DB) (*DBStore, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &DBStore{db: db}, nil
}

func (s *DBStore) Get(key string) (string, bool) {
	var entry Entry
	err := s.db.First(&entry, "key = ?", key).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("store: read failed for %q: %v", key, err)
		}
		return "", false
	}
	return entry.Value, true
}

func (s *DBStore) Set(key, value string) error {
	if s.MaxBytes > 0 {
		next := s.EstimateByteSize() + utf16Bytes(key) + utf16Bytes(value)
		if prev, ok := s.Get(key); ok {
			next -= utf16Bytes(key) + utf16Bytes(prev)
		}
		if next > s.MaxBytes {
			return ErrQuotaExceeded
		}
	}
	return s.db.Save(&Entry{Key: key, Value: value}).Error
}

func (s *DBStore) Remove(key string) {
	if err := s.db.Delete(&Entry{}, "key = ?", key).Error; err != nil {
		log.Printf("store: delete failed for %q: %v", key, err)
	}
}

func (s *DBStore) ListKeys() []string {
	var keys []string
	if err := s.db.Model(&Entry{}).Pluck("key", &keys).Error; err != nil {
		log.Printf("store: key listing failed: %v", err)
		return nil
	}
	return keys
}

func (s *DBStore) EstimateByteSize() int64 {
	var entries []Entry
	if err := s.db.Find(&entries).Error; err != nil {
		log.Printf("store: size scan failed: %v", err)
		return 0
	}
	var total int64
	for _, e := range entries {
		total += utf16Bytes(e.Key) + utf16Bytes(e.Value)
	}
	return total
}
