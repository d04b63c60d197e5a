package config

import (
	"log"
	"os"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/xrkr80hd/EZApp/store"
)

var DB *gorm.DB

// ConnectDB opens the consultant directory database.
func ConnectDB() {
	dsn := os.Getenv("DB_URL")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("Failed to connect database")
	}

	DB = db
}

// OpenStore opens the device-local key-value store. With no STORE_PATH set it
// falls back to an in-memory store, which is what the tests use.
func OpenStore() store.KV {
	path := os.Getenv("STORE_PATH")
	if path == "" {
		log.Println("STORE_PATH not set, using in-memory store")
		mem := store.NewMemoryStore()
		mem.MaxBytes = storageQuota()
		return mem
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		panic("Failed to open local store at " + path)
	}
	kv, err := store.NewDBStore(db)
	if err != nil {
		panic("Failed to migrate local store: " + err.Error())
	}
	kv.MaxBytes = storageQuota()
	return kv
}

func storageQuota() int64 {
	if env := os.Getenv("STORE_QUOTA_BYTES"); env != "" {
		if n, err := strconv.ParseInt(env, 10, 64); err == nil {
			return n
		}
	}
	return 0 // unlimited
}
