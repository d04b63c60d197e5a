// services/backup_scheduler.go
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
)

// BackupScheduler writes a nightly full-backup bundle to disk so a lost or
// wiped device never costs more than one day of field data.
type BackupScheduler struct {
	engine *Backup
	dir    string
}

func NewBackupScheduler(engine *Backup) *BackupScheduler {
	dir := os.Getenv("EZAPP_BACKUP_DIR")
	if dir == "" {
		dir = "backups"
	}
	return &BackupScheduler{engine: engine, dir: dir}
}

// Start runs the nightly backup at 2 AM.
func (s *BackupScheduler) Start() {
	c := cron.New()

	if _, err := c.AddFunc("0 2 * * *", func() {
		if err := s.RunOnce(); err != nil {
			log.Printf("Nightly backup failed: %v", err)
		}
	}); err != nil {
		log.Printf("Failed to register backup job: %v", err)
		return
	}

	c.Start()
	log.Println("Nightly backup job started")
}

// RunOnce writes one full-backup bundle named by export date.
func (s *BackupScheduler) RunOnce() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	backup := s.engine.ExportFullBackup()
	raw, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return err
	}

	name := fmt.Sprintf("EZApp_Backup_%s.json", nowFunc().UTC().Format("2006-01-02"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return err
	}

	log.Printf("Backup written: %s (%d items, %d customers)", path, backup.TotalItems, len(backup.Customers))
	return nil
}
