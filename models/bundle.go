package models

import "encoding/json"

// CustomerExport is the portable single-customer bundle.
type CustomerExport struct {
	Customer   CustomerFile       `json:"customer"`
	Tools      map[string]*string `json:"tools"` // tool name -> raw stored string, nil when absent
	ExportedAt string             `json:"exportedAt"`
	App        string             `json:"app"`
}

// BackupCustomer is one archived customer inside a full backup.
type BackupCustomer struct {
	Key  string          `json:"key"`
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// FullBackup is the whole-namespace bundle. Every key in the store lands in
// exactly one bucket; unrecognized keys go to RawData so nothing is dropped.
type FullBackup struct {
	ExportDate      string                     `json:"exportDate"`
	Version         string                     `json:"version"`
	TotalItems      int                        `json:"totalItems"`
	Customers       []BackupCustomer           `json:"customers"`
	CurrentCustomer json.RawMessage            `json:"currentCustomer,omitempty"`
	CacheData       map[string]json.RawMessage `json:"cacheData"`
	Settings        map[string]json.RawMessage `json:"settings"`
	Scheduler       map[string]json.RawMessage `json:"scheduler"`
	RawData         map[string]json.RawMessage `json:"rawData"`
}

// RestoreResult reports a completed import.
type RestoreResult struct {
	RestoredCount int `json:"restoredCount"`
}

// StorageStats summarizes store usage for quota reporting.
type StorageStats struct {
	TotalSizeBytes int64   `json:"totalSizeBytes"`
	TotalSizeMB    float64 `json:"totalSizeMB"`
	CustomerCount  int     `json:"customerCount"`
	PhotoCount     int     `json:"photoCount"`
	ItemCount      int     `json:"itemCount"`
}
