package models

import "encoding/json"

// CustomerFile is the consolidated per-customer record owned by the registry.
// Tool sub-documents are kept as raw JSON so every tool can round-trip shapes
// it does not understand.
type CustomerFile struct {
	LastName  string          `json:"lastName"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Survey    json.RawMessage `json:"survey"`
	Photos    json.RawMessage `json:"photos"`
	Video     json.RawMessage `json:"video"`
}

// RegistryEntry is one row of the customer registry index.
type RegistryEntry struct {
	ID        string `json:"id"`
	LastName  string `json:"lastName"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ArchiveInfo describes one immutable timestamped snapshot.
type ArchiveInfo struct {
	Key          string `json:"key"`
	CustomerName string `json:"customerName"`
	StartTime    string `json:"startTime"`
	LastModified string `json:"lastModified"`
}

// ArchivedCustomer is the stored archive payload: a point-in-time copy of the
// consolidated record. Restoring one always replays the live save path.
type ArchivedCustomer struct {
	Customer struct {
		Name      string `json:"name"`
		StartTime string `json:"startTime"`
		Address   string `json:"address"`
	} `json:"customer"`
	Photos   json.RawMessage `json:"photos"`
	Survey   json.RawMessage `json:"survey"`
	Video    json.RawMessage `json:"video"`
	Metadata struct {
		Version      string `json:"version"`
		LastModified string `json:"lastModified"`
	} `json:"metadata"`
}
