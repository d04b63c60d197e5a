// services/registry.go
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/store"
	"github.com/xrkr80hd/EZApp/utils"
)

// nowFunc is a package-level var to allow test injection.
var nowFunc = time.Now

// Registry owns the set of known customers and the current-customer pointer.
// Identifiers are case/whitespace-normalized so "Smith" and " smith " collapse
// to one entry instead of fragmenting data across tools.
type Registry struct {
	kv store.KV
}

func NewRegistry(kv store.KV) *Registry {
	return &Registry{kv: kv}
}

func (r *Registry) readIndex() []models.RegistryEntry {
	raw, ok := r.kv.Get(store.RegistryKey)
	if !ok {
		return nil
	}
	var entries []models.RegistryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("registry: malformed index, starting empty: %v", err)
		return nil
	}
	return entries
}

func (r *Registry) writeIndex(entries []models.RegistryEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return r.kv.Set(store.RegistryKey, string(raw))
}

// List returns all registered customers, most recently updated first.
func (r *Registry) List() []models.RegistryEntry {
	entries := r.readIndex()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt > entries[j].UpdatedAt
	})
	return entries
}

// Current returns the active customer identifier, consulting the legacy
// pointer key for stores written by older builds.
func (r *Registry) Current() (string, bool) {
	if id, ok := r.kv.Get(store.CurrentCustomerKey); ok && id != "" {
		return id, true
	}
	if id, ok := r.kv.Get(store.LegacyCurrentKey); ok && id != "" {
		return id, true
	}
	return "", false
}

// SetCurrent writes both the versioned and the legacy pointer keys.
func (r *Registry) SetCurrent(id string) error {
	normalized := utils.NormalizeCustomerID(id)
	if err := r.kv.Set(store.CurrentCustomerKey, normalized); err != nil {
		return err
	}
	return r.kv.Set(store.LegacyCurrentKey, normalized)
}

// Get loads the consolidated record for a customer.
func (r *Registry) Get(id string) (*models.CustomerFile, bool) {
	normalized := utils.NormalizeCustomerID(id)
	raw, ok := r.kv.Get(store.CustomerKey(normalized))
	if !ok {
		return nil, false
	}
	var file models.CustomerFile
	if err := json.Unmarshal([]byte(raw), &file); err != nil {
		log.Printf("registry: malformed customer file %q: %v", normalized, err)
		return nil, false
	}
	return &file, true
}

// Upsert creates the record on first save from any tool, else merges the
// partial over the existing record. It refreshes updatedAt and always makes
// the customer current.
func (r *Registry) Upsert(lastName string, partial *models.CustomerFile) (*models.CustomerFile, error) {
	normalized := utils.NormalizeCustomerID(lastName)
	if normalized == "" {
		return nil, &NormalizationError{Reason: "customer name is empty"}
	}

	now := nowFunc().UTC().Format(time.RFC3339)
	next := models.CustomerFile{LastName: normalized, CreatedAt: now, UpdatedAt: now}
	if existing, ok := r.Get(normalized); ok {
		next.CreatedAt = existing.CreatedAt
		next.Survey = existing.Survey
		next.Photos = existing.Photos
		next.Video = existing.Video
	}
	if partial != nil {
		if partial.Survey != nil {
			next.Survey = partial.Survey
		}
		if partial.Photos != nil {
			next.Photos = partial.Photos
		}
		if partial.Video != nil {
			next.Video = partial.Video
		}
		if next.CreatedAt == now && partial.CreatedAt != "" {
			next.CreatedAt = partial.CreatedAt
		}
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if err := r.kv.Set(store.CustomerKey(normalized), string(raw)); err != nil {
		return nil, err
	}
	if err := r.SetCurrent(normalized); err != nil {
		return nil, err
	}

	index := r.readIndex()
	entry := models.RegistryEntry{
		ID:        normalized,
		LastName:  normalized,
		CreatedAt: next.CreatedAt,
		UpdatedAt: next.UpdatedAt,
	}
	replaced := false
	for i := range index {
		if index[i].ID == normalized {
			index[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		index = append(index, entry)
	}
	if err := r.writeIndex(index); err != nil {
		return nil, err
	}
	return &next, nil
}

// ImportRaw validates a candidate customer file before delegating to Upsert.
// Candidates without a usable lastName are rejected with nil.
func (r *Registry) ImportRaw(raw []byte) (*models.CustomerFile, error) {
	var candidate models.CustomerFile
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, nil
	}
	if strings.TrimSpace(candidate.LastName) == "" {
		return nil, nil
	}
	return r.Upsert(candidate.LastName, &candidate)
}

// Delete removes the customer record and every per-tool key for the id.
// Archives are deliberately left in place. Returns false when no matching
// record existed; refuses to act without explicit confirmation.
func (r *Registry) Delete(id string, confirm bool) (bool, error) {
	if !confirm {
		return false, ErrConfirmationRequired
	}
	normalized := utils.NormalizeCustomerID(id)
	if _, ok := r.kv.Get(store.CustomerKey(normalized)); !ok {
		return false, nil
	}

	safe := utils.SanitizeFilePart(normalized)
	for _, key := range r.kv.ListKeys() {
		if strings.HasPrefix(key, store.ArchivePrefix) {
			continue
		}
		if r.keyBelongsTo(key, normalized, safe) {
			r.kv.Remove(key)
		}
	}

	if current, ok := r.Current(); ok && current == normalized {
		r.kv.Remove(store.CurrentCustomerKey)
		r.kv.Remove(store.LegacyCurrentKey)
		r.kv.Remove(store.CurrentBundleKey)
	}

	index := r.readIndex()
	kept := index[:0]
	for _, entry := range index {
		if entry.ID != normalized {
			kept = append(kept, entry)
		}
	}
	if err := r.writeIndex(kept); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Registry) keyBelongsTo(key, id, safeID string) bool {
	if key == store.CustomerKey(id) {
		return true
	}
	for _, prefix := range store.ToolPrefixes {
		if key == store.ToolKey(prefix, id) {
			return true
		}
	}
	// Autosave snapshots: cache_<tool>_<ID>, survey_cache_<sanitized ID>.
	if strings.HasPrefix(key, store.CachePrefix) && strings.HasSuffix(key, "_"+id) {
		return true
	}
	if key == "survey_cache_"+safeID {
		return true
	}
	// Timestamped four-square snapshots: four_square_<sanitized ID>_<millis>.
	if strings.HasPrefix(key, "four_square_"+safeID+"_") {
		return true
	}
	return false
}

// ArchiveCurrent snapshots the consolidated current-customer bundle under an
// immutable timestamped key and clears the live slot. No-op when there is no
// current data.
func (r *Registry) ArchiveCurrent() (string, error) {
	raw, ok := r.kv.Get(store.CurrentBundleKey)
	if !ok {
		return "", nil
	}
	var snapshot models.ArchivedCustomer
	name := "Unknown"
	if err := json.Unmarshal([]byte(raw), &snapshot); err == nil && snapshot.Customer.Name != "" {
		name = snapshot.Customer.Name
	}

	key := fmt.Sprintf("%s%s_%d", store.ArchivePrefix, utils.NormalizeCustomerID(name), nowFunc().UnixMilli())
	if err := r.kv.Set(key, raw); err != nil {
		return "", err
	}
	r.kv.Remove(store.CurrentBundleKey)
	return key, nil
}

// ListArchives returns every archived snapshot, newest lastModified first.
func (r *Registry) ListArchives() []models.ArchiveInfo {
	var archives []models.ArchiveInfo
	for _, key := range r.kv.ListKeys() {
		if !strings.HasPrefix(key, store.ArchivePrefix) {
			continue
		}
		raw, _ := r.kv.Get(key)
		var data models.ArchivedCustomer
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			log.Printf("registry: skipping malformed archive %q: %v", key, err)
			continue
		}
		last := data.Metadata.LastModified
		if last == "" {
			last = data.Customer.StartTime
		}
		archives = append(archives, models.ArchiveInfo{
			Key:          key,
			CustomerName: data.Customer.Name,
			StartTime:    data.Customer.StartTime,
			LastModified: last,
		})
	}
	sort.Slice(archives, func(i, j int) bool {
		return archives[i].LastModified > archives[j].LastModified
	})
	return archives
}

// LoadArchive restores a snapshot through the live save path: any existing
// current data is archived first, then the snapshot becomes the current
// bundle with a fresh updatedAt. The snapshot itself is never mutated.
func (r *Registry) LoadArchive(archiveKey string, confirm bool) (*models.CustomerFile, error) {
	raw, ok := r.kv.Get(archiveKey)
	if !ok {
		return nil, fmt.Errorf("archive %q not found", archiveKey)
	}
	var data models.ArchivedCustomer
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, &ParseError{Key: archiveKey, Err: err}
	}
	if data.Customer.Name == "" {
		return nil, &ImportValidationError{Reason: "archive has no customer name"}
	}

	if _, hasCurrent := r.kv.Get(store.CurrentBundleKey); hasCurrent {
		if !confirm {
			return nil, ErrConfirmationRequired
		}
		if _, err := r.ArchiveCurrent(); err != nil {
			return nil, err
		}
	}

	if err := r.kv.Set(store.CurrentBundleKey, raw); err != nil {
		return nil, err
	}
	return r.Upsert(data.Customer.Name, &models.CustomerFile{
		Survey: data.Survey,
		Photos: data.Photos,
		Video:  data.Video,
	})
}

// DeleteArchive permanently removes one snapshot.
func (r *Registry) DeleteArchive(archiveKey string, confirm bool) (bool, error) {
	if !confirm {
		return false, ErrConfirmationRequired
	}
	if _, ok := r.kv.Get(archiveKey); !ok {
		return false, nil
	}
	r.kv.Remove(archiveKey)
	return true, nil
}
