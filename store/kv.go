// Package store is the keyed persistence layer: a flat string key-value
// namespace with the same contract the browser build had against
// localStorage. Operations are synchronous and single-writer; there is no
// cross-tab or cross-process consistency promise (last writer wins at key
// granularity).
package store

import "errors"

// ErrQuotaExceeded is returned by Set when a write would push the store past
// its configured byte quota. Callers must be able to tell it apart from other
// write failures so they can offer to free space or export first.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV is the persistence contract every higher layer builds on.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes the key; removing an absent key is a no-op.
	Remove(key string)
	// ListKeys returns every key. Stable but unordered.
	ListKeys() []string
	// EstimateByteSize sums the UTF-16-equivalent byte cost of all keys and
	// values, matching how browsers account localStorage quota.
	EstimateByteSize() int64
}

// Keys of the persisted layout shared by every tool.
const (
	RegistryKey        = "ezapp_customer_registry_v1"
	CurrentCustomerKey = "ezapp_current_customer_v1"
	LegacyCurrentKey   = "currentCustomer"
	CurrentBundleKey   = "EZAPP_current"
	ArchivePrefix      = "EZAPP_archive_"
	CustomerPrefix     = "customer_"
	CachePrefix        = "cache_"
	SchedulerDataKey   = "scheduler_data"
)

// ToolPrefixes maps tool names to their per-customer key prefixes
// (`<prefix><ID>`). Order matters for exports and deletes.
var ToolPrefixes = []string{
	"survey_",
	"surveyStructured_",
	"photos_",
	"measurements_",
	"tipSheet_",
	"vanityForm_",
	"foursquare_",
	"postSaleChecklist_",
	"bathroomMeasurement_",
	"commission_",
}

// ToolKey builds the storage slot for a (tool prefix, customer id) pair.
func ToolKey(prefix, customerID string) string {
	return prefix + customerID
}

// CustomerKey builds the consolidated record slot for a customer id.
func CustomerKey(customerID string) string {
	return CustomerPrefix + customerID
}
