package services

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/store"
)

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = prev })
}

func archiveJSON(name, lastModified string) string {
	var a models.ArchivedCustomer
	a.Customer.Name = name
	a.Customer.StartTime = lastModified
	a.Metadata.Version = "1.0"
	a.Metadata.LastModified = lastModified
	raw, _ := json.Marshal(a)
	return string(raw)
}

func TestUpsertNormalizesIdentity(t *testing.T) {
	kv := store.NewMemoryStore()
	r := NewRegistry(kv)

	customer, err := r.Upsert("  smith ", nil)
	require.NoError(t, err)
	assert.Equal(t, "SMITH", customer.LastName)

	// "Smith" in any casing is the same record, not a second one.
	_, err = r.Upsert("Smith", nil)
	require.NoError(t, err)
	assert.Len(t, r.List(), 1)

	current, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "SMITH", current)

	// Both pointer keys are written for older readers.
	legacy, ok := kv.Get(store.LegacyCurrentKey)
	require.True(t, ok)
	assert.Equal(t, "SMITH", legacy)
}

func TestUpsertMergesOverExisting(t *testing.T) {
	freezeClock(t, time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	r := NewRegistry(store.NewMemoryStore())

	_, err := r.Upsert("SMITH", &models.CustomerFile{Survey: json.RawMessage(`{"q1":"TV"}`)})
	require.NoError(t, err)

	freezeClock(t, time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC))
	updated, err := r.Upsert("SMITH", &models.CustomerFile{Photos: json.RawMessage(`[]`)})
	require.NoError(t, err)

	// Partial fields merge, untouched fields survive, createdAt is stable.
	assert.JSONEq(t, `{"q1":"TV"}`, string(updated.Survey))
	assert.JSONEq(t, `[]`, string(updated.Photos))
	assert.Equal(t, "2026-01-10T09:00:00Z", updated.CreatedAt)
	assert.Equal(t, "2026-01-11T09:00:00Z", updated.UpdatedAt)
}

func TestUpsertRejectsEmptyName(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore())

	var normErr *NormalizationError
	_, err := r.Upsert("   ", nil)
	require.ErrorAs(t, err, &normErr)
}

func TestListOrdersByMostRecentUpdate(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore())

	freezeClock(t, time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	_, err := r.Upsert("ADAMS", nil)
	require.NoError(t, err)

	freezeClock(t, time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC))
	_, err = r.Upsert("BAKER", nil)
	require.NoError(t, err)

	entries := r.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "BAKER", entries[0].ID)
	assert.Equal(t, "ADAMS", entries[1].ID)
}

func TestImportRawRejectsUnusableCandidates(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore())

	customer, err := r.ImportRaw([]byte("not json at all"))
	require.NoError(t, err)
	assert.Nil(t, customer)

	customer, err = r.ImportRaw([]byte(`{"createdAt":"2026-01-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.Nil(t, customer)

	customer, err = r.ImportRaw([]byte(`{"lastName":"smith"}`))
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "SMITH", customer.LastName)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore())
	_, err := r.Upsert("SMITH", nil)
	require.NoError(t, err)

	_, err = r.Delete("SMITH", false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	_, ok := r.Get("SMITH")
	assert.True(t, ok)
}

func TestDeleteSweepsEveryKeyButArchives(t *testing.T) {
	kv := store.NewMemoryStore()
	r := NewRegistry(kv)

	_, err := r.Upsert("JONES", nil)
	require.NoError(t, err)
	_, err = r.Upsert("SMITH", nil)
	require.NoError(t, err)

	for key, value := range map[string]string{
		"survey_SMITH":            "{}",
		"photos_SMITH":            "[]",
		"cache_survey_SMITH":      "{}",
		"survey_cache_SMITH":      "{}",
		"four_square_SMITH_12345": "{}",
		"EZAPP_archive_SMITH_1":   archiveJSON("SMITH", "2026-01-01T00:00:00Z"),
	} {
		require.NoError(t, kv.Set(key, value))
	}

	deleted, err := r.Delete("SMITH", true)
	require.NoError(t, err)
	assert.True(t, deleted)

	for _, key := range kv.ListKeys() {
		if strings.HasPrefix(key, store.ArchivePrefix) {
			continue
		}
		assert.NotContains(t, key, "SMITH", "key %q should have been swept", key)
	}

	// The archive outlives the deletion; the other customer is untouched.
	_, ok := kv.Get("EZAPP_archive_SMITH_1")
	assert.True(t, ok)
	_, ok = r.Get("JONES")
	assert.True(t, ok)
	assert.Len(t, r.List(), 1)

	// SMITH was current, so the pointer went with it.
	_, ok = r.Current()
	assert.False(t, ok)
}

func TestDeleteUnknownCustomer(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore())

	deleted, err := r.Delete("NOBODY", true)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestArchiveCurrentSnapshotsAndClears(t *testing.T) {
	freezeClock(t, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	kv := store.NewMemoryStore()
	r := NewRegistry(kv)

	key, err := r.ArchiveCurrent()
	require.NoError(t, err)
	assert.Empty(t, key, "no current data means no archive")

	bundle := archiveJSON("SMITH", "2026-01-31T00:00:00Z")
	require.NoError(t, kv.Set(store.CurrentBundleKey, bundle))

	key, err = r.ArchiveCurrent()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "EZAPP_archive_SMITH_"))

	archived, ok := kv.Get(key)
	require.True(t, ok)
	assert.Equal(t, bundle, archived)
	_, ok = kv.Get(store.CurrentBundleKey)
	assert.False(t, ok)
}

func TestListArchivesNewestFirst(t *testing.T) {
	kv := store.NewMemoryStore()
	r := NewRegistry(kv)

	require.NoError(t, kv.Set("EZAPP_archive_ADAMS_1", archiveJSON("ADAMS", "2026-01-01T00:00:00Z")))
	require.NoError(t, kv.Set("EZAPP_archive_BAKER_2", archiveJSON("BAKER", "2026-02-01T00:00:00Z")))
	require.NoError(t, kv.Set("EZAPP_archive_BAD_3", "not json"))

	archives := r.ListArchives()
	require.Len(t, archives, 2)
	assert.Equal(t, "BAKER", archives[0].CustomerName)
	assert.Equal(t, "ADAMS", archives[1].CustomerName)
}

func TestLoadArchiveGuardsCurrentData(t *testing.T) {
	freezeClock(t, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	kv := store.NewMemoryStore()
	r := NewRegistry(kv)

	require.NoError(t, kv.Set("EZAPP_archive_SMITH_1", archiveJSON("SMITH", "2026-01-01T00:00:00Z")))
	require.NoError(t, kv.Set(store.CurrentBundleKey, archiveJSON("JONES", "2026-01-15T00:00:00Z")))

	_, err := r.LoadArchive("EZAPP_archive_SMITH_1", false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	customer, err := r.LoadArchive("EZAPP_archive_SMITH_1", true)
	require.NoError(t, err)
	assert.Equal(t, "SMITH", customer.LastName)

	// The displaced JONES data was archived, not lost.
	var jonesArchived bool
	for _, a := range r.ListArchives() {
		if a.CustomerName == "JONES" {
			jonesArchived = true
		}
	}
	assert.True(t, jonesArchived)

	current, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "SMITH", current)
}

func TestLoadArchiveMissingKey(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore())
	_, err := r.LoadArchive("EZAPP_archive_GHOST_1", true)
	assert.Error(t, err)
}
