package services

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/store"
)

func newTestEngine(t *testing.T) (*store.MemoryStore, *Registry, *Documents, *Backup) {
	t.Helper()
	kv := store.NewMemoryStore()
	registry := NewRegistry(kv)
	documents := NewDocuments(kv, registry)
	return kv, registry, documents, NewBackup(kv, registry, documents)
}

func TestClassifyKey(t *testing.T) {
	cases := []struct {
		key  string
		want Category
	}{
		{"EZAPP_archive_SMITH_1700000000", CategoryArchive},
		{"EZAPP_current", CategoryCurrent},
		{"cache_survey_SMITH", CategoryCache},
		{"scheduler_data", CategoryScheduler},
		{"weekly_schedule_v2", CategoryScheduler},
		{"ezapp_customer_registry_v1", CategorySettings},
		{"ezapp_current_customer_v1", CategorySettings},
		{"ezbath_theme", CategorySettings},
		{"customer_SMITH", CategoryRaw},
		{"currentCustomer", CategoryRaw},
		{"survey_SMITH", CategoryRaw},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyKey(tc.key), "key %q", tc.key)
	}
}

func TestExportCustomer(t *testing.T) {
	_, _, documents, engine := newTestEngine(t)

	_, err := documents.SaveSurvey("SMITH", []byte(`{"q1":"Referral"}`))
	require.NoError(t, err)
	require.NoError(t, documents.SaveTool("tipSheet", "SMITH", []byte(`{"model":"A200"}`)))

	export, err := engine.ExportCustomer("smith")
	require.NoError(t, err)

	assert.Equal(t, "SMITH", export.Customer.LastName)
	assert.Equal(t, "EZAPP", export.App)
	require.NotNil(t, export.Tools["tipSheet"])
	assert.Contains(t, *export.Tools["tipSheet"], "A200")
	assert.Nil(t, export.Tools["commission"])
}

func TestExportCustomerUnknown(t *testing.T) {
	_, _, _, engine := newTestEngine(t)
	_, err := engine.ExportCustomer("NOBODY")
	assert.Error(t, err)
}

func TestExportCustomerZipContents(t *testing.T) {
	_, _, documents, engine := newTestEngine(t)

	_, err := documents.SaveSurvey("SMITH", []byte(`{"q1_hearAbout":"Website","q18_fundingMethod":"Cash"}`))
	require.NoError(t, err)

	photos := make([]models.PhotoEntry, 1)
	photos[0].RawImage = testPNGDataURL(t, 80, 60)
	_, err = documents.SavePhotos("SMITH", photos)
	require.NoError(t, err)

	data, err := engine.ExportCustomerZip("SMITH")
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["SMITH/survey/survey_data.json"])
	assert.True(t, names["SMITH/survey/survey_readable.txt"])
	assert.True(t, names["SMITH/complete_data.json"])
	assert.True(t, names["SMITH/README.txt"])

	var hasPhoto bool
	for name := range names {
		if strings.HasPrefix(name, "SMITH/photos/") && strings.HasSuffix(name, ".jpg") {
			hasPhoto = true
		}
	}
	assert.True(t, hasPhoto)
}

func TestExportFullBackupBucketsEverything(t *testing.T) {
	freezeClock(t, time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	kv, _, _, engine := newTestEngine(t)

	seed := map[string]string{
		"EZAPP_archive_SMITH_100": archiveJSON("SMITH", "2026-01-01T00:00:00Z"),
		store.CurrentBundleKey:    archiveJSON("JONES", "2026-02-01T00:00:00Z"),
		"cache_survey_JONES":      `{"draft":true}`,
		"scheduler_data":          `{"weekStart":"2026-03-30"}`,
		store.RegistryKey:         `[{"id":"JONES","lastName":"JONES"}]`,
		"free_text_note":          "not json at all",
	}
	for k, v := range seed {
		require.NoError(t, kv.Set(k, v))
	}

	backup := engine.ExportFullBackup()

	assert.Equal(t, len(seed), backup.TotalItems)
	require.Len(t, backup.Customers, 1)
	assert.Equal(t, "SMITH", backup.Customers[0].Name)
	assert.JSONEq(t, seed[store.CurrentBundleKey], string(backup.CurrentCustomer))
	assert.Contains(t, backup.CacheData, "cache_survey_JONES")
	assert.Contains(t, backup.Scheduler, "scheduler_data")
	assert.Contains(t, backup.Settings, store.RegistryKey)
	assert.Contains(t, backup.RawData, "free_text_note")
	assert.Equal(t, "2026-04-01T08:00:00Z", backup.ExportDate)
}

func TestExportImportRoundTrip(t *testing.T) {
	kv, _, _, engine := newTestEngine(t)

	seed := map[string]string{
		"EZAPP_archive_SMITH_100": archiveJSON("SMITH", "2026-01-01T00:00:00Z"),
		store.CurrentBundleKey:    archiveJSON("JONES", "2026-02-01T00:00:00Z"),
		"cache_survey_JONES":      `{"draft":true}`,
		"scheduler_data":          `{"weekStart":"2026-03-30"}`,
		"free_text_note":          "not json at all",
	}
	for k, v := range seed {
		require.NoError(t, kv.Set(k, v))
	}

	raw, err := json.Marshal(engine.ExportFullBackup())
	require.NoError(t, err)

	targetKV, _, _, target := newTestEngine(t)
	result, err := target.ImportBundle(raw, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RestoredCount)
	assert.Equal(t, PhaseDone, target.LastPhase)

	for key, want := range seed {
		got, ok := targetKV.Get(key)
		require.True(t, ok, "missing key %q after restore", key)
		assert.Equal(t, want, got, "key %q", key)
	}

	current, ok := NewRegistry(targetKV).Current()
	require.True(t, ok)
	assert.Equal(t, "JONES", current)
}

func TestImportBundleValidationAbortsBeforeWrites(t *testing.T) {
	kv, _, _, engine := newTestEngine(t)

	bundle := models.FullBackup{
		Customers: []models.BackupCustomer{{Key: "", Name: "SMITH", Data: json.RawMessage(`{}`)}},
	}
	raw, err := json.Marshal(bundle)
	require.NoError(t, err)

	var importErr *ImportValidationError
	_, err = engine.ImportBundle(raw, true)
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, PhaseFailed, engine.LastPhase)
	assert.Empty(t, kv.ListKeys(), "validation failure must not write anything")
}

func TestImportBundleRejectsGarbage(t *testing.T) {
	_, _, _, engine := newTestEngine(t)

	var parseErr *ParseError
	_, err := engine.ImportBundle([]byte("not a backup"), true)
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, PhaseFailed, engine.LastPhase)
}

func TestImportBundleConfirmGate(t *testing.T) {
	freezeClock(t, time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC))
	kv, _, _, engine := newTestEngine(t)
	require.NoError(t, kv.Set(store.CurrentBundleKey, archiveJSON("ADAMS", "2026-03-01T00:00:00Z")))

	bundle := models.FullBackup{
		CurrentCustomer: json.RawMessage(archiveJSON("JONES", "2026-02-01T00:00:00Z")),
	}
	raw, err := json.Marshal(bundle)
	require.NoError(t, err)

	_, err = engine.ImportBundle(raw, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	// Still the old data, untouched.
	got, ok := kv.Get(store.CurrentBundleKey)
	require.True(t, ok)
	assert.Contains(t, got, "ADAMS")

	_, err = engine.ImportBundle(raw, true)
	require.NoError(t, err)
	assert.Equal(t, PhaseDone, engine.LastPhase)

	// The displaced ADAMS data was archived before the clobber.
	var adamsArchived bool
	for _, key := range kv.ListKeys() {
		if strings.HasPrefix(key, "EZAPP_archive_ADAMS_") {
			adamsArchived = true
		}
	}
	assert.True(t, adamsArchived)

	got, ok = kv.Get(store.CurrentBundleKey)
	require.True(t, ok)
	assert.Contains(t, got, "JONES")
}

func TestImportBundleWithoutCurrentNeedsNoConfirm(t *testing.T) {
	kv, _, _, engine := newTestEngine(t)
	require.NoError(t, kv.Set(store.CurrentBundleKey, archiveJSON("ADAMS", "2026-03-01T00:00:00Z")))

	bundle := models.FullBackup{
		CacheData: map[string]json.RawMessage{"cache_survey_SMITH": json.RawMessage(`{"a":1}`)},
	}
	raw, err := json.Marshal(bundle)
	require.NoError(t, err)

	_, err = engine.ImportBundle(raw, false)
	require.NoError(t, err)

	// Existing current data stays when the bundle carries none.
	got, ok := kv.Get(store.CurrentBundleKey)
	require.True(t, ok)
	assert.Contains(t, got, "ADAMS")
}

func TestStorageStats(t *testing.T) {
	_, _, documents, engine := newTestEngine(t)

	_, err := documents.SaveSurvey("SMITH", []byte(`{"q1":"Referral"}`))
	require.NoError(t, err)

	photos := make([]models.PhotoEntry, 2)
	photos[0].RawImage = testPNGDataURL(t, 40, 30)
	_, err = documents.SavePhotos("SMITH", photos)
	require.NoError(t, err)

	stats := engine.StorageStats()
	assert.Equal(t, 1, stats.CustomerCount)
	assert.Equal(t, 1, stats.PhotoCount)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
	assert.Greater(t, stats.ItemCount, 0)
}
