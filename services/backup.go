// services/backup.go
//
// Bulk export/import/backup engine. Walks the entire key-value namespace,
// classifies every key through a declarative rule table, and serializes the
// whole namespace (or one customer's slice) into a portable bundle. Import is
// the left inverse of export: every bucket replays through the same key
// naming, and unrecognized keys survive verbatim in the raw bucket.
package services

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/store"
	"github.com/xrkr80hd/EZApp/utils"
)

const backupFormatVersion = "2.0"

// Category is the backup bucket a key lands in.
type Category string

const (
	CategoryArchive   Category = "archive"
	CategoryCurrent   Category = "current"
	CategoryCache     Category = "cache"
	CategoryScheduler Category = "scheduler"
	CategorySettings  Category = "settings"
	CategoryRaw       Category = "raw"
)

type classifierRule struct {
	category Category
	match    func(key string) bool
}

// classifierRules are checked in order; the first match wins and anything
// unmatched falls into the raw bucket so no key is ever dropped.
var classifierRules = []classifierRule{
	{CategoryArchive, func(k string) bool { return strings.HasPrefix(k, store.ArchivePrefix) }},
	{CategoryCurrent, func(k string) bool { return k == store.CurrentBundleKey }},
	{CategoryCache, func(k string) bool { return strings.HasPrefix(k, store.CachePrefix) }},
	{CategoryScheduler, func(k string) bool {
		return strings.Contains(k, "scheduler") || strings.Contains(k, "schedule")
	}},
	{CategorySettings, func(k string) bool {
		return strings.Contains(k, "ezbath") || strings.Contains(k, "ezapp")
	}},
}

// ClassifyKey buckets a namespace key for backup purposes.
func ClassifyKey(key string) Category {
	for _, rule := range classifierRules {
		if rule.match(key) {
			return rule.category
		}
	}
	return CategoryRaw
}

// RestorePhase tracks an import through its state machine.
type RestorePhase string

const (
	PhaseIdle       RestorePhase = "idle"
	PhaseParsing    RestorePhase = "parsing"
	PhaseValidating RestorePhase = "validating"
	PhaseApplying   RestorePhase = "applying"
	PhaseDone       RestorePhase = "done"
	PhaseFailed     RestorePhase = "failed"
)

// Backup is the export/import engine over one store namespace.
type Backup struct {
	kv        store.KV
	registry  *Registry
	documents *Documents

	// LastPhase records where the most recent restore ended up.
	LastPhase RestorePhase
}

func NewBackup(kv store.KV, registry *Registry, documents *Documents) *Backup {
	return &Backup{kv: kv, registry: registry, documents: documents, LastPhase: PhaseIdle}
}

// ExportCustomer gathers the customer record plus every per-tool slot for the
// id into one portable bundle.
func (b *Backup) ExportCustomer(id string) (*models.CustomerExport, error) {
	normalized := utils.NormalizeCustomerID(id)
	customer, ok := b.registry.Get(normalized)
	if !ok {
		return nil, fmt.Errorf("no customer file for %q", normalized)
	}

	tools := map[string]*string{}
	for name, prefix := range toolPrefixFor {
		if raw, ok := b.kv.Get(store.ToolKey(prefix, normalized)); ok {
			value := raw
			tools[name] = &value
		} else {
			tools[name] = nil
		}
	}

	return &models.CustomerExport{
		Customer:   *customer,
		Tools:      tools,
		ExportedAt: nowFunc().UTC().Format(time.RFC3339),
		App:        "EZAPP",
	}, nil
}

// ExportCustomerZip packages one customer's bundle with binary attachments
// into a compressed archive with a human-readable manifest.
func (b *Backup) ExportCustomerZip(id string) ([]byte, error) {
	export, err := b.ExportCustomer(id)
	if err != nil {
		return nil, err
	}
	normalized := utils.NormalizeCustomerID(id)
	folder := utils.SanitizeFilePart(normalized)
	if folder == "" {
		folder = "Customer"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	photoCount := 0
	for _, photo := range b.documents.LoadPhotos(normalized) {
		if photo.FramedImage == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(DataURLBase64(photo.FramedImage))
		if err != nil {
			log.Printf("backup: skipping undecodable photo %d for %q: %v", photo.ID, normalized, err)
			continue
		}
		name := photo.FileName
		if name == "" {
			name = fmt.Sprintf("photo_%02d.jpg", photo.ID)
		}
		if err := writeZipFile(zw, folder+"/photos/"+name, data); err != nil {
			return nil, err
		}
		photoCount++
	}

	survey := b.documents.LoadSurvey(normalized)
	if survey.CustomerName != "" {
		surveyJSON, err := json.MarshalIndent(survey, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := writeZipFile(zw, folder+"/survey/survey_data.json", surveyJSON); err != nil {
			return nil, err
		}
		if err := writeZipFile(zw, folder+"/survey/survey_readable.txt", []byte(renderSurveyText(survey))); err != nil {
			return nil, err
		}
	}

	if measurement := b.documents.LoadTool("bathroomMeasurement", normalized); len(measurement) > 0 {
		raw, err := json.MarshalIndent(measurement, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := writeZipFile(zw, folder+"/bathroom_measurement/measurement_data.json", raw); err != nil {
			return nil, err
		}
	}

	completeJSON, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := writeZipFile(zw, folder+"/complete_data.json", completeJSON); err != nil {
		return nil, err
	}

	readme := fmt.Sprintf(`EZAPP CUSTOMER FILE
Customer: %s
Exported: %s
Photos: %d

FOLDER STRUCTURE:
- photos/ - framed customer photos with measurements
- survey/ - customer survey responses
- bathroom_measurement/ - measurement form data
- complete_data.json - complete data backup
`, normalized, export.ExportedAt, photoCount)
	if err := writeZipFile(zw, folder+"/README.txt", []byte(readme)); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFullBackup enumerates every key in the namespace and buckets it.
func (b *Backup) ExportFullBackup() *models.FullBackup {
	backup := &models.FullBackup{
		ExportDate: nowFunc().UTC().Format(time.RFC3339),
		Version:    backupFormatVersion,
		Customers:  []models.BackupCustomer{},
		CacheData:  map[string]json.RawMessage{},
		Settings:   map[string]json.RawMessage{},
		Scheduler:  map[string]json.RawMessage{},
		RawData:    map[string]json.RawMessage{},
	}

	for _, key := range b.kv.ListKeys() {
		value, ok := b.kv.Get(key)
		if !ok {
			continue
		}
		backup.TotalItems++

		switch ClassifyKey(key) {
		case CategoryArchive:
			var data models.ArchivedCustomer
			if err := json.Unmarshal([]byte(value), &data); err != nil {
				backup.RawData[key] = asJSONValue(value)
				continue
			}
			backup.Customers = append(backup.Customers, models.BackupCustomer{
				Key:  key,
				Name: data.Customer.Name,
				Data: json.RawMessage(value),
			})
		case CategoryCurrent:
			if json.Valid([]byte(value)) {
				backup.CurrentCustomer = json.RawMessage(value)
			} else {
				backup.RawData[key] = asJSONValue(value)
			}
		case CategoryCache:
			backup.CacheData[key] = asJSONValue(value)
		case CategoryScheduler:
			backup.Scheduler[key] = asJSONValue(value)
		case CategorySettings:
			backup.Settings[key] = asJSONValue(value)
		default:
			backup.RawData[key] = asJSONValue(value)
		}
	}
	return backup
}

// ImportBundle restores a full backup. Parsing or validation failures abort
// with zero writes; the apply phase replays buckets in a fixed order:
// archives, current customer, caches, scheduler, settings, raw. An existing
// current-customer slot is archived before being clobbered, never silently
// overwritten, and overwriting requires explicit confirmation.
func (b *Backup) ImportBundle(raw []byte, confirm bool) (*models.RestoreResult, error) {
	b.LastPhase = PhaseParsing
	var backup models.FullBackup
	if err := json.Unmarshal(raw, &backup); err != nil {
		b.LastPhase = PhaseFailed
		return nil, &ParseError{Key: "backup bundle", Err: err}
	}

	b.LastPhase = PhaseValidating
	type write struct{ key, value string }
	var writes []write
	restored := 0

	for _, customer := range backup.Customers {
		if customer.Key == "" || len(customer.Data) == 0 {
			b.LastPhase = PhaseFailed
			return nil, &ImportValidationError{Reason: "archived customer entry missing key or data"}
		}
		writes = append(writes, write{customer.Key, string(customer.Data)})
		restored++
	}

	currentName := ""
	if len(backup.CurrentCustomer) > 0 {
		var current models.ArchivedCustomer
		if err := json.Unmarshal(backup.CurrentCustomer, &current); err != nil {
			b.LastPhase = PhaseFailed
			return nil, &ImportValidationError{Reason: "current customer entry is not readable"}
		}
		if current.Customer.Name == "" {
			b.LastPhase = PhaseFailed
			return nil, &ImportValidationError{Reason: "current customer entry has no name"}
		}
		currentName = current.Customer.Name
		writes = append(writes, write{store.CurrentBundleKey, string(backup.CurrentCustomer)})
	}

	for _, bucket := range []map[string]json.RawMessage{
		backup.CacheData, backup.Scheduler, backup.Settings, backup.RawData,
	} {
		for key, value := range bucket {
			writes = append(writes, write{key, storedString(value)})
		}
	}

	if currentName != "" {
		if _, exists := b.kv.Get(store.CurrentBundleKey); exists {
			if !confirm {
				b.LastPhase = PhaseIdle
				return nil, ErrConfirmationRequired
			}
			if _, err := b.registry.ArchiveCurrent(); err != nil {
				b.LastPhase = PhaseFailed
				return nil, err
			}
		}
	}

	b.LastPhase = PhaseApplying
	for _, w := range writes {
		if err := b.kv.Set(w.key, w.value); err != nil {
			b.LastPhase = PhaseFailed
			return nil, fmt.Errorf("restore write for %q: %w", w.key, err)
		}
	}
	if currentName != "" {
		if err := b.registry.SetCurrent(currentName); err != nil {
			b.LastPhase = PhaseFailed
			return nil, err
		}
	}

	b.LastPhase = PhaseDone
	return &models.RestoreResult{RestoredCount: restored}, nil
}

// StorageStats reports namespace usage for quota warnings.
func (b *Backup) StorageStats() models.StorageStats {
	keys := b.kv.ListKeys()
	total := b.kv.EstimateByteSize()

	photoCount := 0
	for _, key := range keys {
		isToolPhotos := strings.HasPrefix(key, "photos_")
		if !isToolPhotos {
			continue
		}
		raw, _ := b.kv.Get(key)
		var photos []models.PhotoEntry
		if err := json.Unmarshal([]byte(raw), &photos); err != nil {
			continue
		}
		for _, p := range photos {
			if p.FramedImage != "" {
				photoCount++
			}
		}
	}

	return models.StorageStats{
		TotalSizeBytes: total,
		TotalSizeMB:    float64(total) / (1024 * 1024),
		CustomerCount:  len(b.registry.List()),
		PhotoCount:     photoCount,
		ItemCount:      len(keys),
	}
}

// asJSONValue keeps valid JSON verbatim and wraps everything else as a JSON
// string, so the bundle round-trips byte-for-byte.
func asJSONValue(value string) json.RawMessage {
	if json.Valid([]byte(value)) {
		return json.RawMessage(value)
	}
	quoted, _ := json.Marshal(value)
	return quoted
}

// storedString inverts asJSONValue when replaying a bucket.
func storedString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

// surveyQuestions pairs canonical fields with their question text for the
// readable export.
var surveyQuestions = []struct {
	label string
	pick  func(*models.SurveyDocument) string
}{
	{"How did you hear about us?", func(s *models.SurveyDocument) string { return s.HearAbout }},
	{"How many baths are in the home?", func(s *models.SurveyDocument) string { return s.NumBaths }},
	{"Which bath(s) will we be remodeling?", func(s *models.SurveyDocument) string { return strings.Join(s.WhichBaths, ", ") }},
	{"Who will be the primary user(s)?", func(s *models.SurveyDocument) string { return s.PrimaryUsers }},
	{"How do you envision your bathroom when the job is finished?", func(s *models.SurveyDocument) string { return s.Vision }},
	{"What did you like most about baths you have seen?", func(s *models.SurveyDocument) string { return s.LikedMost }},
	{"What do you like most about your current bath?", func(s *models.SurveyDocument) string { return s.LikeCurrent }},
	{"What do you like least about your current bath?", func(s *models.SurveyDocument) string { return s.DislikeCurrent }},
	{"What would you like changed?", func(s *models.SurveyDocument) string { return s.WantChanged }},
	{"Accessibility concerns?", func(s *models.SurveyDocument) string { return s.Accessibility }},
	{"Accessibility notes", func(s *models.SurveyDocument) string { return s.AccessibilityNotes }},
	{"Age of home", func(s *models.SurveyDocument) string { return s.HomeAge }},
	{"Years lived here", func(s *models.SurveyDocument) string { return s.YearsLived }},
	{"Years planning to live here", func(s *models.SurveyDocument) string { return s.YearsPlanning }},
	{"How long considering the remodel?", func(s *models.SurveyDocument) string { return s.HowLongConsidering }},
	{"What prevented acting before now?", func(s *models.SurveyDocument) string { return s.WhatPrevented }},
	{"Other projects considered", func(s *models.SurveyDocument) string { return s.OtherProjects }},
	{"Preferred funding method", func(s *models.SurveyDocument) string { return s.FundingMethod }},
	{"Cash timing", func(s *models.SurveyDocument) string { return s.CashTiming }},
	{"Comfortable monthly range", func(s *models.SurveyDocument) string { return s.MonthlyRange }},
	{"Able to put down a deposit?", func(s *models.SurveyDocument) string { return s.Deposit }},
	{"Deposit notes", func(s *models.SurveyDocument) string { return s.DepositNotes }},
	{"Takeaway notes", func(s *models.SurveyDocument) string { return s.TakeawayNotes }},
}

func renderSurveyText(survey *models.SurveyDocument) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CUSTOMER SURVEY - %s\n", survey.CustomerName)
	if survey.CustomerAddress != "" {
		fmt.Fprintf(&sb, "Address: %s\n", survey.CustomerAddress)
	}
	sb.WriteString("\n" + strings.Repeat("=", 60) + "\n\n")
	for _, q := range surveyQuestions {
		answer := q.pick(survey)
		if answer == "" || answer == "N/A" {
			continue
		}
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n\n", q.label, answer)
	}
	return sb.String()
}
