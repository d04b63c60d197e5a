// services/documents.go
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/store"
	"github.com/xrkr80hd/EZApp/utils"
)

// Documents is the per-tool document store. Reads are resilient by default:
// missing or malformed data degrades to the tool's empty value after logging.
// Writes that cannot be normalized still persist the raw payload under a
// rawData fallback so a consultant's entry is never lost.
type Documents struct {
	kv       store.KV
	registry *Registry
}

func NewDocuments(kv store.KV, registry *Registry) *Documents {
	return &Documents{kv: kv, registry: registry}
}

// toolPrefixFor maps a tool name to its storage prefix.
var toolPrefixFor = map[string]string{
	"survey":              "survey_",
	"photos":              "photos_",
	"measurements":        "measurements_",
	"tipSheet":            "tipSheet_",
	"vanityForm":          "vanityForm_",
	"foursquare":          "foursquare_",
	"postSaleChecklist":   "postSaleChecklist_",
	"bathroomMeasurement": "bathroomMeasurement_",
	"commission":          "commission_",
}

// KnownTool reports whether a tool name has a storage slot.
func KnownTool(name string) bool {
	_, ok := toolPrefixFor[name]
	return ok
}

// LoadTool returns the stored document for (tool, customer) as a JSON object.
// Absent or unreadable data yields an empty object, never an error.
func (d *Documents) LoadTool(tool, customerID string) map[string]json.RawMessage {
	prefix, ok := toolPrefixFor[tool]
	if !ok {
		log.Printf("documents: unknown tool %q", tool)
		return map[string]json.RawMessage{}
	}
	id := utils.NormalizeCustomerID(customerID)
	raw, ok := d.kv.Get(store.ToolKey(prefix, id))
	if !ok {
		return map[string]json.RawMessage{}
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		log.Printf("documents: malformed %s data for %q, treating as absent: %v", tool, id, err)
		return map[string]json.RawMessage{}
	}
	return doc
}

// SaveTool shallow-merges the payload over the existing document and writes
// the tool slot. A payload that is not a JSON object becomes a degraded
// write: the raw text is kept under rawData with an error marker.
func (d *Documents) SaveTool(tool, customerID string, payload []byte) error {
	prefix, ok := toolPrefixFor[tool]
	if !ok {
		return fmt.Errorf("unknown tool %q", tool)
	}
	id := utils.NormalizeCustomerID(customerID)
	if id == "" {
		return &NormalizationError{Reason: "customer id is empty"}
	}

	merged := d.LoadTool(tool, id)
	var incoming map[string]json.RawMessage
	if err := json.Unmarshal(payload, &incoming); err != nil {
		log.Printf("documents: degraded %s write for %q: %v", tool, id, err)
		merged = degradedPayload(payload, err)
	} else {
		for k, v := range incoming {
			merged[k] = v
		}
	}
	merged["timestamp"] = jsonString(nowFunc().UTC().Format(time.RFC3339))

	out, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	if err := d.kv.Set(store.ToolKey(prefix, id), string(out)); err != nil {
		return err
	}

	if tool == "bathroomMeasurement" {
		d.updateCurrentBundleDocument(id, "bathroomMeasurement", out)
	}
	_, err = d.registry.Upsert(id, nil)
	return err
}

// LoadSurvey returns the canonical survey for the customer, reading the
// structured slot first, then the plain slot, then the autosave cache.
func (d *Documents) LoadSurvey(customerID string) *models.SurveyDocument {
	id := utils.NormalizeCustomerID(customerID)
	candidates := []string{
		store.ToolKey("surveyStructured_", id),
		store.ToolKey("survey_", id),
		"survey_cache_" + utils.SanitizeFilePart(id),
	}
	for _, key := range candidates {
		raw, ok := d.kv.Get(key)
		if !ok {
			continue
		}
		doc, err := NormalizeSurvey([]byte(raw))
		if err != nil {
			log.Printf("documents: unusable survey at %q: %v", key, err)
			continue
		}
		return doc
	}
	return models.DefaultSurvey()
}

// SaveSurvey merges the partial payload over the stored survey, attaches the
// legacy aliases, and writes every slot older pages read. A payload the codec
// rejects is persisted as a degraded write instead of being dropped.
func (d *Documents) SaveSurvey(customerID string, payload []byte) (*models.SurveyDocument, error) {
	id := utils.NormalizeCustomerID(customerID)
	if id == "" {
		return nil, &NormalizationError{Reason: "customer id is empty"}
	}

	existing := d.LoadSurvey(id)
	existingRaw, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}

	var base map[string]json.RawMessage
	if err := json.Unmarshal(existingRaw, &base); err != nil {
		return nil, err
	}
	var incoming map[string]json.RawMessage
	if err := json.Unmarshal(payload, &incoming); err != nil {
		return nil, d.writeDegradedSurvey(id, payload, err)
	}
	for k, v := range incoming {
		base[k] = v
	}
	base["customerName"] = jsonString(id)
	base["timestamp"] = jsonString(nowFunc().UTC().Format(time.RFC3339))

	mergedRaw, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	doc, err := NormalizeSurvey(mergedRaw)
	if err != nil {
		return nil, d.writeDegradedSurvey(id, payload, err)
	}

	stored := DenormalizeSurvey(doc)
	out, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{
		store.ToolKey("survey_", id),
		store.ToolKey("surveyStructured_", id),
		"survey_cache_" + utils.SanitizeFilePart(id),
	} {
		if err := d.kv.Set(key, string(out)); err != nil {
			return nil, err
		}
	}
	d.updateCurrentBundleField(id, "survey", out)
	if _, err := d.registry.Upsert(id, &models.CustomerFile{Survey: out}); err != nil {
		return nil, err
	}
	return stored, nil
}

func (d *Documents) writeDegradedSurvey(id string, payload []byte, cause error) error {
	degraded, err := json.Marshal(degradedPayload(payload, cause))
	if err != nil {
		return err
	}
	if err := d.kv.Set(store.ToolKey("survey_", id), string(degraded)); err != nil {
		return err
	}
	if _, err := d.registry.Upsert(id, nil); err != nil {
		return err
	}
	return cause
}

// LoadPhotos returns the checklist in sequence order, matching stored entries
// by current item name, then by the legacy name at the same position, then by
// position alone.
func (d *Documents) LoadPhotos(customerID string) []models.PhotoEntry {
	id := utils.NormalizeCustomerID(customerID)
	raw, ok := d.kv.Get(store.ToolKey("photos_", id))
	var saved []models.PhotoEntry
	if ok {
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			log.Printf("documents: malformed photos for %q, starting empty: %v", id, err)
			saved = nil
		}
	}

	ordered := make([]models.PhotoEntry, len(models.PhotoItems))
	for i, itemName := range models.PhotoItems {
		entry := models.PhotoEntry{ID: i + 1, Name: itemName}
		if match := findPhoto(saved, itemName, models.LegacyPhotoItems[i], i); match != nil {
			entry.RawImage = match.RawImage
			entry.FramedImage = match.FramedImage
			entry.Measurement = match.Measurement
			entry.FileName = match.FileName
		}
		ordered[i] = entry
	}
	return ordered
}

func findPhoto(saved []models.PhotoEntry, name, legacyName string, index int) *models.PhotoEntry {
	for i := range saved {
		if saved[i].Name == name {
			return &saved[i]
		}
	}
	for i := range saved {
		if saved[i].Name == legacyName {
			return &saved[i]
		}
	}
	if index < len(saved) {
		return &saved[index]
	}
	return nil
}

// SavePhotos persists the checklist, re-framing any entry whose raw image or
// measurement changed. Entries with unchanged inputs keep their existing
// framed bytes, so saving twice never frames an image twice.
func (d *Documents) SavePhotos(customerID string, photos []models.PhotoEntry) ([]models.PhotoEntry, error) {
	id := utils.NormalizeCustomerID(customerID)
	if id == "" {
		return nil, &NormalizationError{Reason: "customer id is empty"}
	}

	previous := d.LoadPhotos(id)
	now := nowFunc()
	for i := range photos {
		photoNumber := i + 1
		photos[i].ID = photoNumber
		if photos[i].Name == "" && i < len(models.PhotoItems) {
			photos[i].Name = models.PhotoItems[i]
		}
		if photos[i].RawImage == "" {
			photos[i].FramedImage = ""
			photos[i].FileName = ""
			continue
		}

		unchanged := i < len(previous) &&
			previous[i].RawImage == photos[i].RawImage &&
			previous[i].Measurement == photos[i].Measurement &&
			previous[i].FramedImage != "" &&
			photos[i].FramedImage == previous[i].FramedImage
		if unchanged {
			photos[i].FileName = previous[i].FileName
			continue
		}

		label := BuildFrameLabel(id, photoNumber, photos[i].Measurement)
		framed, err := FramePhoto(photos[i].RawImage, label)
		if err != nil {
			log.Printf("documents: could not frame photo %d for %q: %v", photoNumber, id, err)
			photos[i].FramedImage = ""
			continue
		}
		photos[i].FramedImage = framed
		photos[i].FileName = BuildFileName(id, photoNumber, photos[i].Measurement, now)
	}

	out, err := json.Marshal(photos)
	if err != nil {
		return nil, err
	}
	if err := d.kv.Set(store.ToolKey("photos_", id), string(out)); err != nil {
		return nil, err
	}
	d.updateCurrentBundleField(id, "photos", out)
	if _, err := d.registry.Upsert(id, &models.CustomerFile{Photos: out}); err != nil {
		return nil, err
	}
	return photos, nil
}

// AutofillMeasurements maps photo checklist measurements onto bathroom
// measurement fields using the declared mapping table.
func (d *Documents) AutofillMeasurements(customerID string) map[string]string {
	photos := d.LoadPhotos(customerID)
	fields := map[string]string{}
	for _, photo := range photos {
		m := strings.TrimSpace(photo.Measurement)
		if m == "" {
			continue
		}
		desc := strings.ToLower(photo.Description)
		name := strings.ToLower(photo.Name)
		for _, mapping := range models.PhotoMeasurementMappings {
			if photo.ID == mapping.PhotoID || containsAny(desc, mapping.LabelSubstrings) || containsAny(name, mapping.LabelSubstrings) {
				fields[mapping.Field] = m
			}
		}
	}
	return fields
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// LoadCache / SaveCache handle per-page autosave snapshots.
func (d *Documents) LoadCache(page, customerID string) (string, bool) {
	return d.kv.Get(cacheKey(page, customerID))
}

func (d *Documents) SaveCache(page, customerID, payload string) error {
	return d.kv.Set(cacheKey(page, customerID), payload)
}

func cacheKey(page, customerID string) string {
	id := utils.NormalizeCustomerID(customerID)
	if id == "" {
		id = "temp"
	}
	return store.CachePrefix + page + "_" + id
}

// updateCurrentBundleField merges one tool's data into the consolidated
// current-customer bundle so other tools can read it without knowing which
// tool produced it.
func (d *Documents) updateCurrentBundleField(customerID, field string, value json.RawMessage) {
	bundle := d.readCurrentBundle()
	bundle[field] = value
	d.writeCurrentBundle(customerID, bundle)
}

func (d *Documents) updateCurrentBundleDocument(customerID, docName string, value json.RawMessage) {
	bundle := d.readCurrentBundle()
	var docs map[string]json.RawMessage
	if raw, ok := bundle["documents"]; ok {
		if err := json.Unmarshal(raw, &docs); err != nil {
			docs = nil
		}
	}
	if docs == nil {
		docs = map[string]json.RawMessage{}
	}
	docs[docName] = value
	merged, err := json.Marshal(docs)
	if err != nil {
		return
	}
	bundle["documents"] = merged
	d.writeCurrentBundle(customerID, bundle)
}

func (d *Documents) readCurrentBundle() map[string]json.RawMessage {
	raw, ok := d.kv.Get(store.CurrentBundleKey)
	if !ok {
		return map[string]json.RawMessage{}
	}
	var bundle map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		log.Printf("documents: malformed current bundle, resetting: %v", err)
		return map[string]json.RawMessage{}
	}
	return bundle
}

func (d *Documents) writeCurrentBundle(customerID string, bundle map[string]json.RawMessage) {
	meta := map[string]string{
		"version":      "1.0",
		"lastModified": nowFunc().UTC().Format(time.RFC3339),
	}
	if rawMeta, err := json.Marshal(meta); err == nil {
		bundle["metadata"] = rawMeta
	}
	if _, ok := bundle["customer"]; !ok {
		customer := map[string]string{
			"name":      customerID,
			"startTime": nowFunc().UTC().Format(time.RFC3339),
		}
		if rawCustomer, err := json.Marshal(customer); err == nil {
			bundle["customer"] = rawCustomer
		}
	}
	out, err := json.Marshal(bundle)
	if err != nil {
		return
	}
	if err := d.kv.Set(store.CurrentBundleKey, string(out)); err != nil {
		log.Printf("documents: current bundle write failed: %v", err)
	}
}

func degradedPayload(payload []byte, cause error) map[string]json.RawMessage {
	rawData, _ := json.Marshal(string(payload))
	errMsg, _ := json.Marshal(cause.Error())
	return map[string]json.RawMessage{
		"rawData":            rawData,
		"normalizationError": errMsg,
	}
}

func jsonString(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}
