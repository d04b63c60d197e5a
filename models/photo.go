package models

// PhotoEntry is one slot of the photo checklist. FramedImage is always a pure
// function of (RawImage, Measurement, customer id, sequence index) and is
// regenerated whenever either input changes; it is never edited by hand.
type PhotoEntry struct {
	ID          int    `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RawImage    string `json:"rawDataUrl"` // unframed, base64 data URL
	FramedImage string `json:"dataUrl"`    // RawImage + overlay bar
	Measurement string `json:"measurement"`
	FileName    string `json:"fileName"`
}

// PhotoItems is the current checklist, in sequence order.
var PhotoItems = []string{
	"Driving up to the house",
	"Hallway leading to the bathroom",
	"Entire wet area – front view",
	"Entire left wall view (remove all peripherals)",
	"Entire right wall view (remove all peripherals)",
	"Measure and photo of left wall depth",
	"Measure and photo of right wall depth",
	"Measure and photo of soap dish wall depth",
	"Measure and photo of ceiling height (FLOOR to CEILING)",
	"Downward photo of bath or tub floor",
	"Entire ceiling above tub",
	"Height of shower above tub",
	"Width of the tub",
	"Window – measure and photo of width",
	"Window – measure and photo of height",
}

// LegacyPhotoItems is the checklist an older build shipped; saved entries are
// matched against it position by position when loading.
var LegacyPhotoItems = []string{
	"Front of House",
	"Bathroom Entry Door",
	"Full Bathroom Wide Shot",
	"Tub/Shower - Full View",
	"Tub/Shower - Close Up",
	"Faucet & Fixtures",
	"Shower Head",
	"Drain Area",
	"Wall Condition - Left",
	"Wall Condition - Right",
	"Wall Condition - Back",
	"Ceiling Above Tub/Shower",
	"Floor / Base",
	"Vanity Area",
	"Any Damage or Problem Areas",
}

// PhotoShortLabels feed the frame overlay text and generated filenames.
var PhotoShortLabels = []string{
	"House Exterior",
	"Hallway",
	"Wet Area Front",
	"Left Wall",
	"Right Wall",
	"Left Wall Depth",
	"Right Wall Depth",
	"Soap Wall Depth",
	"Ceiling Height",
	"Tub Floor",
	"Ceiling Above Tub",
	"Shower Height",
	"Tub Width",
	"Window Width",
	"Window Height",
}

// MeasurementRequired lists the 1-based photo numbers that must carry a
// measurement before the checklist counts them complete.
var MeasurementRequired = map[int]bool{
	6: true, 7: true, 8: true, 9: true, 12: true, 13: true, 14: true, 15: true,
}

// MeasurementMapping routes a photo slot's measurement text into a bathroom
// measurement field. Declared data, not inferred: the label substrings cover
// entries saved by older checklists.
type MeasurementMapping struct {
	PhotoID         int
	LabelSubstrings []string
	Field           string
}

// PhotoMeasurementMappings preserves the established mapping rules:
// photo 6 / left wall depth -> B, photo 7 / right wall depth -> E,
// photo 8 / soap dish wall depth -> D.
var PhotoMeasurementMappings = []MeasurementMapping{
	{PhotoID: 6, LabelSubstrings: []string{"left wall depth", "wall condition - left"}, Field: "B"},
	{PhotoID: 7, LabelSubstrings: []string{"right wall depth", "wall condition - right"}, Field: "E"},
	{PhotoID: 8, LabelSubstrings: []string{"soap dish", "drain area"}, Field: "D"},
}
