// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var filePartPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// NormalizeCustomerID collapses consultant-entered names to one identifier.
// "Smith" and " smith " must resolve to the same registry entry.
func NormalizeCustomerID(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// SanitizeFilePart strips everything but letters and digits for use in
// generated filenames and cache keys.
func SanitizeFilePart(value string) string {
	cleaned := filePartPattern.ReplaceAllString(value, "_")
	return strings.Trim(cleaned, "_")
}

// CustomerLastName extracts the last word of a full name for photo filenames.
func CustomerLastName(name string) string {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "Customer"
	}
	parts := strings.Fields(clean)
	last := SanitizeFilePart(parts[len(parts)-1])
	if last == "" {
		return "Customer"
	}
	return last
}

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	// Clean the phone number
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	// Allows + prefix followed by 7-15 digits
	regex := `^\+?[1-9]\d{1,14}$`
	match, _ := regexp.MatchString(regex, cleaned)
	return match
}
