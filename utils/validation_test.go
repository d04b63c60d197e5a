package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCustomerID(t *testing.T) {
	assert.Equal(t, "SMITH", NormalizeCustomerID("  smith "))
	assert.Equal(t, "O'BRIEN", NormalizeCustomerID("o'brien"))
	assert.Equal(t, "", NormalizeCustomerID("   "))
}

func TestSanitizeFilePart(t *testing.T) {
	assert.Equal(t, "32_1_2", SanitizeFilePart("32 1/2"))
	assert.Equal(t, "O_BRIEN", SanitizeFilePart("O'BRIEN"))
	assert.Equal(t, "Left_Wall_Depth", SanitizeFilePart("Left Wall Depth"))
	assert.Equal(t, "", SanitizeFilePart("---"))
}

func TestCustomerLastName(t *testing.T) {
	assert.Equal(t, "Doe", CustomerLastName("John Doe"))
	assert.Equal(t, "SMITH", CustomerLastName("SMITH"))
	assert.Equal(t, "Customer", CustomerLastName(""))
	assert.Equal(t, "Customer", CustomerLastName("  ***  "))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+14155552671"))
	assert.True(t, ValidatePhone("(415) 555-2671"))
	assert.False(t, ValidatePhone("not-a-number"))
	assert.False(t, ValidatePhone("+0123"))
}

func TestDayStamp(t *testing.T) {
	assert.Equal(t, "2026-01-15", DayStamp(time.Date(2026, 1, 15, 23, 59, 0, 0, time.UTC)))
}
