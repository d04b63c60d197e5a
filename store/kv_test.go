package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreBasics(t *testing.T) {
	kv := NewMemoryStore()

	_, ok := kv.Get("missing")
	assert.False(t, ok)

	require.NoError(t, kv.Set("customer_SMITH", `{"lastName":"SMITH"}`))
	v, ok := kv.Get("customer_SMITH")
	require.True(t, ok)
	assert.Equal(t, `{"lastName":"SMITH"}`, v)

	require.NoError(t, kv.Set("survey_SMITH", "{}"))
	assert.ElementsMatch(t, []string{"customer_SMITH", "survey_SMITH"}, kv.ListKeys())

	kv.Remove("survey_SMITH")
	_, ok = kv.Get("survey_SMITH")
	assert.False(t, ok)
}

func TestMemoryStoreQuota(t *testing.T) {
	kv := NewMemoryStore()
	kv.MaxBytes = 20

	// "k" + "1234" is 5 UTF-16 units, 10 bytes.
	require.NoError(t, kv.Set("k", "1234"))

	err := kv.Set("j", "123456")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Overwriting frees the old value before accounting the new one.
	require.NoError(t, kv.Set("k", "12345"))

	// The failed write must not have landed.
	_, ok := kv.Get("j")
	assert.False(t, ok)
}

func TestMemoryStoreUTF16Accounting(t *testing.T) {
	kv := NewMemoryStore()

	// U+1D11E is outside the BMP: one rune, two UTF-16 code units.
	require.NoError(t, kv.Set("a", "\U0001D11E"))
	assert.Equal(t, int64(6), kv.EstimateByteSize())

	require.NoError(t, kv.Set("b", "abc"))
	assert.Equal(t, int64(6+8), kv.EstimateByteSize())
}

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "customer_SMITH", CustomerKey("SMITH"))
	assert.Equal(t, "surveyStructured_SMITH", ToolKey("surveyStructured_", "SMITH"))
}
