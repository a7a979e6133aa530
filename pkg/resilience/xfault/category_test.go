package xfault

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "NETWORK", CategoryNetwork.String())
	assert.Equal(t, "TIMEOUT", CategoryTimeout.String())
	assert.Equal(t, "RATE_LIMIT", CategoryRateLimit.String())
	assert.Equal(t, "CLIENT_ERROR", CategoryClientError.String())
	assert.Equal(t, "SERVER_ERROR", CategoryServerError.String())
	assert.Equal(t, "LOCAL_FAULT", CategoryLocalFault.String())
	assert.Equal(t, "UNKNOWN", CategoryUnknown.String())
	assert.Equal(t, "Category(42)", Category(42).String())
}

func TestCategories(t *testing.T) {
	all := Categories()
	assert.Len(t, all, 7)
	seen := make(map[Category]bool)
	for _, c := range all {
		assert.True(t, c.Valid())
		seen[c] = true
	}
	assert.Len(t, seen, 7)
}

func TestCategory_Transient(t *testing.T) {
	assert.True(t, CategoryNetwork.Transient())
	assert.True(t, CategoryTimeout.Transient())
	assert.True(t, CategoryRateLimit.Transient())
	assert.True(t, CategoryServerError.Transient())
	assert.False(t, CategoryClientError.Transient())
	assert.False(t, CategoryLocalFault.Transient())
	assert.False(t, CategoryUnknown.Transient())
}

func TestParseCategory(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		for _, c := range Categories() {
			got, err := ParseCategory(c.String())
			require.NoError(t, err)
			assert.Equal(t, c, got)
		}
	})

	t.Run("Lenient", func(t *testing.T) {
		got, err := ParseCategory("  rate-limit ")
		require.NoError(t, err)
		assert.Equal(t, CategoryRateLimit, got)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseCategory("API_5XX")
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})
}

func TestCategory_JSONKeys(t *testing.T) {
	in := map[Category]int{CategoryNetwork: 1, CategoryServerError: 2}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"NETWORK":1,"SERVER_ERROR":2}`, string(data))

	var out map[Category]int
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	_, err = Category(99).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
