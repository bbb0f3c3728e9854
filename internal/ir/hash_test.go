package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryHashDeterminism(t *testing.T) {
	payload := []byte(`{"display_name":"Ada","updated_at":1}`)

	h1, err := EntryHash("owner-1", KindProfile, "", payload, 1)
	require.NoError(t, err)
	h2, err := EntryHash("owner-1", KindProfile, "", payload, 1)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "EntryHash must be deterministic")
	assert.Len(t, string(h1), 64, "SHA-256 hex is 64 characters")
}

func TestEntryHashIgnoresPayloadFormatting(t *testing.T) {
	a := MustEntryHash("owner-1", KindProfile, "", []byte(`{"b":1,"a":2}`), 1)
	b := MustEntryHash("owner-1", KindProfile, "", []byte(`{ "a": 2, "b": 1 }`), 1)
	assert.Equal(t, a, b)
}

func TestEntryHashChangesWithInput(t *testing.T) {
	payload := []byte(`{"a":1}`)

	base := MustEntryHash("owner-1", KindProfile, "", payload, 1)
	tests := map[string]Hash{
		"author":      MustEntryHash("owner-2", KindProfile, "", payload, 1),
		"kind":        MustEntryHash("owner-1", KindSecret, "", payload, 1),
		"predecessor": MustEntryHash("owner-1", KindProfile, "abc", payload, 1),
		"payload":     MustEntryHash("owner-1", KindProfile, "", []byte(`{"a":2}`), 1),
		"seq":         MustEntryHash("owner-1", KindProfile, "", payload, 2),
	}

	for name, h := range tests {
		assert.NotEqual(t, base, h, "changing %s must change the hash", name)
	}
}

func TestEntryHashRejectsInvalidPayload(t *testing.T) {
	_, err := EntryHash("owner-1", KindProfile, "", []byte(`not json`), 1)
	assert.Error(t, err)

	assert.Panics(t, func() {
		MustEntryHash("owner-1", KindProfile, "", []byte(`{"f":1.5}`), 1)
	})
}

func TestBundleDigestStable(t *testing.T) {
	a, err := BundleDigest(map[string]any{"schema_version": "1.9", "export_timestamp": 5})
	require.NoError(t, err)
	b, err := BundleDigest(map[string]any{"export_timestamp": 5, "schema_version": "1.9"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
