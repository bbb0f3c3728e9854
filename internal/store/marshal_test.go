package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ownerchain/internal/ir"
)

func TestCanonicalPayload(t *testing.T) {
	got, err := canonicalPayload([]byte(`{"z":true,"a":{"y":2,"x":"<&>"}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"x":"<&>","y":2},"z":true}`, got)
}

func TestCanonicalPayload_LargeIntegers(t *testing.T) {
	got, err := canonicalPayload([]byte(`{"created_at":9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, `{"created_at":9007199254740993}`, got)
}

func TestCanonicalPayload_Floats(t *testing.T) {
	_, err := canonicalPayload([]byte(`{"f":0.5}`))
	require.Error(t, err)
	assert.Equal(t, ir.CodeInvalidPayload, ir.CodeOf(err))
}
