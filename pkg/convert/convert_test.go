package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSliceOfString(t *testing.T) {
	got, err := ToSliceOfString([]any{"a", 1, true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1", "true"}, got)

	got, err = ToSliceOfString("single")
	require.NoError(t, err)
	assert.Equal(t, []string{"single"}, got)

	_, err = ToSliceOfString(map[string]any{})
	assert.ErrorIs(t, err, errNotSlice)
}

func TestToScalarStrings(t *testing.T) {
	got, err := ToScalarStrings([]any{"10.0.0.1", "10.0.0.2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, got)

	_, err = ToScalarStrings([]any{map[string]any{"ip": "10.0.0.1"}})
	assert.ErrorIs(t, err, errNotScalarElement)
}

func TestToSliceOfMap(t *testing.T) {
	got, err := ToSliceOfMap([]any{map[string]any{"host": "10.1.1.1"}})
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", got[0]["host"])

	_, err = ToSliceOfMap([]any{"x"})
	assert.ErrorIs(t, err, errNotMapElement)
}
