package reflectutil

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBool(t *testing.T) {
	tests := []struct {
		in     any
		want   bool
		wantOK bool
	}{
		{true, true, true},
		{"enabled", true, true},
		{"Disabled", false, true},
		{"yes", true, true},
		{"off", false, true},
		{"1", true, true},
		{"maybe", false, false},
		{42, false, false},
	}
	for _, tt := range tests {
		got, ok := ToBool(reflect.ValueOf(tt.in))
		assert.Equal(t, tt.wantOK, ok, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestToFloat64(t *testing.T) {
	f, ok := ToFloat64(reflect.ValueOf(" 30 "))
	assert.True(t, ok)
	assert.Equal(t, 30.0, f)

	f, ok = ToFloat64(reflect.ValueOf(uint16(8443)))
	assert.True(t, ok)
	assert.Equal(t, 8443.0, f)

	_, ok = ToFloat64(reflect.ValueOf("http"))
	assert.False(t, ok)
}

func TestIsEmptyValue(t *testing.T) {
	assert.True(t, IsEmptyValue(nil))
	assert.True(t, IsEmptyValue(""))
	assert.True(t, IsEmptyValue([]any{}))
	assert.True(t, IsEmptyValue(0))
	assert.False(t, IsEmptyValue("x"))
	assert.False(t, IsEmptyValue(map[string]any{"a": 1}))
}
