package hclfile

import (
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// toGo converts an evaluated value into the plain Go shape declarations use:
// string, bool, int64, float64, []any and map[string]any.
func toGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value of type %s is not known until apply", val.Type().FriendlyName())
	}

	raw, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", val.Type().FriendlyName(), err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", val.Type().FriendlyName(), err)
	}
	return normalizeNumbers(out), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case float64:
		if t >= math.MinInt64 && t <= math.MaxInt64 && t == math.Trunc(t) {
			return int64(t)
		}
		return t
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
		return t
	}
	return v
}

// fromGo converts a value supplied through configuration into cty.
func fromGo(v any) (cty.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return cty.NilVal, err
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(raw, ty)
}
