// Package compare decides whether a desired attribute value matches what the
// appliance reports, tolerating the type drift between user input and the
// REST API (numbers as strings, toggles as enabled/disabled, lists as sets).
package compare

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/olusolaa/appliance-converge/pkg/convert"
	"github.com/olusolaa/appliance-converge/pkg/reflectutil"
)

// RobustCompare reports whether expected and actual are equal for
// reconciliation purposes. A missing value is equal to an empty one. Nested
// maps are compared on the expected side's keys only, so fields the caller did
// not mention never cause a difference.
func RobustCompare(expected, actual any, expectedExists, actualExists bool) (bool, error) {
	if !expectedExists && !actualExists {
		return true, nil
	}
	if !expectedExists || !actualExists || expected == nil || actual == nil {
		return reflectutil.IsEmptyValue(expected) && reflectutil.IsEmptyValue(actual), nil
	}

	expVal := reflectutil.DerefValue(reflect.ValueOf(expected))
	actVal := reflectutil.DerefValue(reflect.ValueOf(actual))
	if !expVal.IsValid() || !actVal.IsValid() {
		return expVal.IsValid() == actVal.IsValid(), nil
	}

	switch {
	case expVal.Kind() == reflect.Map && actVal.Kind() == reflect.Map:
		return compareMapSubset(expVal, actVal)
	case expVal.Kind() == reflect.Slice && actVal.Kind() == reflect.Slice:
		return compareSlicesOrdered(expVal, actVal)
	case expVal.Kind() == reflect.Map || actVal.Kind() == reflect.Map,
		expVal.Kind() == reflect.Slice || actVal.Kind() == reflect.Slice:
		return false, nil
	}

	if expVal.Kind() == reflect.Bool || actVal.Kind() == reflect.Bool {
		expBool, expOk := reflectutil.ToBool(expVal)
		actBool, actOk := reflectutil.ToBool(actVal)
		if expOk && actOk {
			return expBool == actBool, nil
		}
		return false, nil
	}

	if expVal.Kind() == reflect.String && actVal.Kind() == reflect.String && expVal.String() == actVal.String() {
		return true, nil
	}

	if reflectutil.IsNumberOrNumericString(expVal) && reflectutil.IsNumberOrNumericString(actVal) {
		expFloat, expOk := reflectutil.ToFloat64(expVal)
		actFloat, actOk := reflectutil.ToFloat64(actVal)
		if expOk && actOk {
			const tolerance = 1e-9
			diff := expFloat - actFloat
			return diff < tolerance && diff > -tolerance, nil
		}
	}

	if expVal.Kind() == reflect.String && actVal.Kind() == reflect.String {
		return false, nil
	}

	if expVal.Type() == actVal.Type() && expVal.Type().Comparable() {
		return expVal.Interface() == actVal.Interface(), nil
	}

	return cmp.Equal(expVal.Interface(), actVal.Interface(), cmpopts.EquateEmpty()), nil
}

// UnorderedCompare treats both values as sets: every expected element must
// match some actual element and vice versa. Duplicates are ignored.
func UnorderedCompare(expected, actual any, expectedExists, actualExists bool) (bool, error) {
	if !expectedExists || !actualExists || expected == nil || actual == nil {
		return RobustCompare(expected, actual, expectedExists, actualExists)
	}

	expStrs, expErr := convert.ToScalarStrings(expected)
	actStrs, actErr := convert.ToScalarStrings(actual)
	if expErr == nil && actErr == nil {
		equal, _ := Sets(expStrs, actStrs)
		return equal, nil
	}

	expVal := reflectutil.DerefValue(reflect.ValueOf(expected))
	actVal := reflectutil.DerefValue(reflect.ValueOf(actual))
	if expVal.Kind() != reflect.Slice || actVal.Kind() != reflect.Slice {
		return RobustCompare(expected, actual, true, true)
	}

	// Elements are always compared expected-first so map elements keep
	// their subset semantics in both directions.
	covers := func(from, to reflect.Value, fromExpected bool) (bool, error) {
		for i := 0; i < from.Len(); i++ {
			found := false
			for j := 0; j < to.Len(); j++ {
				exp, act := from.Index(i).Interface(), to.Index(j).Interface()
				if !fromExpected {
					exp, act = act, exp
				}
				eq, err := RobustCompare(exp, act, true, true)
				if err != nil {
					return false, fmt.Errorf("set element %d: %w", i, err)
				}
				if eq {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		}
		return true, nil
	}

	ok, err := covers(expVal, actVal, true)
	if err != nil || !ok {
		return false, err
	}
	return covers(actVal, expVal, false)
}

func compareMapSubset(expMapVal, actMapVal reflect.Value) (bool, error) {
	actByKey := make(map[string]reflect.Value, actMapVal.Len())
	iterAct := actMapVal.MapRange()
	for iterAct.Next() {
		actByKey[fmt.Sprintf("%v", iterAct.Key().Interface())] = iterAct.Value()
	}

	iterExp := expMapVal.MapRange()
	for iterExp.Next() {
		keyStr := fmt.Sprintf("%v", iterExp.Key().Interface())
		actV, exists := actByKey[keyStr]
		var actIface any
		if exists {
			actIface = actV.Interface()
		}
		equal, err := RobustCompare(iterExp.Value().Interface(), actIface, true, exists)
		if err != nil {
			return false, fmt.Errorf("map key '%s': %w", keyStr, err)
		}
		if !equal {
			return false, nil
		}
	}
	return true, nil
}

func compareSlicesOrdered(expSliceVal, actSliceVal reflect.Value) (bool, error) {
	if expSliceVal.Len() != actSliceVal.Len() {
		return false, nil
	}
	for i := 0; i < expSliceVal.Len(); i++ {
		equal, err := RobustCompare(expSliceVal.Index(i).Interface(), actSliceVal.Index(i).Interface(), true, true)
		if err != nil {
			return false, fmt.Errorf("slice idx %d: %w", i, err)
		}
		if !equal {
			return false, nil
		}
	}
	return true, nil
}

// Sets checks if two string slices contain the same elements, ignoring order
// and duplicates. The second return value describes the difference.
func Sets(setA, setB []string) (bool, string) {
	inA := make(map[string]struct{}, len(setA))
	for _, s := range setA {
		inA[s] = struct{}{}
	}
	inB := make(map[string]struct{}, len(setB))
	for _, s := range setB {
		inB[s] = struct{}{}
	}

	var missing, extra []string
	for k := range inA {
		if _, ok := inB[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range inB {
		if _, ok := inA[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return true, ""
	}

	sort.Strings(missing)
	sort.Strings(extra)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("Added: [%s]", strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("Removed: [%s]", strings.Join(extra, ", ")))
	}
	return false, strings.Join(parts, "; ")
}

// Describe renders a short human-readable explanation of a difference.
func Describe(expected, actual any, unordered bool) string {
	if unordered {
		expStrs, expErr := convert.ToScalarStrings(expected)
		actStrs, actErr := convert.ToScalarStrings(actual)
		if expErr == nil && actErr == nil {
			_, details := Sets(expStrs, actStrs)
			return details
		}
	}

	expVal := reflectutil.DerefValue(reflect.ValueOf(expected))
	actVal := reflectutil.DerefValue(reflect.ValueOf(actual))
	if expVal.IsValid() && actVal.IsValid() &&
		(expVal.Kind() == reflect.Map || expVal.Kind() == reflect.Slice) {
		return strings.TrimSpace(cmp.Diff(actual, expected))
	}
	if actual == nil {
		return fmt.Sprintf("expected '%v', attribute not set", expected)
	}
	return fmt.Sprintf("expected '%v', actual '%v'", expected, actual)
}
