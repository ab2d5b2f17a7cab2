// Package schema declares the parameters a resource kind accepts and
// normalises user input against that declaration before reconciliation.
package schema

import (
	stderrs "errors"
	"fmt"
	"maps"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/pkg/reflectutil"
)

type FieldType string

const (
	TypeString     FieldType = "string"
	TypeInt        FieldType = "int"
	TypeBool       FieldType = "bool"
	TypeStringList FieldType = "list_of_strings"
	TypeList       FieldType = "list"
	TypeMap        FieldType = "map"
)

type Field struct {
	Name     string
	Type     FieldType
	Required bool
	Default  any
	Choices  []string
	// APIName is the appliance attribute. Defaults to Name in lowerCamelCase.
	APIName string
	// Set marks list fields whose order carries no meaning.
	Set bool
	// WriteOnly values are sent but never read back, so never compared.
	WriteOnly bool
	// Control values steer the binding (e.g. a transition target) and are
	// neither sent as attributes nor compared.
	Control bool
	// Reference values name other objects and are qualified with a partition.
	Reference bool
	// Validate is an extra go-playground/validator tag, e.g. "ip" or "min=1".
	Validate string
}

// API returns the appliance attribute name for the field.
func (f Field) API() string {
	if f.APIName != "" {
		return f.APIName
	}
	return SnakeToCamel(f.Name)
}

type RequiredIf struct {
	Field    string
	Value    any
	Requires []string
}

type Schema struct {
	Fields            []Field
	MutuallyExclusive [][]string
	RequiredTogether  [][]string
	RequiredIf        []RequiredIf
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Field looks a field up by parameter name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names lists parameter names matching pred.
func (s *Schema) Names(pred func(Field) bool) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range s.Fields {
		if pred(f) {
			out[f.Name] = struct{}{}
		}
	}
	return out
}

// Validate checks params against the schema and returns a normalised copy
// with defaults filled in and values coerced to their declared types. An
// absent declaration only has its supplied values checked. All problems are
// reported together as one VALIDATION_ERROR.
func (s *Schema) Validate(params map[string]any) (map[string]any, error) {
	out := maps.Clone(params)
	if out == nil {
		out = make(map[string]any)
	}
	var problems []string

	name, _ := out[domain.KeyName].(string)
	if strings.TrimSpace(name) == "" {
		problems = append(problems, "name: is required")
	}
	present := true
	if st, ok := out[domain.KeyState].(string); ok && st == string(domain.StateAbsent) {
		present = false
	}

	for k := range out {
		if domain.IsReservedKey(k) {
			continue
		}
		if _, ok := s.Field(k); !ok {
			problems = append(problems, fmt.Sprintf("%s: unsupported parameter", k))
		}
	}

	for _, f := range s.Fields {
		v, ok := out[f.Name]
		if !ok || v == nil {
			delete(out, f.Name)
			if present && f.Default != nil {
				out[f.Name] = f.Default
			} else if present && f.Required {
				problems = append(problems, fmt.Sprintf("%s: is required", f.Name))
			}
			continue
		}

		coerced, err := coerce(f, v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		if err := checkValue(f, coerced); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		out[f.Name] = coerced
	}

	if present {
		problems = append(problems, s.checkGroups(out)...)
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, errors.NewUserFacing(errors.CodeValidation,
			"invalid parameters: "+strings.Join(problems, "; "),
			"Check the resource parameters against the kind's documented options.")
	}
	return out, nil
}

func (s *Schema) checkGroups(params map[string]any) []string {
	var problems []string
	has := func(k string) bool {
		v, ok := params[k]
		return ok && !reflectutil.IsEmptyValue(v)
	}

	for _, group := range s.MutuallyExclusive {
		var set []string
		for _, k := range group {
			if has(k) {
				set = append(set, k)
			}
		}
		if len(set) > 1 {
			problems = append(problems, fmt.Sprintf("parameters are mutually exclusive: %s", strings.Join(set, ", ")))
		}
	}

	for _, group := range s.RequiredTogether {
		var missing []string
		for _, k := range group {
			if !has(k) {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 && len(missing) < len(group) {
			problems = append(problems, fmt.Sprintf("parameters are required together: %s", strings.Join(group, ", ")))
		}
	}

	for _, rule := range s.RequiredIf {
		v, ok := params[rule.Field]
		if !ok || fmt.Sprintf("%v", v) != fmt.Sprintf("%v", rule.Value) {
			continue
		}
		for _, req := range rule.Requires {
			if !has(req) {
				problems = append(problems, fmt.Sprintf("%s: is required when %s is %v", req, rule.Field, rule.Value))
			}
		}
	}
	return problems
}

func coerce(f Field, v any) (any, error) {
	switch f.Type {
	case TypeString, "":
		var out string
		if err := mapstructure.WeakDecode(v, &out); err != nil {
			return nil, fmt.Errorf("expected a string: %w", err)
		}
		return out, nil
	case TypeInt:
		var out int
		if err := mapstructure.WeakDecode(v, &out); err != nil {
			return nil, fmt.Errorf("expected an integer, got %v", v)
		}
		return out, nil
	case TypeBool:
		if b, ok := reflectutil.ToBool(reflect.ValueOf(v)); ok {
			return b, nil
		}
		return nil, fmt.Errorf("expected a boolean, got %v", v)
	case TypeStringList:
		var out []string
		if err := mapstructure.WeakDecode(asSlice(v), &out); err != nil {
			return nil, fmt.Errorf("expected a list of strings: %w", err)
		}
		return out, nil
	case TypeList:
		return asSlice(v), nil
	case TypeMap:
		var out map[string]any
		if err := mapstructure.WeakDecode(v, &out); err != nil {
			return nil, fmt.Errorf("expected a mapping: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}
}

func asSlice(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func checkValue(f Field, v any) error {
	if len(f.Choices) > 0 {
		tag := "oneof=" + strings.Join(f.Choices, " ")
		if f.Type == TypeStringList {
			tag = "dive," + tag
		}
		if err := validate.Var(v, tag); err != nil {
			return fmt.Errorf("value %v is not one of [%s]", v, strings.Join(f.Choices, ", "))
		}
	}
	if f.Validate != "" {
		if err := validate.Var(v, f.Validate); err != nil {
			var verrs validator.ValidationErrors
			if stderrs.As(err, &verrs) && len(verrs) > 0 {
				return fmt.Errorf("value %v failed '%s' validation", v, verrs[0].Tag())
			}
			return err
		}
	}
	return nil
}

// SnakeToCamel converts "slow_ramp_time" to "slowRampTime".
func SnakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] == "" {
			continue
		}
		r := []rune(parts[i])
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, "")
}
