package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olusolaa/appliance-converge/internal/errors"
)

// parseVarOverrides turns repeated --var name=value flags into HCL variable
// values.
func parseVarOverrides(pairs []string) (map[string]any, error) {
	return parseAssignments("var", pairs)
}

// parseAssignments parses name=value pairs given through --<flag>. Integers
// and booleans are recognised; anything else stays a string.
func parseAssignments(flag string, pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	parsed := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				fmt.Sprintf("invalid --%s value %q", flag, pair), fmt.Sprintf("Use --%s name=value.", flag))
		}
		parsed[name] = scalar(strings.TrimSpace(value))
	}
	if len(parsed) == 0 {
		return nil, nil
	}
	return parsed, nil
}

func scalar(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
