package resources

import (
	"fmt"
	"strings"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/schema"
)

// skipAPI marks fields translated only by hooks.
const skipAPI = "-"

// tildePath renders an identity the way REST paths embed it: ~Common~name or
// ~Common~sub~name.
func tildePath(id domain.Identity) string {
	partition := id.Partition
	if partition == "" {
		partition = domain.DefaultPartition
	}
	parts := []string{"", partition}
	if id.SubPath != "" {
		parts = append(parts, strings.Split(id.SubPath, "/")...)
	}
	parts = append(parts, id.Name)
	return strings.Join(parts, "~")
}

// ParseReference splits "/Partition/name" or "/Partition/sub/name" into an
// identity. Bare names land in the default partition.
func ParseReference(ref string) domain.Identity {
	trimmed := strings.Trim(ref, "/")
	if !strings.HasPrefix(ref, "/") || !strings.Contains(trimmed, "/") {
		return domain.Identity{Name: trimmed, Partition: domain.DefaultPartition}
	}
	parts := strings.Split(trimmed, "/")
	id := domain.Identity{Partition: parts[0], Name: parts[len(parts)-1]}
	if len(parts) > 2 {
		id.SubPath = strings.Join(parts[1:len(parts)-1], "/")
	}
	return id
}

// Qualify prefixes a bare object name with its partition.
func Qualify(partition, name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "/") {
		return name
	}
	if partition == "" {
		partition = domain.DefaultPartition
	}
	return fmt.Sprintf("/%s/%s", partition, name)
}

func qualifyValue(partition string, v any) any {
	switch t := v.(type) {
	case string:
		return Qualify(partition, t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = Qualify(partition, s)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = qualifyValue(partition, e)
		}
		return out
	default:
		return v
	}
}

// encodeAttributes renames parameters to API attributes. Unknown keys pass
// through unchanged so list entries keep fields this tool does not manage.
func encodeAttributes(s *schema.Schema, attrs map[string]any, body map[string]any) {
	for k, v := range attrs {
		f, ok := s.Field(k)
		if !ok {
			body[k] = v
			continue
		}
		if f.Control || f.API() == skipAPI {
			continue
		}
		body[f.API()] = v
	}
}

// decodeAttributes is the inverse of encodeAttributes. Write-only fields are
// never reported.
func decodeAttributes(s *schema.Schema, obj map[string]any, keepUnknown bool) map[string]any {
	attrs := make(map[string]any, len(obj))
	known := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		api := f.API()
		if api == skipAPI {
			continue
		}
		known[api] = struct{}{}
		if f.WriteOnly {
			continue
		}
		if v, ok := obj[api]; ok {
			attrs[f.Name] = v
		}
	}
	if keepUnknown {
		for k, v := range obj {
			if _, ok := known[k]; !ok {
				attrs[k] = v
			}
		}
	}
	return attrs
}
