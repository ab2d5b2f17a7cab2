package domain

import (
	"fmt"
	"maps"
	"strings"
)

// Identity uniquely addresses a resource on the appliance.
type Identity struct {
	Name      string
	Partition string
	SubPath   string
}

// FullPath renders the identity the way the appliance prints it:
// /Partition/name or /Partition/subPath/name.
func (id Identity) FullPath() string {
	partition := id.Partition
	if partition == "" {
		partition = DefaultPartition
	}
	if id.SubPath != "" {
		return fmt.Sprintf("/%s/%s/%s", partition, id.SubPath, id.Name)
	}
	return fmt.Sprintf("/%s/%s", partition, id.Name)
}

func (id Identity) String() string { return id.FullPath() }

// DesiredState is the caller-declared target configuration for one resource.
// Attributes never contains reserved keys. Treat values as read-only.
type DesiredState struct {
	Kind       ResourceKind
	Identity   Identity
	State      State
	Attributes map[string]any
	// Source records where the declaration came from (file, block address).
	Source string
}

// NewDesiredState splits a raw parameter map into identity, state and
// comparable attributes. The input map is not retained.
func NewDesiredState(kind ResourceKind, params map[string]any) (DesiredState, error) {
	ds := DesiredState{
		Kind:       kind,
		State:      StatePresent,
		Attributes: make(map[string]any, len(params)),
		Identity:   Identity{Partition: DefaultPartition},
	}

	for k, v := range params {
		switch k {
		case KeyName:
			s, ok := v.(string)
			if !ok {
				return DesiredState{}, fmt.Errorf("%s must be a string, got %T", KeyName, v)
			}
			ds.Identity.Name = strings.TrimSpace(s)
		case KeyPartition:
			s, ok := v.(string)
			if !ok {
				return DesiredState{}, fmt.Errorf("%s must be a string, got %T", KeyPartition, v)
			}
			if s = strings.Trim(strings.TrimSpace(s), "/"); s != "" {
				ds.Identity.Partition = s
			}
		case KeySubPath:
			s, ok := v.(string)
			if !ok {
				return DesiredState{}, fmt.Errorf("%s must be a string, got %T", KeySubPath, v)
			}
			ds.Identity.SubPath = strings.Trim(strings.TrimSpace(s), "/")
		case KeyState:
			s, ok := v.(string)
			if !ok {
				return DesiredState{}, fmt.Errorf("%s must be a string, got %T", KeyState, v)
			}
			if s != "" {
				ds.State = State(s)
			}
		default:
			ds.Attributes[k] = v
		}
	}

	if !ds.State.Valid() {
		return DesiredState{}, fmt.Errorf("%s must be one of present, absent; got %q", KeyState, ds.State)
	}
	return ds, nil
}

// WithAttributes returns a copy carrying attrs instead of the current map.
func (d DesiredState) WithAttributes(attrs map[string]any) DesiredState {
	d.Attributes = maps.Clone(attrs)
	return d
}

// Params reassembles the full parameter map, reserved keys included.
func (d DesiredState) Params() map[string]any {
	out := maps.Clone(d.Attributes)
	if out == nil {
		out = make(map[string]any)
	}
	out[KeyName] = d.Identity.Name
	out[KeyPartition] = d.Identity.Partition
	if d.Identity.SubPath != "" {
		out[KeySubPath] = d.Identity.SubPath
	}
	out[KeyState] = string(d.State)
	return out
}

// RemoteResource is the appliance's current view of a resource, with
// attribute keys already translated into parameter names.
type RemoteResource struct {
	Identity   Identity
	Attributes map[string]any
}

// Declaration is an unvalidated desired-state entry as read from a source.
type Declaration struct {
	Kind   ResourceKind
	Params map[string]any
	Source string
}
