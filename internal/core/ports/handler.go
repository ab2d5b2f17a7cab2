package ports

import (
	"context"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
)

// Target is what a kind resolves to for one run: either a standalone
// resource binding or a list-entry binding. Exactly one is set.
type Target struct {
	Binding *Binding
	Member  *MemberBinding
	// Unresolved is set when a child's parent does not exist yet. Binding
	// then reports the child as absent; only check mode may proceed.
	Unresolved error
}

// KindHandler knows one resource kind: its parameter schema and how to bind
// a desired state to appliance operations.
//
//go:generate mockery --name KindHandler --output ./mocks --outpkg mocks --case underscore
type KindHandler interface {
	Kind() domain.ResourceKind
	// Normalize validates raw params and fills defaults.
	Normalize(params map[string]any) (map[string]any, error)
	// Resolve builds the target, performing any parent lookups.
	Resolve(ctx context.Context, desired domain.DesiredState) (Target, error)
}
