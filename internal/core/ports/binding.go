package ports

import (
	"context"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
)

type (
	ExistsFunc     func(ctx context.Context, id domain.Identity) (bool, error)
	ReadFunc       func(ctx context.Context, id domain.Identity) (domain.RemoteResource, error)
	CreateFunc     func(ctx context.Context, desired domain.DesiredState) (domain.RemoteResource, error)
	UpdateFunc     func(ctx context.Context, id domain.Identity, desired domain.DesiredState) (domain.RemoteResource, error)
	DeleteFunc     func(ctx context.Context, id domain.Identity) error
	TransitionFunc func(ctx context.Context, id domain.Identity, target string) error
)

// Binding is the set of operations one resource type supports. A nil handle
// means the operation is unsupported for that type.
type Binding struct {
	Kind   domain.ResourceKind
	Exists ExistsFunc
	Read   ReadFunc
	Create CreateFunc
	Update UpdateFunc
	Delete DeleteFunc

	Transition *Transition

	// SetFields are list attributes compared without regard to order.
	SetFields map[string]struct{}
	// IgnoreFields are never compared, e.g. write-only secrets.
	IgnoreFields map[string]struct{}
}

// Transition models a secondary lifecycle such as draft/published.
type Transition struct {
	// Key is the desired attribute holding the target substate.
	Key     string
	Current func(remote domain.RemoteResource) string
	Apply   TransitionFunc
}

// MemberBinding addresses an entry inside a parent object's list rather than a
// standalone resource.
type MemberBinding struct {
	Kind domain.ResourceKind
	// KeyField is the entry attribute that identifies it within the list.
	KeyField string
	// Key extracts the entry key from the desired state.
	Key func(desired domain.DesiredState) string

	Load func(ctx context.Context, parent domain.Identity) ([]map[string]any, error)
	Save func(ctx context.Context, parent domain.Identity, entries []map[string]any) error

	SetFields    map[string]struct{}
	IgnoreFields map[string]struct{}
}
