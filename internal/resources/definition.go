// Package resources holds the catalog of appliance resource kinds. Each kind
// is data: a REST location, a parameter schema, the operations it supports
// and optional translation hooks. A Handler turns a definition into
// reconciler bindings on top of an ApplianceClient.
package resources

import (
	"strings"

	"github.com/olusolaa/appliance-converge/internal/core/domain"
	"github.com/olusolaa/appliance-converge/internal/schema"
)

// Ops is the set of mutating operations a kind supports.
type Ops uint8

const (
	OpCreate Ops = 1 << iota
	OpUpdate
	OpDelete

	OpsAll = OpCreate | OpUpdate | OpDelete
)

func (o Ops) Has(op Ops) bool { return o&op != 0 }

func (o Ops) String() string {
	var parts []string
	for _, op := range []struct {
		op   Ops
		name string
	}{{OpCreate, "create"}, {OpUpdate, "update"}, {OpDelete, "delete"}} {
		if o.Has(op.op) {
			parts = append(parts, op.name)
		}
	}
	if len(parts) == 0 {
		return "read"
	}
	return strings.Join(parts, ",")
}

// Scope decides how an identity maps onto a REST path.
type Scope int

const (
	// ScopePartition objects live at <collection>/~Partition~[sub~]name.
	ScopePartition Scope = iota
	// ScopeGlobal objects live at <collection>/name and carry no partition.
	ScopeGlobal
	// ScopeSingleton objects live at <collection> itself and always exist.
	ScopeSingleton
	// ScopeChild objects live below a parent object, see ParentRef.
	ScopeChild
)

// ParentRef locates the parent of a ScopeChild object. The parent reference
// is read from Param, looked up before binding, and its path is joined with
// Collection.
type ParentRef struct {
	Kind       domain.ResourceKind
	Param      string
	Collection string
	// SubCollection is appended to the parent path, e.g. "rules".
	SubCollection string
}

// Call is one raw API request. Method is POST (sent as a command) or PATCH.
type Call struct {
	Method string
	Path   string
	Body   any
}

// TransitionDef models a secondary lifecycle reachable through commands. The
// substate is read from the attribute decoded for Param.
type TransitionDef struct {
	Param string
	// Call maps a target substate onto one API request.
	Call func(collection, objectPath string, id domain.Identity, target string) (Call, error)
}

// MemberDef describes list-entry kinds stored in a parent object's array.
type MemberDef struct {
	// ParentPath returns the REST path of the parent object.
	ParentPath func(id domain.Identity) string
	// ListAttr is the API attribute holding the entries.
	ListAttr string
	// KeyParam identifies an entry among its siblings.
	KeyParam string
	// KeyFromIdentity takes the key from the qualified identity instead of
	// from a parameter.
	KeyFromIdentity bool
}

// Hooks adjust translation for attributes that do not map one to one.
type Hooks struct {
	// ToAPI edits the request body after field translation.
	ToAPI func(body map[string]any, attrs map[string]any)
	// FromAPI edits the decoded attributes after field translation.
	FromAPI func(attrs map[string]any, obj map[string]any)
}

type Definition struct {
	Kind        domain.ResourceKind
	Description string
	Collection  string
	Scope       Scope
	// FixedName is used for singletons, which are declared without a name.
	FixedName string
	Ops       Ops
	// ExistsByRead replaces the existence probe with a read that treats
	// not-found as absence.
	ExistsByRead bool
	Schema       *schema.Schema
	Parent       *ParentRef
	Transition   *TransitionDef
	Member       *MemberDef
	Hooks        Hooks
}
