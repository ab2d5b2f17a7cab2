package domain

type Action string

const (
	ActionNone       Action = "none"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionTransition Action = "transition"
	ActionRead       Action = "read"
)

type AttributeDiff struct {
	AttributeName string
	ExpectedValue any
	ActualValue   any
	Details       string
}

// ReconciliationResult is the externally observable outcome of one pass.
type ReconciliationResult struct {
	Kind     ResourceKind
	Identity Identity
	Changed  bool
	// Actions lists the mutating steps issued, in order. Check-mode runs list
	// the steps that would have been issued.
	Actions     []Action
	Differences []AttributeDiff
	// Facts carries read-only attributes for gather runs.
	Facts   map[string]any
	Checked bool
	Source  string
	Error   error
}

// Primary returns the first mutating action, or ActionNone.
func (r ReconciliationResult) Primary() Action {
	if len(r.Actions) == 0 {
		return ActionNone
	}
	return r.Actions[0]
}
