package domain

// ResourceKind names one appliance resource type, e.g. "ltm_pool".
type ResourceKind string

func (rk ResourceKind) String() string {
	return string(rk)
}

// State is the caller's requested lifecycle state.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

func (s State) Valid() bool {
	return s == StatePresent || s == StateAbsent
}
