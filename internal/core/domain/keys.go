package domain

const (
	// Identity and control keys. They select the resource and drive the
	// reconciler, and are never compared against remote attributes.
	KeyName      = "name"
	KeyPartition = "partition"
	KeySubPath   = "sub_path"
	KeyState     = "state"

	DefaultPartition = "Common"
)

var reservedKeys = map[string]struct{}{
	KeyName:      {},
	KeyPartition: {},
	KeySubPath:   {},
	KeyState:     {},
}

// IsReservedKey reports whether key is an identity/control key.
func IsReservedKey(key string) bool {
	_, ok := reservedKeys[key]
	return ok
}
