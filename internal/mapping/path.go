package mapping

import "strings"

// Reserved Measurement Protocol paths.
const (
	PathEventName      = "events.name"
	PathTransactionID  = "events.params.transaction_id"
	PathItems          = "events.params.items"
	PathUserProperties = "user_properties"
	PathUserData       = "user_data"
	PathUserAddress    = "user_data.address"
)

// ContainerKind names the payload container a path writes into. It is
// decided by the second-to-last path segment.
type ContainerKind int

const (
	ContainerUnknown ContainerKind = iota
	ContainerRoot
	ContainerEvent
	ContainerParams
	ContainerItem
	ContainerUserProperty
	ContainerUserData
	ContainerAddress
)

var containerNames = map[string]ContainerKind{
	"events":          ContainerEvent,
	"params":          ContainerParams,
	"items":           ContainerItem,
	"user_properties": ContainerUserProperty,
	"user_data":       ContainerUserData,
	"address":         ContainerAddress,
}

func (k ContainerKind) String() string {
	switch k {
	case ContainerRoot:
		return "root"
	case ContainerEvent:
		return "events"
	case ContainerParams:
		return "params"
	case ContainerItem:
		return "items"
	case ContainerUserProperty:
		return "user_properties"
	case ContainerUserData:
		return "user_data"
	case ContainerAddress:
		return "address"
	default:
		return "unknown"
	}
}

// Target is a target path resolved to its container and field name.
type Target struct {
	Path      string
	Container ContainerKind
	Field     string
}

// ParseTarget resolves a dot-separated path. A single-segment path addresses
// a top-level field; an unrecognised container yields ContainerUnknown.
func ParseTarget(path string) Target {
	segments := strings.Split(path, ".")
	t := Target{Path: path, Field: segments[len(segments)-1]}
	if t.Field == "" {
		return t
	}
	if len(segments) == 1 {
		t.Container = ContainerRoot
		return t
	}
	t.Container = containerNames[segments[len(segments)-2]]
	return t
}

// Category is a semantic partition of a mapping, derived from target paths.
type Category int

const (
	CategoryEvents Category = iota
	CategoryItems
	CategoryUserProperties
	CategoryUserData
	CategoryUserAddress

	categoryCount
)

func (c Category) String() string {
	switch c {
	case CategoryEvents:
		return "events"
	case CategoryItems:
		return "items"
	case CategoryUserProperties:
		return "user_properties"
	case CategoryUserData:
		return "user_data"
	case CategoryUserAddress:
		return "user_address"
	default:
		return "unknown"
	}
}

// underRoot reports whether path equals root or continues it with a segment.
func underRoot(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+".")
}

// Matches reports whether path belongs to the category. Event-level holds
// everything outside the items sub-tree, so it overlaps the user categories.
func (c Category) Matches(path string) bool {
	switch c {
	case CategoryEvents:
		return !strings.HasPrefix(path, PathItems+".")
	case CategoryItems:
		return strings.HasPrefix(path, PathItems+".")
	case CategoryUserProperties:
		return underRoot(path, PathUserProperties)
	case CategoryUserData:
		return underRoot(path, PathUserData) && !underRoot(path, PathUserAddress)
	case CategoryUserAddress:
		return underRoot(path, PathUserAddress)
	default:
		return false
	}
}
