package invoke

import "strings"

// DefaultGroup is the host registry group used when metadata declares none.
const DefaultGroup = "INVOKE"

// Metadata describes a command to the host: its interpreter name, its
// registry group, and its domain flags. It is an explicit configuration
// value supplied once at registration time — there is no attribute or
// tag scanning.
type Metadata struct {
	// Name is the case-insensitive interpreter name. Required.
	Name string

	// Group is the host registry namespace. Defaults to DefaultGroup.
	Group string

	// Flags declare the command's execution domain. Zero means
	// DefaultFlags (Modal).
	Flags Flags

	// QuiescentOnly restricts availability to a quiescent document.
	QuiescentOnly bool
}

// Normalize fills defaults and returns the effective metadata.
func (m Metadata) Normalize() Metadata {
	if m.Group == "" {
		m.Group = DefaultGroup
	}
	if m.Flags == 0 {
		m.Flags = DefaultFlags
	}
	return m
}

// Key returns the case-insensitive registry key for the name.
func (m Metadata) Key() string { return NameKey(m.Name) }

// NameKey folds a command name to its case-insensitive registry key.
func NameKey(name string) string { return strings.ToUpper(name) }
