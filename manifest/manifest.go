// Package manifest loads command metadata from YAML files. A manifest
// declares the names, groups, and domain flags of a host's command set
// without code, so deployments can pre-validate and document their
// command surface.
//
// Example manifest:
//
//	commands:
//	  - name: SWEEP
//	    group: MAINT
//	  - name: PURGECACHE
//	    session: true
//	  - name: PLOT
//	    quiescent_only: true
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xraph/invoke"
)

// Command is one manifest entry. It maps onto invoke.Metadata.
type Command struct {
	// Name is the case-insensitive command name. Required.
	Name string `yaml:"name"`

	// Group is the host registry namespace. Empty means the default.
	Group string `yaml:"group,omitempty"`

	// Session marks the command as application-domain.
	Session bool `yaml:"session,omitempty"`

	// QuiescentOnly restricts availability to a quiescent document.
	QuiescentOnly bool `yaml:"quiescent_only,omitempty"`
}

// Metadata converts the entry to normalized command metadata.
func (c Command) Metadata() invoke.Metadata {
	flags := invoke.Modal
	if c.Session {
		flags = invoke.Session
	}
	return invoke.Metadata{
		Name:          c.Name,
		Group:         c.Group,
		Flags:         flags,
		QuiescentOnly: c.QuiescentOnly,
	}.Normalize()
}

// Manifest is a parsed command manifest.
type Manifest struct {
	Commands []Command `yaml:"commands"`
}

// Metadata converts every entry to normalized command metadata.
func (m *Manifest) Metadata() []invoke.Metadata {
	out := make([]invoke.Metadata, len(m.Commands))
	for i, c := range m.Commands {
		out[i] = c.Metadata()
	}
	return out
}

// Parse decodes and validates manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return Parse(data)
}

// validate rejects unnamed entries and case-insensitive duplicates.
func (m *Manifest) validate() error {
	seen := make(map[string]string, len(m.Commands))
	for i, c := range m.Commands {
		if c.Name == "" {
			return fmt.Errorf("manifest: command %d: name is required", i)
		}
		key := invoke.NameKey(c.Name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("manifest: command %q collides with %q: %w",
				c.Name, prev, invoke.ErrDuplicateName)
		}
		seen[key] = c.Name
	}
	return nil
}
