// Package registry holds the static catalog of locally installed
// reconnaissance tools the service is allowed to invoke, plus the per-tool
// argument construction policy. The catalog is built once at startup and is
// immutable afterwards; callers receive it by explicit injection rather than
// through package-level state.
package registry

import (
	"errors"
	"fmt"
	"os/exec"
)

// Common errors surfaced to the HTTP boundary.
var (
	// ErrToolNotFound means the requested name has no catalog entry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrBinaryNotFound means the tool is configured but its binary does
	// not resolve on the host's search path.
	ErrBinaryNotFound = errors.New("binary not found")

	// ErrMissingTarget means the tool mandates a target and none was given.
	ErrMissingTarget = errors.New("target is required")

	// ErrDuplicateName means two catalog entries share a name.
	ErrDuplicateName = errors.New("duplicate tool name")
)

// Descriptor identifies one supported tool and how to invoke it.
// Descriptors are immutable once registered.
type Descriptor struct {
	// Name is the stable identifier used in requests. Unique, case-sensitive.
	Name string `json:"name"`

	// Binary is the executable name resolved against the host search path.
	Binary string `json:"binary"`

	// Description is a human-readable summary for the catalog listing.
	Description string `json:"description"`

	// RequiresTarget rejects run requests that omit a target.
	RequiresTarget bool `json:"requires_target"`

	// DefaultArgs are prepended to caller-supplied arguments.
	DefaultArgs []string `json:"default_args,omitempty"`

	// TargetHint describes the expected target format. Advisory only.
	TargetHint string `json:"target_hint,omitempty"`

	// Args encodes the tool's CLI calling convention.
	Args ArgSpec `json:"-"`
}

// Entry is a Descriptor annotated with availability, as reported by List.
type Entry struct {
	Descriptor
	Available bool `json:"available"`
}

// LookPathFunc resolves an executable name to an absolute path.
// Injected so tests can toggle binary presence without touching the host.
type LookPathFunc func(file string) (string, error)

// Registry is the read-only tool catalog.
type Registry struct {
	order    []string
	byName   map[string]Descriptor
	lookPath LookPathFunc
}

// New builds a registry from the given descriptors, preserving declaration
// order. lookPath may be nil, in which case exec.LookPath is used.
// Returns ErrDuplicateName if two descriptors share a name.
func New(descriptors []Descriptor, lookPath LookPathFunc) (*Registry, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	r := &Registry{
		order:    make([]string, 0, len(descriptors)),
		byName:   make(map[string]Descriptor, len(descriptors)),
		lookPath: lookPath,
	}
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("descriptor with empty name (binary %q)", d.Binary)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, d.Name)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// Lookup returns the descriptor for name. Exact, case-sensitive match.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return d, nil
}

// List returns all entries in declaration order, annotated with current
// binary availability. Availability is resolved per call, never cached, so
// installing a tool takes effect without a restart.
func (r *Registry) List() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		d := r.byName[name]
		_, err := r.lookPath(d.Binary)
		entries = append(entries, Entry{Descriptor: d, Available: err == nil})
	}
	return entries
}

// Len returns the number of catalog entries.
func (r *Registry) Len() int {
	return len(r.order)
}

// Resolve maps the descriptor's binary to an absolute path.
// Returns ErrBinaryNotFound (naming the binary) when unresolvable.
func (r *Registry) Resolve(d Descriptor) (string, error) {
	path, err := r.lookPath(d.Binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s (install it or adjust PATH)", ErrBinaryNotFound, d.Binary)
	}
	return path, nil
}
