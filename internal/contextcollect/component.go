// Package contextcollect implements the in-session context collector:
// named components register a render function, the collector runs them
// concurrently and concatenates their output, in registration order, into a single text
// block for injection at session-start, plus a mode-exclusion registry and
// a session-state locator used by callers that need per-mode scratch
// state. Supplemented into SPEC_FULL.md §4.8 from spec.md's context &
// setup orchestration budget line; grounded on the teacher's
// internal/vibecheck pipeline (RunDetectors aggregating named detectors,
// Analyze combining their output into one result) and internal/swarm's
// mode marker primitive.
package contextcollect

import "fmt"

// Component renders one section of the collected context. Name is used
// for registration-order tie-breaking diagnostics and duplicate-name
// detection; it is not rendered itself.
type Component interface {
	Name() string
	Render() (string, error)
}

// ComponentFunc adapts a plain function to the Component interface,
// mirroring the teacher's habit of keeping the common case (a detector
// with no state) a free function rather than a struct.
type ComponentFunc struct {
	name string
	fn   func() (string, error)
}

// NewComponentFunc builds a Component from a name and render function.
func NewComponentFunc(name string, fn func() (string, error)) ComponentFunc {
	return ComponentFunc{name: name, fn: fn}
}

func (c ComponentFunc) Name() string             { return c.name }
func (c ComponentFunc) Render() (string, error)  { return c.fn() }

// Registry holds the ordered set of registered components.
type Registry struct {
	order []Component
	seen  map[string]bool
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]bool)}
}

// Register appends a component, returning an error if its name was
// already registered. Registration order is preserved and determines
// render order.
func (r *Registry) Register(c Component) error {
	if r.seen[c.Name()] {
		return fmt.Errorf("contextcollect: component %q already registered", c.Name())
	}
	r.seen[c.Name()] = true
	r.order = append(r.order, c)
	return nil
}

// Components returns the registered components in registration order.
func (r *Registry) Components() []Component {
	out := make([]Component, len(r.order))
	copy(out, r.order)
	return out
}
