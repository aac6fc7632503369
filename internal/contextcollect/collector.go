package contextcollect

import (
	"strings"

	"github.com/boshu2/omc/internal/worker"
)

// Section is one component's rendered output paired with its source name,
// returned alongside the combined text so callers can log which
// components contributed (or failed).
type Section struct {
	Name string
	Text string
	Err  error
}

// Collector runs a registry's components and joins their non-empty output
// into a single block, in the teacher's vibecheck.Analyze style: run each
// stage, collect what it produces, never let one stage's failure abort the
// others.
type Collector struct {
	registry *Registry
}

// NewCollector builds a Collector over the given registry.
func NewCollector(registry *Registry) *Collector {
	return &Collector{registry: registry}
}

// Collect renders every registered component, fanning the render calls out
// across the teacher's generic worker.Pool (components are typically
// blocking on git/filesystem I/O, the same shape forge/search/inject fan
// out file processing across) and joining non-empty output back in
// registration order. A component that errors contributes no text but is
// still reported in the returned sections, so a caller can surface
// partial-failure diagnostics without the whole collection aborting.
func (c *Collector) Collect() (string, []Section) {
	components := c.registry.Components()
	byName := make(map[string]Component, len(components))
	names := make([]string, len(components))
	for i, comp := range components {
		byName[comp.Name()] = comp
		names[i] = comp.Name()
	}

	pool := worker.NewPool[string](0)
	results := pool.Process(names, func(name string) (string, error) {
		return byName[name].Render()
	})

	sections := make([]Section, 0, len(results))
	var blocks []string
	for i, res := range results {
		sections = append(sections, Section{Name: names[i], Text: res.Value, Err: res.Err})
		if res.Err != nil {
			continue
		}
		text := strings.TrimSpace(res.Value)
		if text == "" {
			continue
		}
		blocks = append(blocks, text)
	}

	return strings.Join(blocks, "\n\n"), sections
}
