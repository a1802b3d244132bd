// pkg/resolver/resolver.go - orders selected tasks by their dependencies.

package resolver

import (
	"fmt"
	"strings"
)

// DroppedDependency is a declared dependency that was not part of the
// selection and was therefore ignored.
type DroppedDependency struct {
	Task       string
	Dependency string
}

// Plan is the execution order for a selection.
type Plan struct {
	// Batches holds keys whose dependencies are all in earlier batches.
	Batches [][]string
	// Order is Batches flattened.
	Order   []string
	Dropped []DroppedDependency
}

// Len returns the number of keys in the plan.
func (p *Plan) Len() int { return len(p.Order) }

// CycleError is returned when the selection cannot be ordered.
type CycleError struct {
	// Cycle is one concrete loop, first key repeated at the end.
	Cycle []string
	// Blocked is every selected key that could not be ordered.
	Blocked []string
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return fmt.Sprintf("dependency cycle detected among: %s", strings.Join(e.Blocked, ", "))
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// graph is the dependency graph restricted to the selection.
type graph struct {
	keys     []string            // selection order, deduplicated
	deps     map[string][]string // task -> selected dependencies
	edges    map[string][]string // dependency -> dependents
	inDegree map[string]int
	dropped  []DroppedDependency
}

func buildGraph(selected []string, deps func(string) []string) *graph {
	g := &graph{
		deps:     make(map[string][]string),
		edges:    make(map[string][]string),
		inDegree: make(map[string]int),
	}
	for _, key := range selected {
		if _, seen := g.inDegree[key]; seen || key == "" {
			continue
		}
		g.keys = append(g.keys, key)
		g.inDegree[key] = 0
	}

	for _, key := range g.keys {
		if deps == nil {
			break
		}
		seen := make(map[string]bool)
		for _, dep := range deps(key) {
			if dep == "" || seen[dep] {
				continue
			}
			seen[dep] = true
			if _, ok := g.inDegree[dep]; !ok {
				g.dropped = append(g.dropped, DroppedDependency{Task: key, Dependency: dep})
				continue
			}
			g.deps[key] = append(g.deps[key], dep)
			g.edges[dep] = append(g.edges[dep], key)
			g.inDegree[key]++
		}
	}
	return g
}

// Resolve orders selected keys so that every key comes after the selected
// keys it depends on. deps returns the declared dependencies of a key;
// dependencies outside the selection are reported in Plan.Dropped.
// Within a batch keys keep their selection order.
func Resolve(selected []string, deps func(string) []string) (*Plan, error) {
	g := buildGraph(selected, deps)
	plan := &Plan{Dropped: g.dropped}

	inDegree := make(map[string]int, len(g.inDegree))
	for k, v := range g.inDegree {
		inDegree[k] = v
	}
	var frontier []string
	for _, k := range g.keys {
		if inDegree[k] == 0 {
			frontier = append(frontier, k)
		}
	}

	for len(frontier) > 0 {
		plan.Batches = append(plan.Batches, frontier)
		plan.Order = append(plan.Order, frontier...)

		ready := make(map[string]bool)
		for _, k := range frontier {
			for _, dependent := range g.edges[k] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					ready[dependent] = true
				}
			}
		}
		frontier = nil
		for _, k := range g.keys {
			if ready[k] {
				frontier = append(frontier, k)
			}
		}
	}

	if len(plan.Order) < len(g.keys) {
		var blocked []string
		for _, k := range g.keys {
			if inDegree[k] > 0 {
				blocked = append(blocked, k)
			}
		}
		return nil, &CycleError{Cycle: g.findCycle(blocked), Blocked: blocked}
	}
	return plan, nil
}

// findCycle walks dependency edges from the blocked keys using DFS with
// color marking and returns the first loop found.
func (g *graph) findCycle(blocked []string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	colors := make(map[string]int)
	var stack []string
	var cycle []string

	var dfs func(string) bool
	dfs = func(node string) bool {
		colors[node] = gray
		stack = append(stack, node)
		for _, dep := range g.deps[node] {
			switch colors[dep] {
			case gray:
				for i, k := range stack {
					if k == dep {
						cycle = append(append([]string{}, stack[i:]...), dep)
						return true
					}
				}
			case white:
				if dfs(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		colors[node] = black
		return false
	}

	for _, k := range blocked {
		if colors[k] == white && dfs(k) {
			return cycle
		}
	}
	return nil
}
