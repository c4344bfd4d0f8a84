package graph

import (
	"sort"

	"github.com/aescanero/cellflow/pkg/domain"
)

// Graph is an immutable, validated dependency graph of cells and value
// cells. It is safe for concurrent read access; all runtime state lives in
// the engine.
type Graph struct {
	cells    map[string]domain.CellSpec
	producer map[string]string // output name -> producing cell

	initialValues map[string]any
	valueSet      map[string]struct{}

	deps           map[string][]string // cell -> upstream cells
	dependents     map[string][]string // cell -> downstream cells
	valueConsumers map[string][]string // value -> cells reading it directly

	topo      []string
	topoIndex map[string]int
}

// Edge is a dependency edge between two cells, From producing an input of To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Cell returns a cell spec by name.
func (g *Graph) Cell(name string) (domain.CellSpec, bool) {
	c, ok := g.cells[name]
	return c, ok
}

// Cells returns all cell specs in topological order.
func (g *Graph) Cells() []domain.CellSpec {
	out := make([]domain.CellSpec, 0, len(g.topo))
	for _, name := range g.topo {
		out = append(out, g.cells[name])
	}
	return out
}

// InitialValues returns a copy of the declared value cells and their
// initial values.
func (g *Graph) InitialValues() map[string]any {
	out := make(map[string]any, len(g.initialValues))
	for k, v := range g.initialValues {
		out[k] = v
	}
	return out
}

// IsValue reports whether name is a declared value cell.
func (g *Graph) IsValue(name string) bool {
	_, ok := g.valueSet[name]
	return ok
}

// Producer returns the cell producing the named output. It returns false for
// value-cell names and unknown names.
func (g *Graph) Producer(output string) (string, bool) {
	cell, ok := g.producer[output]
	return cell, ok
}

// Dependencies returns the upstream cells of a cell.
func (g *Graph) Dependencies(cell string) []string {
	return copyNames(g.deps[cell])
}

// Dependents returns the downstream cells of a cell.
func (g *Graph) Dependents(cell string) []string {
	return copyNames(g.dependents[cell])
}

// TopologicalOrder returns the fixed evaluation order: every cell appears
// after every cell producing one of its inputs.
func (g *Graph) TopologicalOrder() []string {
	return copyNames(g.topo)
}

// Edges returns all cell->cell dependency edges in topological order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, from := range g.topo {
		tos := copyNames(g.dependents[from])
		sort.Strings(tos)
		for _, to := range tos {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// Affected computes the forward transitive closure of the given changed
// value-cell names, returned in topological order. Names that are not value
// cells or have no consumers contribute nothing.
func (g *Graph) Affected(changedValues []string) []string {
	seen := make(map[string]struct{})
	var frontier []string
	for _, v := range changedValues {
		for _, cell := range g.valueConsumers[v] {
			if _, ok := seen[cell]; !ok {
				seen[cell] = struct{}{}
				frontier = append(frontier, cell)
			}
		}
	}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		for _, dep := range g.dependents[next] {
			if _, ok := seen[dep]; !ok {
				seen[dep] = struct{}{}
				frontier = append(frontier, dep)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for _, name := range g.topo {
		if _, ok := seen[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// topologicalSort runs Kahn's algorithm with a lexicographic ready queue so
// the order is deterministic across builds of the same declarations.
func (g *Graph) topologicalSort() ([]string, error) {
	indeg := make(map[string]int, len(g.cells))
	for name := range g.cells {
		indeg[name] = len(g.deps[name])
	}

	var ready []string
	for name, d := range indeg {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.cells))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		var unlocked []string
		for _, dep := range g.dependents[next] {
			indeg[dep]--
			if indeg[dep] == 0 {
				unlocked = append(unlocked, dep)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}

	if len(order) != len(g.cells) {
		var stuck []string
		for name, d := range indeg {
			if d > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, &domain.CyclicDependencyError{Cells: stuck}
	}
	return order, nil
}

func copyNames(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
