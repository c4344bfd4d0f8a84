package graph

import (
	"fmt"

	"github.com/aescanero/cellflow/pkg/domain"
)

// Builder accumulates cell and value declarations and produces a validated
// Graph. Registration order does not matter: a cell may read an input whose
// producer is registered later; resolution happens in Finalize.
type Builder struct {
	cells  []domain.CellSpec
	values []domain.ValueSpec

	cellNames map[string]struct{}
	producers map[string]string // output name -> producing cell
	valueSet  map[string]struct{}

	finalized bool
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		cellNames: make(map[string]struct{}),
		producers: make(map[string]string),
		valueSet:  make(map[string]struct{}),
	}
}

// DeclareValue declares a value cell with its initial value. The name is the
// output name computation cells reference.
func (b *Builder) DeclareValue(name string, initial any) error {
	if b.finalized {
		return fmt.Errorf("builder already finalized")
	}
	if name == "" {
		return fmt.Errorf("value cell name is required")
	}
	if existing, ok := b.producers[name]; ok {
		return &domain.DuplicateOutputError{Output: name, Cell: name, Existing: existing}
	}
	if _, ok := b.valueSet[name]; ok {
		return &domain.DuplicateOutputError{Output: name, Cell: name, Existing: name}
	}

	b.valueSet[name] = struct{}{}
	b.values = append(b.values, domain.ValueSpec{Name: name, Initial: initial})
	return nil
}

// Register adds a computation cell. It fails immediately with
// DuplicateOutputError if any declared output is already bound; unknown
// inputs are tolerated until Finalize.
func (b *Builder) Register(spec domain.CellSpec) error {
	if b.finalized {
		return fmt.Errorf("builder already finalized")
	}
	if spec.Name == "" {
		return fmt.Errorf("cell name is required")
	}
	if _, ok := b.cellNames[spec.Name]; ok {
		return fmt.Errorf("duplicate cell name: %q", spec.Name)
	}
	if spec.Compute == nil {
		return fmt.Errorf("cell %q has no compute function", spec.Name)
	}
	if len(spec.Outputs) == 0 {
		return fmt.Errorf("cell %q declares no outputs", spec.Name)
	}

	for _, out := range spec.Outputs {
		if out == "" {
			return fmt.Errorf("cell %q declares an empty output name", spec.Name)
		}
		if existing, ok := b.producers[out]; ok {
			return &domain.DuplicateOutputError{Output: out, Cell: spec.Name, Existing: existing}
		}
		if _, ok := b.valueSet[out]; ok {
			return &domain.DuplicateOutputError{Output: out, Cell: spec.Name, Existing: out}
		}
	}

	for _, out := range spec.Outputs {
		b.producers[out] = spec.Name
	}
	b.cellNames[spec.Name] = struct{}{}
	b.cells = append(b.cells, spec)
	return nil
}

// Finalize resolves every input to a producing cell or a declared value cell,
// builds the dependency edge set, and fixes a deterministic topological order.
// It fails with UnknownInputError for unresolvable inputs and with
// CyclicDependencyError when no topological ordering exists.
func (b *Builder) Finalize() (*Graph, error) {
	if b.finalized {
		return nil, fmt.Errorf("builder already finalized")
	}
	if len(b.cells) == 0 {
		return nil, fmt.Errorf("graph must have at least one cell")
	}

	g := &Graph{
		cells:          make(map[string]domain.CellSpec, len(b.cells)),
		producer:       make(map[string]string, len(b.producers)),
		initialValues:  make(map[string]any, len(b.values)),
		valueSet:       make(map[string]struct{}, len(b.values)),
		deps:           make(map[string][]string, len(b.cells)),
		dependents:     make(map[string][]string, len(b.cells)),
		valueConsumers: make(map[string][]string, len(b.values)),
	}
	for _, c := range b.cells {
		g.cells[c.Name] = c
	}
	for out, cell := range b.producers {
		g.producer[out] = cell
	}
	for _, v := range b.values {
		g.initialValues[v.Name] = v.Initial
		g.valueSet[v.Name] = struct{}{}
	}

	// Resolve inputs into cell->cell edges and value->cell fan-out.
	for _, c := range b.cells {
		seenDep := make(map[string]struct{})
		for _, in := range c.Inputs {
			if _, ok := g.valueSet[in]; ok {
				g.valueConsumers[in] = appendUnique(g.valueConsumers[in], c.Name)
				continue
			}
			producer, ok := b.producers[in]
			if !ok {
				return nil, &domain.UnknownInputError{Cell: c.Name, Input: in}
			}
			if _, dup := seenDep[producer]; dup {
				continue
			}
			seenDep[producer] = struct{}{}
			g.deps[c.Name] = append(g.deps[c.Name], producer)
			g.dependents[producer] = append(g.dependents[producer], c.Name)
		}
	}

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.topo = order
	g.topoIndex = make(map[string]int, len(order))
	for i, name := range order {
		g.topoIndex[name] = i
	}

	b.finalized = true
	return g, nil
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}
