package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aescanero/cellflow/internal/application/graph"
	"github.com/aescanero/cellflow/pkg/domain"
	"github.com/aescanero/cellflow/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures evaluation behavior.
type Options struct {
	// PropagateErrors makes Evaluate return the first ComputeError of a pass
	// instead of containing it to the affected branch.
	PropagateErrors bool

	// CellTimeout bounds a single compute function. Zero means no bound.
	CellTimeout time.Duration
}

// Engine owns all runtime state of a graph: current value-cell values, the
// coalesced pending-change set, and every cell's latest execution result.
// External consumers only read snapshots.
type Engine struct {
	graph   *graph.Graph
	bus     ports.EventBus
	store   ports.SnapshotStore
	metrics ports.MetricsCollector
	logger  *zap.Logger
	opts    Options

	sessionID string

	// evalMu guarantees at most one evaluation pass in flight.
	evalMu sync.Mutex

	// mu guards everything below. Mutations arriving mid-pass only touch
	// values and pending; the running pass picks them up on its next start.
	mu           sync.Mutex
	values       map[string]any
	pending      map[string]struct{}
	states       map[string]domain.CellState
	outputs      map[string]map[string]any
	errs         map[string]*domain.ComputeError
	computedAt   map[string]time.Time
	version      uint64
	bootstrapped bool
}

// New creates an engine over a finalized graph. All cells start Stale; the
// first Evaluate computes the whole graph from the declared initial values.
func New(
	g *graph.Graph,
	bus ports.EventBus,
	store ports.SnapshotStore,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	opts Options,
) *Engine {
	states := make(map[string]domain.CellState)
	for _, name := range g.TopologicalOrder() {
		states[name] = domain.CellStateStale
	}

	return &Engine{
		graph:      g,
		bus:        bus,
		store:      store,
		metrics:    metrics,
		logger:     logger,
		opts:       opts,
		sessionID:  uuid.New().String(),
		values:     g.InitialValues(),
		pending:    make(map[string]struct{}),
		states:     states,
		outputs:    make(map[string]map[string]any),
		errs:       make(map[string]*domain.ComputeError),
		computedAt: make(map[string]time.Time),
	}
}

// SessionID identifies this engine instance in events and snapshots.
func (e *Engine) SessionID() string { return e.sessionID }

// Graph returns the immutable topology the engine evaluates.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// SetValue mutates a value cell and marks it changed. Multiple mutations
// before the next Evaluate coalesce: only the final value is ever observed.
func (e *Engine) SetValue(ctx context.Context, name string, value any) error {
	if !e.graph.IsValue(name) {
		return fmt.Errorf("unknown value cell: %q", name)
	}

	e.mu.Lock()
	e.values[name] = value
	e.pending[name] = struct{}{}
	e.mu.Unlock()

	e.metrics.RecordValueChanged(name)
	e.publish(ctx, ports.TopicCellEvents, ports.EventTypeValueChanged, name, map[string]any{
		"value": value,
	})
	return nil
}

// Notify marks the named value cells changed without mutating them. Names
// whose closure is empty contribute nothing to the next pass.
func (e *Engine) Notify(names ...string) error {
	for _, name := range names {
		if !e.graph.IsValue(name) {
			return fmt.Errorf("unknown value cell: %q", name)
		}
	}

	e.mu.Lock()
	for _, name := range names {
		e.pending[name] = struct{}{}
	}
	e.mu.Unlock()
	return nil
}

// Evaluate recomputes exactly the cells affected by the coalesced pending
// changes, in topological order, exactly once each. Compute failures are
// contained: the failing cell and its downstream dependents enter Errored,
// unrelated branches still complete, and cached outputs of unaffected cells
// are left untouched.
//
// Cancellation aborts between cells, leaving not-yet-visited cells in their
// prior cached state. The triggering changes stay pending, so the next
// Evaluate picks the aborted work up again.
func (e *Engine) Evaluate(ctx context.Context) error {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	start := time.Now()

	e.mu.Lock()
	changed := make([]string, 0, len(e.pending))
	for name := range e.pending {
		changed = append(changed, name)
	}
	e.pending = make(map[string]struct{})
	sort.Strings(changed)

	var affected []string
	if !e.bootstrapped {
		affected = e.graph.TopologicalOrder()
	} else {
		affected = e.graph.Affected(changed)
	}
	for _, name := range affected {
		e.states[name] = domain.CellStateStale
	}
	values := make(map[string]any, len(e.values))
	for k, v := range e.values {
		values[k] = v
	}
	e.mu.Unlock()

	if len(affected) == 0 {
		e.logger.Debug("evaluation skipped, no affected cells",
			zap.Strings("changed", changed))
		return nil
	}

	e.logger.Info("evaluation pass started",
		zap.Strings("changed", changed),
		zap.Int("affected", len(affected)))

	var firstErr *domain.ComputeError
	var ctxErr error
	computed, failed := 0, 0

	for _, name := range affected {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}

		if upstream := e.upstreamError(name); upstream != nil {
			e.markErrored(ctx, name, upstream)
			failed++
			if firstErr == nil {
				firstErr = upstream
			}
			continue
		}

		cerr := e.computeCell(ctx, name, values)
		if cerr != nil {
			failed++
			if firstErr == nil {
				firstErr = cerr
			}
			continue
		}
		computed++
	}

	e.mu.Lock()
	if ctxErr != nil {
		// An aborted pass must not lose its trigger: put the consumed
		// changes back so the next pass recomputes the affected branch.
		for _, name := range changed {
			e.pending[name] = struct{}{}
		}
	} else {
		e.bootstrapped = true
	}
	e.mu.Unlock()

	e.finishPass(ctx, len(affected), computed, failed, time.Since(start))

	if ctxErr != nil {
		return ctxErr
	}
	if e.opts.PropagateErrors && firstErr != nil {
		return firstErr
	}
	return nil
}

// computeCell runs one cell's compute function with its resolved inputs and
// records the result. It returns the wrapped error on failure.
func (e *Engine) computeCell(ctx context.Context, name string, values map[string]any) *domain.ComputeError {
	spec, ok := e.graph.Cell(name)
	if !ok {
		// Affected sets only ever contain registered cells.
		return &domain.ComputeError{Cell: name, Err: fmt.Errorf("cell not registered")}
	}

	e.setState(name, domain.CellStateComputing)

	inputs, err := e.resolveInputs(spec, values)
	if err != nil {
		cerr := &domain.ComputeError{Cell: name, Err: err}
		e.markErrored(ctx, name, cerr)
		return cerr
	}

	cctx := ctx
	var cancel context.CancelFunc
	if e.opts.CellTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, e.opts.CellTimeout)
	}
	start := time.Now()
	outputs, err := spec.Compute(cctx, inputs)
	if cancel != nil {
		cancel()
	}
	duration := time.Since(start)

	if err == nil {
		for _, out := range spec.Outputs {
			if _, present := outputs[out]; !present {
				err = fmt.Errorf("compute returned no value for declared output %q", out)
				break
			}
		}
	}

	if err != nil {
		cerr := &domain.ComputeError{Cell: name, Err: err}
		e.markErrored(ctx, name, cerr)
		e.metrics.RecordCellComputed(name, string(domain.CellStateErrored), duration)
		e.logger.Error("cell compute failed",
			zap.String("cell", name),
			zap.Duration("duration", duration),
			zap.Error(err))
		return cerr
	}

	now := time.Now()
	e.mu.Lock()
	e.outputs[name] = outputs
	e.states[name] = domain.CellStateFresh
	e.computedAt[name] = now
	delete(e.errs, name)
	e.mu.Unlock()

	e.metrics.RecordCellComputed(name, string(domain.CellStateFresh), duration)
	e.publish(ctx, ports.TopicCellEvents, ports.EventTypeCellComputed, name, map[string]any{
		"outputs":  spec.Outputs,
		"duration": duration.String(),
	})

	e.logger.Debug("cell computed",
		zap.String("cell", name),
		zap.Duration("duration", duration))
	return nil
}

// resolveInputs draws each input from the pass's value snapshot or from the
// latest cached output of the producing cell.
func (e *Engine) resolveInputs(spec domain.CellSpec, values map[string]any) (map[string]any, error) {
	inputs := make(map[string]any, len(spec.Inputs))
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, in := range spec.Inputs {
		if e.graph.IsValue(in) {
			inputs[in] = values[in]
			continue
		}
		producer, ok := e.graph.Producer(in)
		if !ok {
			return nil, fmt.Errorf("input %q has no producer", in)
		}
		cached, ok := e.outputs[producer]
		if !ok {
			return nil, fmt.Errorf("input %q not yet available from cell %q", in, producer)
		}
		inputs[in] = cached[in]
	}
	return inputs, nil
}

// upstreamError returns the failure of any Errored direct dependency, so the
// cell can visibly report the upstream cause instead of computing on
// unavailable inputs.
func (e *Engine) upstreamError(name string) *domain.ComputeError {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, dep := range e.graph.Dependencies(name) {
		if e.states[dep] == domain.CellStateErrored {
			return e.errs[dep]
		}
	}
	return nil
}

func (e *Engine) markErrored(ctx context.Context, name string, cerr *domain.ComputeError) {
	e.mu.Lock()
	e.states[name] = domain.CellStateErrored
	e.errs[name] = cerr
	delete(e.outputs, name)
	e.mu.Unlock()

	e.publish(ctx, ports.TopicCellEvents, ports.EventTypeCellErrored, name, map[string]any{
		"error":  cerr.Error(),
		"source": cerr.Cell,
	})
}

func (e *Engine) setState(name string, state domain.CellState) {
	e.mu.Lock()
	e.states[name] = state
	e.mu.Unlock()
}

// finishPass bumps the version, reports metrics, publishes the pass event,
// and persists the latest snapshot.
func (e *Engine) finishPass(ctx context.Context, affected, computed, failed int, duration time.Duration) {
	e.mu.Lock()
	e.version++
	version := e.version
	snap := e.snapshotLocked()
	var stale, computing, fresh, errored int
	for _, st := range e.states {
		switch st {
		case domain.CellStateStale:
			stale++
		case domain.CellStateComputing:
			computing++
		case domain.CellStateFresh:
			fresh++
		case domain.CellStateErrored:
			errored++
		}
	}
	e.mu.Unlock()

	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	e.metrics.RecordEvaluatePass(status, affected, duration)
	e.metrics.SetCellStates(stale, computing, fresh, errored)

	e.publish(ctx, ports.TopicGraphEvents, ports.EventTypeGraphEvaluated, "", map[string]any{
		"version":  version,
		"affected": affected,
		"computed": computed,
		"failed":   failed,
		"duration": duration.String(),
	})

	if err := e.store.Save(ctx, e.sessionID, snap); err != nil {
		e.logger.Error("failed to persist snapshot",
			zap.String("session_id", e.sessionID),
			zap.Error(err))
	}

	e.logger.Info("evaluation pass finished",
		zap.Uint64("version", version),
		zap.Int("affected", affected),
		zap.Int("computed", computed),
		zap.Int("failed", failed),
		zap.Duration("duration", duration))
}

func (e *Engine) publish(ctx context.Context, topic string, typ ports.EventType, cell string, data map[string]any) {
	event := ports.Event{
		ID:        uuid.New().String(),
		Type:      typ,
		SessionID: e.sessionID,
		Cell:      cell,
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := e.bus.Publish(ctx, topic, event); err != nil {
		e.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", string(typ)),
			zap.Error(err))
	}
}
