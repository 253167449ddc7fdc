// Package orchestrator implements the dataflow orchestrator (spec §4.5,
// component C7): it assembles a compiled graph description into a scheduled
// DAG of kernel-wrapped nodes, runs it against base data, merges reports,
// and emits structured lifecycle events throughout. Scheduling follows the
// teacher's channel-and-WaitGroup worker-pool shape (services/evaluator's
// internal/workers.WorkerPool), generalized from a flat job queue to a DAG:
// every node waits on its producers' done channels before it may start,
// giving the happens-before ordering spec §5 requires between dependent
// nodes, while independent nodes run fully concurrently.
package orchestrator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/epochflow/engine/internal/eventstream"
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/kernel"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/report"
	"github.com/epochflow/engine/internal/storage"
	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/transform"
)

// Orchestrator owns one compiled DAG. It is built once from a
// transform.Manager's configurations (Construction, spec §4.5) and may run
// ExecutePipeline any number of times against fresh base data.
type Orchestrator struct {
	log        zerolog.Logger
	storage    *storage.Storage
	dispatcher *eventstream.Dispatcher
	token      *eventstream.CancellationToken

	nodes []*node

	summaryMu       sync.Mutex
	summaryEnabled  bool
	summaryInterval time.Duration

	mu      sync.Mutex
	reports map[string]*report.Dashboard
	markers map[string][]*report.EventMarker
}

// New performs Construction (spec §4.5): it inserts descriptions into mgr
// (rejecting a duplicate id before insertion, since Manager.Insert's
// idempotent-reinsertion contract can't itself distinguish "the same node
// reinserted" from "two distinct nodes sharing an id"), builds the
// topologically-ordered transform list, resolves every NodeRef input to its
// producing node, wires edges, registers each transform with storage, and
// records roots implicitly as nodes with no dependencies.
func New(
	mgr *transform.Manager,
	descriptions []*transform.Configuration,
	store *storage.Storage,
	log zerolog.Logger,
	dispatcher *eventstream.Dispatcher,
	token *eventstream.CancellationToken,
) (*Orchestrator, error) {
	seen := make(map[string]struct{}, len(descriptions))
	for _, cfg := range descriptions {
		if _, dup := seen[cfg.ID]; dup {
			return nil, &registry.DuplicateIDError{ID: cfg.ID}
		}
		seen[cfg.ID] = struct{}{}
		mgr.Insert(cfg)
	}

	built, err := mgr.BuildTransforms()
	if err != nil {
		return nil, err
	}

	nodes := make([]*node, len(built))
	for i, t := range built {
		nodes[i] = newNode(i, t)
	}

	producerOf := make(map[string]*node, len(nodes)*2)
	for _, n := range nodes {
		for _, out := range n.transform.OutputMetadata() {
			producerOf[n.transform.OutputID(out.Name)] = n
		}
	}

	for _, n := range nodes {
		for _, colID := range nodeRefColumnIDs(n.transform.Configuration()) {
			producer, ok := producerOf[colID]
			if !ok {
				return nil, &transform.MissingHandleError{ColumnID: colID}
			}
			n.deps = append(n.deps, producer)
		}
		store.RegisterTransform(n.transform)
	}

	orch := &Orchestrator{
		log:        log,
		storage:    store,
		dispatcher: dispatcher,
		token:      token,
		nodes:      nodes,
		reports:    make(map[string]*report.Dashboard),
		markers:    make(map[string][]*report.EventMarker),
	}
	return orch, nil
}

// nodeRefColumnIDs returns the resolved column id of every NodeRef input
// bound to cfg — Constant and Empty inputs contribute no graph edge.
func nodeRefColumnIDs(cfg *transform.Configuration) []string {
	var ids []string
	for _, vals := range cfg.Inputs {
		for _, iv := range vals {
			if ref, ok := iv.NodeRef(); ok {
				ids = append(ids, ref.ColumnID())
			}
		}
	}
	return ids
}

// GetEventDispatcher returns the dispatcher events are emitted on.
func (o *Orchestrator) GetEventDispatcher() *eventstream.Dispatcher { return o.dispatcher }

// OnEvent subscribes handler to events passing filter, per spec §6.2.
func (o *Orchestrator) OnEvent(filter eventstream.EventFilter, handler eventstream.Handler) eventstream.Connection {
	return o.dispatcher.Subscribe(filter, handler)
}

// Cancel trips the shared cancellation token.
func (o *Orchestrator) Cancel() {
	if o.token != nil {
		o.token.Cancel()
	}
}

// IsCancellationRequested reports whether Cancel has been called since the
// last ResetCancellation.
func (o *Orchestrator) IsCancellationRequested() bool {
	return o.token != nil && o.token.IsCancelled()
}

// ResetCancellation untrips the token, allowing the orchestrator to be
// reused for a subsequent ExecutePipeline.
func (o *Orchestrator) ResetCancellation() {
	if o.token != nil {
		o.token.Reset()
	}
}

// SetProgressSummaryInterval changes the periodic ProgressSummary cadence
// the next ExecutePipeline call applies.
func (o *Orchestrator) SetProgressSummaryInterval(d time.Duration) {
	o.summaryMu.Lock()
	defer o.summaryMu.Unlock()
	o.summaryInterval = d
}

// SetProgressSummaryEnabled gates whether ExecutePipeline starts the
// periodic summary thread.
func (o *Orchestrator) SetProgressSummaryEnabled(enabled bool) {
	o.summaryMu.Lock()
	defer o.summaryMu.Unlock()
	o.summaryEnabled = enabled
}

// GetGeneratedReports returns the report cache populated by the most recent
// successful ExecutePipeline run, keyed by asset id or the "ALL" sentinel.
func (o *Orchestrator) GetGeneratedReports() map[string]*report.Dashboard {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]*report.Dashboard, len(o.reports))
	for k, v := range o.reports {
		out[k] = v
	}
	return out
}

// GetGeneratedEventMarkers returns the event-marker cache populated by the
// most recent successful ExecutePipeline run, keyed by asset id.
func (o *Orchestrator) GetGeneratedEventMarkers() map[string][]*report.EventMarker {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string][]*report.EventMarker, len(o.markers))
	for k, v := range o.markers {
		out[k] = v
	}
	return out
}

// PipelineFailedError is raised by ExecutePipeline when any node logged an
// execution error during the run (spec §7's aggregated pipeline failure).
type PipelineFailedError struct {
	Message string
}

func (e *PipelineFailedError) Error() string {
	return fmt.Sprintf("orchestrator: pipeline failed: %s", e.Message)
}

// ExecutePipeline implements spec §4.5's Execution contract. It initializes
// storage with base, fires every node (root nodes start immediately; every
// other node waits on its producers), and on a clean drain returns the
// final per-(timeframe, asset) frames. On cancellation the partial result is
// discarded and an *eventstream.OperationCancelledError is returned; on any
// captured per-node execution error a *PipelineFailedError is returned.
func (o *Orchestrator) ExecutePipeline(baseData map[timeframe.Timeframe]map[string]*frame.Frame, allowedAssets []string) (map[timeframe.Timeframe]map[string]*frame.Frame, error) {
	start := time.Now()
	sink := newErrorSink()
	runLog := o.log.Hook(sink)

	o.storage.InitializeBaseData(baseData, allowedAssets)

	nodeIDs := make([]string, len(o.nodes))
	for i, n := range o.nodes {
		nodeIDs[i] = n.transform.ID()
	}
	totalAssets := len(o.storage.Assets())

	o.dispatcher.Emit(eventstream.Event{
		Type:      eventstream.EventPipelineStarted,
		Timestamp: time.Now(),
		PipelineStarted: &eventstream.PipelineStarted{
			TotalNodes:  len(o.nodes),
			TotalAssets: totalAssets,
			NodeIDs:     nodeIDs,
		},
	})

	tracker := eventstream.NewTracker(len(o.nodes))
	summary := eventstream.NewSummaryEmitter(o.dispatcher, tracker)
	o.summaryMu.Lock()
	if o.summaryInterval > 0 {
		summary.SetInterval(o.summaryInterval)
	}
	summary.SetEnabled(o.summaryEnabled)
	o.summaryMu.Unlock()
	summary.Start()

	var succeeded, failed, skipped atomic.Int32
	var wg sync.WaitGroup
	wg.Add(len(o.nodes))
	for _, n := range o.nodes {
		n := n
		go func() {
			defer wg.Done()
			o.runNode(n, runLog, tracker, totalAssets, &succeeded, &failed, &skipped)
		}()
	}
	wg.Wait()

	summary.Stop()
	elapsed := time.Since(start)

	if o.token != nil && o.token.IsCancelled() {
		o.dispatcher.Emit(eventstream.Event{
			Type:      eventstream.EventPipelineCancelled,
			Timestamp: time.Now(),
			PipelineCancelled: &eventstream.PipelineCancelled{
				Elapsed:        elapsed,
				NodesCompleted: int(succeeded.Load()),
				NodesTotal:     len(o.nodes),
			},
		})
		return nil, &eventstream.OperationCancelledError{Context: "ExecutePipeline"}
	}

	if !sink.Empty() {
		msg := sink.Aggregate()
		o.dispatcher.Emit(eventstream.Event{
			Type:      eventstream.EventPipelineFailed,
			Timestamp: time.Now(),
			PipelineFailed: &eventstream.PipelineFailed{
				Elapsed:      elapsed,
				ErrorMessage: msg,
			},
		})
		return nil, &PipelineFailedError{Message: msg}
	}

	o.mergeReportsAndMarkers()

	o.dispatcher.Emit(eventstream.Event{
		Type:      eventstream.EventPipelineCompleted,
		Timestamp: time.Now(),
		PipelineCompleted: &eventstream.PipelineCompleted{
			Duration:       elapsed,
			NodesSucceeded: int(succeeded.Load()),
			NodesFailed:    int(failed.Load()),
			NodesSkipped:   int(skipped.Load()),
		},
	})

	return o.storage.BuildFinalOutput(), nil
}

func (o *Orchestrator) runNode(
	n *node,
	log zerolog.Logger,
	tracker *eventstream.Tracker,
	totalAssets int,
	succeeded, failed, skipped *atomic.Int32,
) {
	for _, dep := range n.deps {
		<-dep.done
	}
	defer close(n.done)

	id := n.transform.ID()
	meta := n.transform.Configuration().Metadata

	if o.token != nil && o.token.IsCancelled() {
		tracker.MarkDone(id)
		o.dispatcher.Emit(eventstream.Event{
			Type:      eventstream.EventNodeSkipped,
			Timestamp: time.Now(),
			NodeSkipped: &eventstream.NodeSkipped{
				NodeID:        id,
				TransformName: meta.ID,
				Reason:        "cancelled",
			},
		})
		skipped.Add(1)
		return
	}

	tracker.MarkRunning(id)
	o.dispatcher.Emit(eventstream.Event{
		Type:      eventstream.EventNodeStarted,
		Timestamp: time.Now(),
		NodeStarted: &eventstream.NodeStarted{
			NodeID:           id,
			TransformName:    meta.ID,
			NodeIndex:        n.index,
			TotalNodes:       len(o.nodes),
			AssetCount:       totalAssets,
			IsCrossSectional: meta.Kernel == registry.KernelCrossSectional,
		},
	})

	nodeStart := time.Now()
	result, err := kernel.Run(n.transform, o.storage, log, o.token)
	duration := time.Since(nodeStart)
	tracker.MarkDone(id)

	gatedIntraday := meta.IntradayOnly && !n.transform.Timeframe().IsIntraday()

	switch {
	case err != nil:
		log.Error().Err(err).Str("transform", id).Msg(err.Error())
		o.dispatcher.Emit(eventstream.Event{
			Type:      eventstream.EventNodeFailed,
			Timestamp: time.Now(),
			NodeFailed: &eventstream.NodeFailed{
				NodeID:        id,
				TransformName: meta.ID,
				ErrorMessage:  err.Error(),
			},
		})
		failed.Add(1)
	case gatedIntraday:
		o.dispatcher.Emit(eventstream.Event{
			Type:      eventstream.EventNodeSkipped,
			Timestamp: time.Now(),
			NodeSkipped: &eventstream.NodeSkipped{
				NodeID:        id,
				TransformName: meta.ID,
				Reason:        "intraday_only",
			},
		})
		skipped.Add(1)
	default:
		o.dispatcher.Emit(eventstream.Event{
			Type:      eventstream.EventNodeCompleted,
			Timestamp: time.Now(),
			NodeCompleted: &eventstream.NodeCompleted{
				NodeID:          id,
				TransformName:   meta.ID,
				Duration:        duration,
				AssetsProcessed: result.AssetsProcessed,
				AssetsFailed:    result.AssetsFailed,
			},
		})
		succeeded.Add(1)
	}
}

// mergeReportsAndMarkers implements spec §4.5.1: it transfers storage's
// report/marker caches into the orchestrator's own, card-grouping already
// applied by storage.Reports().
func (o *Orchestrator) mergeReportsAndMarkers() {
	reports := o.storage.Reports()
	markers := o.storage.EventMarkers()

	o.mu.Lock()
	defer o.mu.Unlock()
	for key, dash := range reports {
		existing, ok := o.reports[key]
		if !ok {
			o.reports[key] = dash
			continue
		}
		existing.MergeFrom(dash)
		report.AssignCardGrouping(existing)
	}
	for asset, ms := range markers {
		o.markers[asset] = append(o.markers[asset], ms...)
	}
}
