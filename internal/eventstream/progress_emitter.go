package eventstream

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TransformProgressEmitter is per-(node, optional asset): it auto-fills
// node_id/transform_name/timestamp and the current asset_id (set via
// WithAsset's AssetContextGuard), and throttles emission with
// golang.org/x/time/rate — an idiomatic swap-in for the teacher's
// queue.ProgressReporter, which hand-rolled the same throttle with a raw
// time.Since comparison.
type TransformProgressEmitter struct {
	dispatcher    *Dispatcher
	token         *CancellationToken
	nodeID        string
	transformName string
	limiter       *rate.Limiter

	mu      sync.Mutex
	assetID string
}

// defaultThrottleInterval matches the teacher's 100ms default in
// queue.NewProgressReporter.
const defaultThrottleInterval = 100 * time.Millisecond

// NewTransformProgressEmitter returns an emitter throttled to the default
// interval (100ms, i.e. up to 10 reports/second).
func NewTransformProgressEmitter(dispatcher *Dispatcher, token *CancellationToken, nodeID, transformName string) *TransformProgressEmitter {
	return &TransformProgressEmitter{
		dispatcher:    dispatcher,
		token:         token,
		nodeID:        nodeID,
		transformName: transformName,
		limiter:       rate.NewLimiter(rate.Every(defaultThrottleInterval), 1),
	}
}

// AssetContextGuard scopes TransformProgress events to one asset for its
// lifetime; Release restores whichever asset context was active before it
// was created (the Go rendering of the original's RAII guard — see
// SPEC_FULL.md §C.1 for the broader CancellationGuard translation this
// mirrors).
type AssetContextGuard struct {
	emitter  *TransformProgressEmitter
	previous string
}

// Release restores the emitter's previous asset context.
func (g *AssetContextGuard) Release() {
	g.emitter.mu.Lock()
	g.emitter.assetID = g.previous
	g.emitter.mu.Unlock()
}

// WithAsset sets the current asset context and returns a guard to restore
// the prior context when the caller is done (typically via defer).
func (e *TransformProgressEmitter) WithAsset(assetID string) *AssetContextGuard {
	e.mu.Lock()
	previous := e.assetID
	e.assetID = assetID
	e.mu.Unlock()
	return &AssetContextGuard{emitter: e, previous: previous}
}

func (e *TransformProgressEmitter) currentAsset() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assetID
}

func (e *TransformProgressEmitter) allow(cur, total int) bool {
	if cur >= total {
		return true // 100% completion always bypasses the throttle
	}
	return e.limiter.Allow()
}

func (e *TransformProgressEmitter) emit(tp TransformProgress) {
	if e.dispatcher == nil {
		return
	}
	tp.NodeID = e.nodeID
	tp.TransformName = e.transformName
	if tp.AssetID == "" {
		tp.AssetID = e.currentAsset()
	}
	e.dispatcher.Emit(Event{Type: EventTransformProgress, Timestamp: time.Now(), TransformProgress: &tp})
}

func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }

// EmitProgress computes pct = 100 * cur / total (guarding against a zero
// total) and emits a throttled TransformProgress event.
func (e *TransformProgressEmitter) EmitProgress(cur, total int, msg string) {
	if !e.allow(cur, total) {
		return
	}
	var pct float64
	if total != 0 {
		pct = 100.0 * float64(cur) / float64(total)
	}
	e.emit(TransformProgress{
		CurrentStep:     intPtr(cur),
		TotalSteps:      intPtr(total),
		ProgressPercent: floatPtr(pct),
		Message:         msg,
	})
}

// EmitProgressOrCancel first checks the cancellation token and, if it has
// tripped, returns an error instead of emitting.
func (e *TransformProgressEmitter) EmitProgressOrCancel(cur, total int, msg string) error {
	if err := e.token.ThrowIfCancelled("EmitProgress"); err != nil {
		return err
	}
	e.EmitProgress(cur, total, msg)
	return nil
}

// EmitEpoch is a convenience for ML kernels: current/total-step semantics
// with an auto-composed message and optional loss/accuracy/learning-rate
// metrics.
func (e *TransformProgressEmitter) EmitEpoch(epoch, totalEpochs int, loss, accuracy, lr *float64) {
	if !e.allow(epoch, totalEpochs) {
		return
	}
	var pct float64
	if totalEpochs != 0 {
		pct = 100.0 * float64(epoch) / float64(totalEpochs)
	}
	e.emit(TransformProgress{
		CurrentStep:     intPtr(epoch),
		TotalSteps:      intPtr(totalEpochs),
		ProgressPercent: floatPtr(pct),
		Message:         fmt.Sprintf("epoch %d/%d", epoch, totalEpochs),
		Loss:            loss,
		Accuracy:        accuracy,
		LearningRate:    lr,
	})
}

// EmitEpochOrCancel is EmitEpoch guarded by a cancellation check — the only
// cooperative preemption point ML kernels are expected to poll (spec §9).
func (e *TransformProgressEmitter) EmitEpochOrCancel(epoch, totalEpochs int, loss, accuracy, lr *float64) error {
	if err := e.token.ThrowIfCancelled("EmitEpoch"); err != nil {
		return err
	}
	e.EmitEpoch(epoch, totalEpochs, loss, accuracy, lr)
	return nil
}

// EmitIteration is a convenience for iterative (non-epoch) kernels: an
// iteration counter, an optional scalar metric, and an optional message.
func (e *TransformProgressEmitter) EmitIteration(i int, metric *float64, msg string) {
	if !e.limiter.Allow() {
		return
	}
	e.emit(TransformProgress{
		Iteration: intPtr(i),
		Loss:      metric,
		Message:   msg,
	})
}

// EmitIterationOrCancel is EmitIteration guarded by a cancellation check.
func (e *TransformProgressEmitter) EmitIterationOrCancel(i int, metric *float64, msg string) error {
	if err := e.token.ThrowIfCancelled("EmitIteration"); err != nil {
		return err
	}
	e.EmitIteration(i, metric, msg)
	return nil
}
