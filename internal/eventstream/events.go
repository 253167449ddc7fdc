// Package eventstream implements the structured event variants, filtered
// dispatcher, cancellation token, and progress emitter spec §5/§6.2 describe
// (component C8). It is adapted from the teacher's internal/events (the
// EventData tagged-struct pattern) and internal/queue (the throttled
// progress reporter and the ticker-driven periodic-summary shape).
package eventstream

import "time"

// EventType is the closed set of pipeline/node/progress events the engine
// emits. Unlike the teacher's string-keyed EventType, this is a small int
// enum since the event set here is fixed by spec §6.2, not extensible by
// downstream callers.
type EventType int

const (
	EventPipelineStarted EventType = iota
	EventPipelineCompleted
	EventPipelineFailed
	EventPipelineCancelled
	EventNodeStarted
	EventNodeCompleted
	EventNodeFailed
	EventNodeSkipped
	EventTransformProgress
	EventProgressSummary
)

var eventTypeNames = map[EventType]string{
	EventPipelineStarted:   "PipelineStarted",
	EventPipelineCompleted: "PipelineCompleted",
	EventPipelineFailed:    "PipelineFailed",
	EventPipelineCancelled: "PipelineCancelled",
	EventNodeStarted:       "NodeStarted",
	EventNodeCompleted:     "NodeCompleted",
	EventNodeFailed:        "NodeFailed",
	EventNodeSkipped:       "NodeSkipped",
	EventTransformProgress: "TransformProgress",
	EventProgressSummary:   "ProgressSummary",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// allEventTypes is the closed set used to build the All/None/Only/Except
// presets without repeating the list at every call site.
var allEventTypes = []EventType{
	EventPipelineStarted, EventPipelineCompleted, EventPipelineFailed, EventPipelineCancelled,
	EventNodeStarted, EventNodeCompleted, EventNodeFailed, EventNodeSkipped,
	EventTransformProgress, EventProgressSummary,
}

// Event is the envelope carried to every dispatcher subscriber. Exactly one
// of the typed payload fields is populated, selected by Type — mirroring the
// teacher's EventWithData envelope, but with a closed Go struct instead of a
// JSON-polymorphic interface{} payload, since this event set never grows at
// runtime.
type Event struct {
	Type      EventType
	Timestamp time.Time

	PipelineStarted   *PipelineStarted
	PipelineCompleted *PipelineCompleted
	PipelineFailed    *PipelineFailed
	PipelineCancelled *PipelineCancelled
	NodeStarted       *NodeStarted
	NodeCompleted     *NodeCompleted
	NodeFailed        *NodeFailed
	NodeSkipped       *NodeSkipped
	TransformProgress *TransformProgress
	ProgressSummary   *ProgressSummary
}

// PipelineStarted is emitted once, first, when ExecutePipeline begins.
type PipelineStarted struct {
	TotalNodes  int
	TotalAssets int
	NodeIDs     []string
}

// PipelineCompleted is emitted once, last, on a successful drain.
type PipelineCompleted struct {
	Duration       time.Duration
	NodesSucceeded int
	NodesFailed    int
	NodesSkipped   int
}

// PipelineFailed is emitted once, last, when any node recorded an execution
// error.
type PipelineFailed struct {
	Elapsed      time.Duration
	ErrorMessage string
}

// PipelineCancelled is emitted once, last, when cancellation tripped before
// or during execution.
type PipelineCancelled struct {
	Elapsed        time.Duration
	NodesCompleted int
	NodesTotal     int
}

// NodeStarted is emitted when a graph node's kernel begins executing.
type NodeStarted struct {
	NodeID           string
	TransformName    string
	NodeIndex        int
	TotalNodes       int
	AssetCount       int
	IsCrossSectional bool
}

// NodeCompleted is emitted when a node's kernel finishes without error.
type NodeCompleted struct {
	NodeID        string
	TransformName string
	Duration      time.Duration
	AssetsProcessed int
	AssetsFailed    int
}

// NodeFailed is emitted when a node's kernel could not complete.
type NodeFailed struct {
	NodeID        string
	TransformName string
	ErrorMessage  string
	AssetID       string // empty when the failure is not asset-scoped
}

// NodeSkipped is emitted when a node is bypassed entirely (e.g. the
// intraday_only gate tripped for a daily timeframe).
type NodeSkipped struct {
	NodeID        string
	TransformName string
	Reason        string
}

// TransformProgress is emitted by a TransformProgressEmitter during a
// node's execution.
type TransformProgress struct {
	NodeID        string
	TransformName string
	AssetID       string // empty when not asset-scoped

	CurrentStep     *int
	TotalSteps      *int
	ProgressPercent *float64
	Message         string

	Loss           *float64
	Accuracy       *float64
	LearningRate   *float64
	Iteration      *int
	Metadata       map[string]string
}

// ProgressSummary is emitted periodically by the orchestrator's background
// summary thread.
type ProgressSummary struct {
	OverallProgressPercent float64
	NodesCompleted         int
	NodesTotal             int
	CurrentlyRunning       []string
	EstimatedRemaining     *time.Duration

	// HostCPUPercent/HostMemoryPercent surface host resource utilization
	// the way a long-running job's health would be surfaced (SPEC_FULL.md
	// §B: gopsutil wiring), nil when sampling failed or was disabled.
	HostCPUPercent    *float64
	HostMemoryPercent *float64
}
