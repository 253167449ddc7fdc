package eventstream

// EventFilter is a predicate over EventType, composable via Or/And (the Go
// rendering of spec §6.2's "|"/"&" filter algebra — Go has no operator
// overloading, so composition is spelled out as method calls instead of
// operators, exactly as the original's predicate-combinator filter type
// does underneath its operator sugar).
type EventFilter struct {
	accept func(EventType) bool
}

// Accepts reports whether t passes the filter.
func (f EventFilter) Accepts(t EventType) bool {
	if f.accept == nil {
		return false
	}
	return f.accept(t)
}

// Or returns the union of f and other: an event passes if either would
// accept it.
func (f EventFilter) Or(other EventFilter) EventFilter {
	a, b := f.accept, other.accept
	return EventFilter{accept: func(t EventType) bool { return a(t) || b(t) }}
}

// And returns the intersection of f and other: an event passes only if both
// would accept it.
func (f EventFilter) And(other EventFilter) EventFilter {
	a, b := f.accept, other.accept
	return EventFilter{accept: func(t EventType) bool { return a(t) && b(t) }}
}

// All accepts every event type.
var All = EventFilter{accept: func(EventType) bool { return true }}

// None accepts no event type.
var None = EventFilter{accept: func(EventType) bool { return false }}

func toSet(types []EventType) map[EventType]struct{} {
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Only accepts exactly the given types.
func Only(types ...EventType) EventFilter {
	set := toSet(types)
	return EventFilter{accept: func(t EventType) bool {
		_, ok := set[t]
		return ok
	}}
}

// Except accepts every type except the given ones — "whitelist (All) minus
// blacklist (types)" per spec §6.2.
func Except(types ...EventType) EventFilter {
	set := toSet(types)
	return EventFilter{accept: func(t EventType) bool {
		_, ok := set[t]
		return !ok
	}}
}

// PipelineOnly accepts the four pipeline-lifecycle event types.
var PipelineOnly = Only(EventPipelineStarted, EventPipelineCompleted, EventPipelineFailed, EventPipelineCancelled)

// NodesOnly accepts the four node-lifecycle event types.
var NodesOnly = Only(EventNodeStarted, EventNodeCompleted, EventNodeFailed, EventNodeSkipped)

// ProgressOnly accepts both progress event types.
var ProgressOnly = Only(EventTransformProgress, EventProgressSummary)

// TransformProgressOnly accepts only per-transform progress events, not the
// periodic summary.
var TransformProgressOnly = Only(EventTransformProgress)
