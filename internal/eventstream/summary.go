package eventstream

import (
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Tracker accumulates the node-lifecycle counters a SummaryEmitter reads to
// build each ProgressSummary. The orchestrator is the sole writer; the
// summary goroutine is the sole reader besides diagnostics.
type Tracker struct {
	mu        sync.Mutex
	total     int
	completed int
	running   map[string]struct{}
}

// NewTracker returns a tracker for a pipeline with the given total node
// count.
func NewTracker(total int) *Tracker {
	return &Tracker{total: total, running: make(map[string]struct{})}
}

// MarkRunning records that nodeID has started.
func (t *Tracker) MarkRunning(nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running[nodeID] = struct{}{}
}

// MarkDone records that nodeID has finished (successfully, with failure, or
// skipped — all three retire a node from "running").
func (t *Tracker) MarkDone(nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.running, nodeID)
	t.completed++
}

// Snapshot returns the current completed/total counts and the sorted set of
// currently-running node ids.
func (t *Tracker) Snapshot() (completed, total int, running []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	running = make([]string, 0, len(t.running))
	for id := range t.running {
		running = append(running, id)
	}
	sort.Strings(running)
	return t.completed, t.total, running
}

// hostSample reports host CPU/memory utilization percentages; either may be
// nil if sampling failed.
type hostSample func() (cpuPercent, memPercent *float64)

func defaultHostSample() (cpuPercent, memPercent *float64) {
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		cpuPercent = &pcts[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = &vm.UsedPercent
	}
	return cpuPercent, memPercent
}

// SummaryEmitter is the optional periodic background thread spec §5
// describes: at a configurable interval (default 100ms), it emits a
// ProgressSummary built from a Tracker's current counters. It is gated by an
// enabled flag and joinable on Stop, the same ticker-driven, stop-channel +
// WaitGroup shape as the teacher's queue.Scheduler goroutines.
type SummaryEmitter struct {
	dispatcher *Dispatcher
	tracker    *Tracker
	sample     hostSample

	mu       sync.Mutex
	interval time.Duration
	enabled  bool
	started  bool
	stopped  bool
	stop     chan struct{}
	wg       sync.WaitGroup
}

// defaultSummaryInterval matches spec §5's stated default.
const defaultSummaryInterval = 100 * time.Millisecond

// NewSummaryEmitter returns a disabled SummaryEmitter at the default
// interval; callers enable it via SetEnabled before Start.
func NewSummaryEmitter(dispatcher *Dispatcher, tracker *Tracker) *SummaryEmitter {
	return &SummaryEmitter{
		dispatcher: dispatcher,
		tracker:    tracker,
		sample:     defaultHostSample,
		interval:   defaultSummaryInterval,
	}
}

// SetInterval changes the emission interval. Has effect only before Start.
func (s *SummaryEmitter) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// SetEnabled gates whether Start actually spins up the background
// goroutine.
func (s *SummaryEmitter) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Start spins up the background goroutine if enabled and not already
// running. Safe to call even when disabled (a no-op).
func (s *SummaryEmitter) Start() {
	s.mu.Lock()
	if !s.enabled || s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.stopped = false
	s.stop = make(chan struct{})
	interval := s.interval
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(interval)
}

func (s *SummaryEmitter) run(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.emitOnce()
		}
	}
}

func (s *SummaryEmitter) emitOnce() {
	completed, total, running := s.tracker.Snapshot()
	var pct float64
	if total != 0 {
		pct = 100.0 * float64(completed) / float64(total)
	}
	cpuPct, memPct := s.sample()
	s.dispatcher.Emit(Event{
		Type:      EventProgressSummary,
		Timestamp: time.Now(),
		ProgressSummary: &ProgressSummary{
			OverallProgressPercent: pct,
			NodesCompleted:         completed,
			NodesTotal:             total,
			CurrentlyRunning:       running,
			HostCPUPercent:         cpuPct,
			HostMemoryPercent:      memPct,
		},
	})
}

// Stop halts the background goroutine and waits for it to exit. Safe to
// call on an emitter that was never started.
func (s *SummaryEmitter) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
}
