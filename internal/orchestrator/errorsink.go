package orchestrator

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// errorSink is a zerolog.Hook that accumulates every Error-level message
// logged during one ExecutePipeline run — the thread-safe "shared logger"
// spec §4.5/§7 describe. Kernels log per-asset transform failures to it
// (already formatted "Asset: {a}, Transform: {id}, Error: {what}", see
// kernel.formatKernelError) rather than raising; the orchestrator inspects
// it once the graph has drained to decide whether to raise PipelineFailed.
// A fresh sink per execution is the Go rendering of spec step 1's "clear
// logger".
type errorSink struct {
	mu       sync.Mutex
	messages []string
}

func newErrorSink() *errorSink {
	return &errorSink{}
}

// Run implements zerolog.Hook.
func (s *errorSink) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if level != zerolog.ErrorLevel {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Empty reports whether any Error-level message was captured.
func (s *errorSink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages) == 0
}

// Aggregate joins every captured message into one PipelineFailed error
// string.
func (s *errorSink) Aggregate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.messages, "; ")
}
