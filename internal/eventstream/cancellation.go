package eventstream

import (
	"fmt"
	"sync/atomic"
)

// OperationCancelledError is returned by ThrowIfCancelled (and surfaced by
// CancellationGuard.Check) once a CancellationToken has tripped. Kernels
// that see this treat it as a node-level cancellation, not an execution
// error (spec §5/§7).
type OperationCancelledError struct {
	Context string
}

func (e *OperationCancelledError) Error() string {
	if e.Context == "" {
		return "eventstream: operation cancelled"
	}
	return fmt.Sprintf("eventstream: operation cancelled: %s", e.Context)
}

// CancellationToken is a shared, idempotent, thread-safe cancellation flag.
// A single token is typically shared by an entire pipeline execution and
// polled cooperatively by kernels and progress emitters.
type CancellationToken struct {
	cancelled atomic.Bool
}

// NewCancellationToken returns a fresh, un-tripped token.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{}
}

// IsCancelled reports whether Cancel has been called since the last Reset.
func (c *CancellationToken) IsCancelled() bool {
	return c.cancelled.Load()
}

// Cancel trips the token. Calling it more than once is a no-op.
func (c *CancellationToken) Cancel() {
	c.cancelled.Store(true)
}

// Reset untrips the token, allowing the same token to be reused for a
// subsequent execution.
func (c *CancellationToken) Reset() {
	c.cancelled.Store(false)
}

// ThrowIfCancelled returns an *OperationCancelledError carrying context if
// the token has tripped, nil otherwise.
func (c *CancellationToken) ThrowIfCancelled(context string) error {
	if c.IsCancelled() {
		return &OperationCancelledError{Context: context}
	}
	return nil
}

// CancellationGuard is the Go rendering of the original's RAII guard object:
// it checks the token once on construction and again on any explicit Check
// call. Go has no destructors, so "does not throw from destructors" becomes
// "Check never panics" — it returns an error instead, for the caller to
// handle however fits its control flow.
type CancellationGuard struct {
	token        *CancellationToken
	context      string
	trippedAtNew bool
}

// NewCancellationGuard constructs a guard and immediately records whether
// the token had already tripped.
func NewCancellationGuard(token *CancellationToken, context string) *CancellationGuard {
	return &CancellationGuard{
		token:        token,
		context:      context,
		trippedAtNew: token != nil && token.IsCancelled(),
	}
}

// TrippedAtConstruction reports whether the token was already cancelled
// when the guard was built.
func (g *CancellationGuard) TrippedAtConstruction() bool {
	return g.trippedAtNew
}

// Check re-polls the token and returns an *OperationCancelledError if it has
// tripped, nil otherwise. Safe to call repeatedly; never panics.
func (g *CancellationGuard) Check() error {
	if g.token == nil {
		return nil
	}
	return g.token.ThrowIfCancelled(g.context)
}
