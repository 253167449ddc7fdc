package eventstream

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherEmitRespectsFilter(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())
	var received []EventType
	d.Subscribe(NodesOnly, func(e Event) {
		received = append(received, e.Type)
	})

	d.Emit(Event{Type: EventPipelineStarted, Timestamp: time.Now()})
	d.Emit(Event{Type: EventNodeStarted, Timestamp: time.Now()})

	require.Len(t, received, 1)
	assert.Equal(t, EventNodeStarted, received[0])
}

func TestDispatcherUnsubscribeStopsDelivery(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())
	count := 0
	conn := d.Subscribe(All, func(Event) { count++ })
	d.Emit(Event{Type: EventPipelineStarted})
	conn.Unsubscribe()
	d.Emit(Event{Type: EventPipelineStarted})

	assert.Equal(t, 1, count)
}

func TestCancellationTokenIdempotent(t *testing.T) {
	tok := NewCancellationToken()
	assert.False(t, tok.IsCancelled())
	tok.Cancel()
	tok.Cancel()
	assert.True(t, tok.IsCancelled())
	tok.Reset()
	assert.False(t, tok.IsCancelled())
}

func TestCancellationGuardChecksAtConstruction(t *testing.T) {
	tok := NewCancellationToken()
	tok.Cancel()
	g := NewCancellationGuard(tok, "test")
	assert.True(t, g.TrippedAtConstruction())
	require.Error(t, g.Check())
}

func TestThrowIfCancelledNilWhenNotTripped(t *testing.T) {
	tok := NewCancellationToken()
	assert.NoError(t, tok.ThrowIfCancelled("ctx"))
}
