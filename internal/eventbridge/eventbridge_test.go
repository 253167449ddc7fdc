package eventbridge

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"

	"github.com/epochflow/engine/internal/eventstream"
)

func TestBridgeStreamsFilteredEventsToClient(t *testing.T) {
	dispatcher := eventstream.NewDispatcher(zerolog.Nop())
	bridge := New(dispatcher, eventstream.PipelineOnly, zerolog.Nop())
	conn := bridge.Subscribe()
	defer conn.Unsubscribe()

	server := httptest.NewServer(bridge)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + server.URL[len("http"):]
	client, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer client.Close(websocket.StatusNormalClosure, "")

	for !clientConnected(bridge) {
		time.Sleep(time.Millisecond)
		select {
		case <-ctx.Done():
			t.Fatal("timed out waiting for client registration")
		default:
		}
	}

	dispatcher.Emit(eventstream.Event{
		Type:            eventstream.EventPipelineStarted,
		PipelineStarted: &eventstream.PipelineStarted{TotalNodes: 3, TotalAssets: 2, NodeIDs: []string{"a", "b", "c"}},
	})
	// NodeStarted is excluded by PipelineOnly and must not reach the client.
	dispatcher.Emit(eventstream.Event{
		Type:        eventstream.EventNodeStarted,
		NodeStarted: &eventstream.NodeStarted{NodeID: "a"},
	})
	dispatcher.Emit(eventstream.Event{
		Type:              eventstream.EventPipelineCompleted,
		PipelineCompleted: &eventstream.PipelineCompleted{NodesSucceeded: 3},
	})

	first := readMessage(t, ctx, client)
	assert.Equal(t, "PipelineStarted", first.Type)

	second := readMessage(t, ctx, client)
	assert.Equal(t, "PipelineCompleted", second.Type)
}

func clientConnected(b *Bridge) bool {
	return b.ClientCount() > 0
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, msgpack.Unmarshal(data, &msg))
	return msg
}
