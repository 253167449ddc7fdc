// Package eventbridge streams the orchestrator's dispatcher events to remote
// websocket subscribers, msgpack-encoded on the wire. It is the
// external-facing half of the dispatcher's subscribe/emit contract: callers
// inside the process subscribe directly on the eventstream.Dispatcher, while
// this package lets callers outside the process (a dashboard, a CLI tail)
// watch the same event stream over the network.
package eventbridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"

	"github.com/epochflow/engine/internal/eventstream"
)

const writeWait = 10 * time.Second

// Message is the wire envelope written to every connected subscriber: the
// event's type name plus its msgpack-encoded payload struct, so a client can
// dispatch on Type without decoding the full union every time.
type Message struct {
	Type    string `msgpack:"type"`
	Payload any    `msgpack:"payload"`
}

func payloadOf(evt eventstream.Event) any {
	switch evt.Type {
	case eventstream.EventPipelineStarted:
		return evt.PipelineStarted
	case eventstream.EventPipelineCompleted:
		return evt.PipelineCompleted
	case eventstream.EventPipelineFailed:
		return evt.PipelineFailed
	case eventstream.EventPipelineCancelled:
		return evt.PipelineCancelled
	case eventstream.EventNodeStarted:
		return evt.NodeStarted
	case eventstream.EventNodeCompleted:
		return evt.NodeCompleted
	case eventstream.EventNodeFailed:
		return evt.NodeFailed
	case eventstream.EventNodeSkipped:
		return evt.NodeSkipped
	case eventstream.EventTransformProgress:
		return evt.TransformProgress
	case eventstream.EventProgressSummary:
		return evt.ProgressSummary
	default:
		return nil
	}
}

// Bridge accepts websocket connections and fans out every dispatcher event
// that passes Filter to each connected client, msgpack-encoded.
type Bridge struct {
	dispatcher *eventstream.Dispatcher
	filter     eventstream.EventFilter
	log        zerolog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// New returns a Bridge that will relay events matching filter from
// dispatcher to connected clients. Call Subscribe to start relaying, then
// mount ServeHTTP on an *http.ServeMux.
func New(dispatcher *eventstream.Dispatcher, filter eventstream.EventFilter, log zerolog.Logger) *Bridge {
	return &Bridge{
		dispatcher: dispatcher,
		filter:     filter,
		log:        log.With().Str("component", "eventbridge").Logger(),
		clients:    make(map[*client]struct{}),
	}
}

// Subscribe registers the bridge on its dispatcher. Returns the
// eventstream.Connection so the caller can Unsubscribe on shutdown.
func (b *Bridge) Subscribe() eventstream.Connection {
	return b.dispatcher.Subscribe(b.filter, b.broadcast)
}

func (b *Bridge) broadcast(evt eventstream.Event) {
	msg := Message{Type: evt.Type.String(), Payload: payloadOf(evt)}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			b.log.Warn().Msg("client send buffer full, dropping event")
		}
	}
}

// ServeHTTP upgrades the request to a websocket connection and streams
// events to it until the client disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		b.log.Error().Err(err).Msg("websocket accept failed")
		return
	}

	c := &client{conn: conn, send: make(chan Message, 64)}
	b.addClient(c)
	defer b.removeClient(c)

	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := b.writeMessage(ctx, conn, msg); err != nil {
				b.log.Debug().Err(err).Msg("websocket write failed, closing")
				return
			}
		}
	}
}

func (b *Bridge) writeMessage(ctx context.Context, conn *websocket.Conn, msg Message) error {
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageBinary, data)
}

func (b *Bridge) addClient(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[c] = struct{}{}
	b.log.Debug().Int("clients", len(b.clients)).Msg("client connected")
}

func (b *Bridge) removeClient(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, c)
	b.log.Debug().Int("clients", len(b.clients)).Msg("client disconnected")
}

// ClientCount returns the number of currently connected subscribers.
func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}
