// Package socketio forwards FlowEvents to an external socket.io endpoint,
// typically a dashboard watching a run live. The sink is an Event Bus
// observer; the engine never depends on it.
package socketio

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/gridflow/internal/bus"
	"github.com/vk/gridflow/internal/ctxlog"
)

// EventName is the socket.io event FlowEvents are emitted under.
const EventName = "flow_event"

// connectTimeout bounds the initial connection attempt.
const connectTimeout = 10 * time.Second

// Sink is a connected socket.io client forwarding FlowEvents.
type Sink struct {
	io     *socket.Socket
	cancel func()
}

// NewSink connects to the given socket.io URL and returns a ready sink.
// The URL path selects the namespace.
func NewSink(ctx context.Context, rawURL string) (*Sink, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing event sink URL: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	namespace := parsedURL.Path
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Event sink connected", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		select {
		case connected <- err:
		default:
		}
	})

	io.Connect()

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	select {
	case <-connCtx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out connecting to event sink at %s", rawURL)
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("connecting to event sink: %w", err)
		}
	}

	return &Sink{io: io}, nil
}

// Attach subscribes the sink to the bus and returns the unsubscribe
// function.
func (s *Sink) Attach(b *bus.Bus) func() {
	unsubscribe := b.Subscribe(func(evt bus.FlowEvent) {
		s.io.Emit(EventName, map[string]any{
			"id":        evt.ID,
			"timestamp": evt.Timestamp.UnixMilli(),
			"node_id":   evt.NodeID,
			"node_name": evt.NodeName,
			"type":      string(evt.Type),
			"content":   evt.Content,
		})
	})
	s.cancel = unsubscribe
	return unsubscribe
}

// Close detaches from the bus and disconnects the client.
func (s *Sink) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.io.Disconnect()
}
