package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBus publishes and subscribes over a single NATS connection.
type NATSBus struct {
	conn *nats.Conn
}

// NewNATSBus connects to url with unlimited reconnects. Extra options
// (disconnect handlers, names) are appended to the defaults.
func NewNATSBus(url string, opts ...nats.Option) (*NATSBus, error) {
	defaults := []nats.Option{
		nats.Name("lde-site"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSBus{conn: nc}, nil
}

func (b *NATSBus) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	return b.conn.Publish(topic, data)
}

func (b *NATSBus) Subscribe(topic string) (<-chan []byte, func(), error) {
	return b.subscribe(topic, "")
}

func (b *NATSBus) QueueSubscribe(topic, queue string) (<-chan []byte, func(), error) {
	return b.subscribe(topic, queue)
}

func (b *NATSBus) subscribe(topic, queue string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, SubscriberBuffer)
	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)
	handler := func(msg *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- msg.Data:
		default:
			// full: drop rather than stall the NATS read loop
			dropped(msg.Subject)
		}
	}
	var (
		sub *nats.Subscription
		err error
	)
	if queue == "" {
		sub, err = b.conn.Subscribe(topic, handler)
	} else {
		sub, err = b.conn.QueueSubscribe(topic, queue, handler)
	}
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// make sure the server knows about the subscription before we return
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}
	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
	return ch, cancel, nil
}

// Connected reports the connection state for readiness probes.
func (b *NATSBus) Connected() bool {
	return b.conn.IsConnected()
}

func (b *NATSBus) Close() error {
	b.conn.Close()
	return nil
}
