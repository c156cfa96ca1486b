package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/lieuxdexception/site/pkg/metrics"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Shutdown)
	require.True(t, srv.ReadyForConnections(5*time.Second), "embedded NATS not ready")
	return srv.ClientURL()
}

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestImplementations(t *testing.T) {
	var _ Publisher = (*NATSBus)(nil)
	var _ Subscriber = (*NATSBus)(nil)
	var _ Publisher = (*MemoryBus)(nil)
	var _ Subscriber = (*MemoryBus)(nil)
	var _ Publisher = NoopPublisher{}
}

func TestNATSBus_RoundTrip(t *testing.T) {
	bus, err := NewNATSBus(startTestNATS(t))
	require.NoError(t, err)
	defer bus.Close()
	assert.True(t, bus.Connected())

	ch, cancel, err := bus.Subscribe(TopicLeadCreated)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, bus.Publish(context.Background(), TopicLeadCreated, LeadCreated{LeadID: "lead_abc"}))

	var got LeadCreated
	require.NoError(t, json.Unmarshal(receive(t, ch), &got))
	assert.Equal(t, "lead_abc", got.LeadID)
}

func TestNATSBus_CancelClosesChannel(t *testing.T) {
	bus, err := NewNATSBus(startTestNATS(t))
	require.NoError(t, err)
	defer bus.Close()

	ch, cancel, err := bus.Subscribe("leads.>")
	require.NoError(t, err)
	cancel()
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestMemoryBus_Wildcard(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	all, cancelAll, _ := bus.Subscribe("leads.>")
	defer cancelAll()
	exact, cancelExact, _ := bus.Subscribe("leads.updated")
	defer cancelExact()

	require.NoError(t, bus.Publish(context.Background(), TopicLeadCreated, LeadCreated{LeadID: "lead_1"}))

	assert.JSONEq(t, `{"lead_id":"lead_1"}`, string(receive(t, all)))
	select {
	case <-exact:
		t.Fatal("exact subscriber should not receive leads.created")
	default:
	}
}

// countWithin drains ch for d and returns how many payloads arrived.
func countWithin(ch <-chan []byte, d time.Duration) int {
	n := 0
	deadline := time.After(d)
	for {
		select {
		case <-ch:
			n++
		case <-deadline:
			return n
		}
	}
}

func TestNATSBus_QueueGroupDeliversOnce(t *testing.T) {
	url := startTestNATS(t)
	a, err := NewNATSBus(url)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewNATSBus(url)
	require.NoError(t, err)
	defer b.Close()

	chA, cancelA, err := a.QueueSubscribe(TopicLeadCreated, "lead-sync")
	require.NoError(t, err)
	defer cancelA()
	chB, cancelB, err := b.QueueSubscribe(TopicLeadCreated, "lead-sync")
	require.NoError(t, err)
	defer cancelB()

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Publish(context.Background(), TopicLeadCreated, LeadCreated{LeadID: "lead_1"}))
	}
	total := countWithin(chA, 300*time.Millisecond) + countWithin(chB, 100*time.Millisecond)
	assert.Equal(t, 10, total)
}

func TestMemoryBus_QueueGroup(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	q1, c1, _ := bus.QueueSubscribe(TopicLeadCreated, "lead-sync")
	defer c1()
	q2, c2, _ := bus.QueueSubscribe(TopicLeadCreated, "lead-sync")
	defer c2()
	plain, c3, _ := bus.Subscribe(TopicLeadCreated)
	defer c3()

	for i := 0; i < 4; i++ {
		require.NoError(t, bus.Publish(context.Background(), TopicLeadCreated, LeadCreated{LeadID: "lead_1"}))
	}
	assert.Len(t, q1, 2)
	assert.Len(t, q2, 2)
	assert.Len(t, plain, 4)
}

func TestMemoryBus_CountsDroppedEvents(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()
	ch, cancel, _ := bus.Subscribe("leads.dropped")
	defer cancel()

	before := testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("leads.dropped"))
	for i := 0; i < SubscriberBuffer+3; i++ {
		require.NoError(t, bus.Publish(context.Background(), "leads.dropped", LeadCreated{LeadID: "lead_1"}))
	}
	assert.Len(t, ch, SubscriberBuffer)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("leads.dropped")))
}

func TestNoopPublisher(t *testing.T) {
	p := NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), TopicLeadCreated, nil))
	assert.NoError(t, p.Close())
}
