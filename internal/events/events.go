// Package events carries domain notifications between the site server and
// background workers.
package events

import (
	"context"

	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/lieuxdexception/site/pkg/metrics"
)

// TopicLeadCreated is published after a contact-form lead has been stored.
const TopicLeadCreated = "leads.created"

// LeadCreated is the payload of TopicLeadCreated.
type LeadCreated struct {
	LeadID string `json:"lead_id"`
}

// Publisher emits JSON-encoded events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives raw event payloads.
type Subscriber interface {
	// Subscribe delivers payloads for topic on the returned channel until the
	// cancel func is called, which also closes the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	// QueueSubscribe is Subscribe with load balancing: each payload goes to
	// one subscriber of the queue group only.
	QueueSubscribe(topic, queue string) (<-chan []byte, func(), error)
	Close() error
}

// SubscriberBuffer is the channel capacity of a subscription.
const SubscriberBuffer = 64

// dropped records a payload lost because the subscriber fell behind. The lead
// it announced stays pending until the next sitectl sync-leads run.
func dropped(topic string) {
	metrics.EventsDropped.WithLabelValues(topic).Inc()
	logger.For("events").Warnf("subscriber buffer full on %s, event dropped", topic)
}
