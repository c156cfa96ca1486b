package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lde", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lde", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	LeadsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lde", Name: "leads_submitted_total", Help: "Contact form leads stored, by event type."},
		[]string{"event_type"},
	)
	LeadSync = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lde", Name: "lead_sync_total", Help: "CRM lead sync attempts by result."},
		[]string{"result"},
	)
	PageRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lde", Name: "page_renders_total", Help: "Rendered public pages by page name."},
		[]string{"page"},
	)
	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lde", Name: "events_dropped_total", Help: "Events dropped because a subscriber buffer was full, by topic."},
		[]string{"topic"},
	)
	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lde", Name: "media_uploads_total", Help: "Media uploads by category."},
		[]string{"category"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(LeadsSubmitted)
	reg.MustRegister(LeadSync)
	reg.MustRegister(PageRenders)
	reg.MustRegister(MediaUploads)
	reg.MustRegister(EventsDropped)
}
