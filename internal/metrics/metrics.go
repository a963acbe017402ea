package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConversationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_conversations_created_total",
		Help: "Conversations created, participants included.",
	})
	ConversationsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_conversations_deleted_total",
		Help: "Conversations deleted with their children.",
	})
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Messages accepted by SendMessage.",
	})
	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_live_subscriptions",
		Help: "Standing change-feed subscriptions currently open.",
	})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
