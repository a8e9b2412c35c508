// Package metrics holds the relay's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Gameplay messages relayed to room peers, by message type",
		},
		[]string{"type"},
	)
	MessagesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_rejected_total",
			Help: "Inbound messages the relay refused, by reason",
		},
		[]string{"reason"},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_games_finished_total",
			Help: "Matches that reported a result, by winning side",
		},
		[]string{"winner"},
	)
	PeersConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_peers_connected",
			Help: "Peers currently connected to the relay",
		},
	)
	RoomsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_rooms_open",
			Help: "Rooms with at least one connected peer",
		},
	)
)

func init() {
	prometheus.MustRegister(MessagesRelayed)
	prometheus.MustRegister(MessagesRejected)
	prometheus.MustRegister(GamesFinished)
	prometheus.MustRegister(PeersConnected)
	prometheus.MustRegister(RoomsOpen)
}

// Handler 暴露 /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
