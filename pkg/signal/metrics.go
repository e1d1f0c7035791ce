package signal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaler_users_connected",
		Help: "Number of currently connected users.",
	})
	metricRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaler_rooms_open",
		Help: "Number of open rooms.",
	})
	metricCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaler_calls_pending",
		Help: "Number of unresolved call invitations.",
	})
	metricRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaler_messages_relayed_total",
		Help: "Total count of delivered signaling messages.",
	})
	metricSendFails = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaler_send_failures_total",
		Help: "Total count of failed sends, each one costs a disconnect.",
	})
)
