// Package metrics registers the bot's Prometheus collectors.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

var (
	once sync.Once

	mutations *prometheus.CounterVec
	fires     *prometheus.CounterVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		mutations = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatcmd_mutations_total",
			Help: "Command management sub-commands handled from chat, by operation and result",
		}, []string{"op", "result"})
		fires = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatcmd_custom_command_fires_total",
			Help: "Custom command activations, by outcome",
		}, []string{"result"})
	})
}

func ObserveMutation(op, result string) {
	Init()
	mutations.WithLabelValues(op, result).Inc()
}

// ObserveFire records a custom command activation; result is "sent",
// "cooldown" or "restricted".
func ObserveFire(result string) {
	Init()
	fires.WithLabelValues(result).Inc()
}

func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
