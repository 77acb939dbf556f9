package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voxflow/voxflow/internal/metrics"
)

// Routes assembles the gateway's HTTP surface: the websocket conversation
// endpoint, prometheus metrics, and a liveness probe.
func Routes(voice *VoiceHandler, collector *metrics.Collector, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/ws", voice)

	if registry := collector.Registry(); registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	return mux
}
