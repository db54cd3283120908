package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphedit_http_requests_total",
		Help: "HTTP requests served, by route and status code",
	}, []string{"route", "code"})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "graphedit_ws_clients",
		Help: "Connected WebSocket clients",
	})

	wsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graphedit_ws_dropped_clients_total",
		Help: "WebSocket clients disconnected because they could not keep up",
	})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests to route by response code.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}
}
