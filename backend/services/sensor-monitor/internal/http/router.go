package httpserver

import (
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Routes groups handlers. Nil handlers are not registered.
type Routes struct {
	Dashboard   http.HandlerFunc
	Stats       http.HandlerFunc
	SensorData  http.HandlerFunc
	Health      http.HandlerFunc
	Metrics     http.HandlerFunc
	LiveUpdates http.HandlerFunc
}

// unmatchedRoute labels requests that hit no registered endpoint.
const unmatchedRoute = "unmatched"

// NewRouter registers endpoints. Unknown paths get a 404 that is still logged and observed.
func NewRouter(routes Routes, logger *zap.Logger, observer RequestObserver) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern, route string, handler http.HandlerFunc) {
		mux.Handle(pattern, instrument(route, handler, logger, observer))
	}

	root := map[string]http.HandlerFunc{}
	if routes.Dashboard != nil {
		root[http.MethodGet] = routes.Dashboard
		handle("/index.html", "/index.html", method(http.MethodGet, routes.Dashboard))
	}
	if routes.SensorData != nil {
		root[http.MethodPost] = routes.SensorData
		handle("/sensor-data", "/sensor-data", method(http.MethodPost, routes.SensorData))
	}
	if len(root) > 0 {
		handle("/{$}", "/", methods(root))
	}
	if routes.Stats != nil {
		handle("/stats", "/stats", method(http.MethodGet, routes.Stats))
	}
	if routes.Health != nil {
		handle("/health", "/health", method(http.MethodGet, routes.Health))
	}
	if routes.Metrics != nil {
		handle("/metrics", "/metrics", method(http.MethodGet, routes.Metrics))
	}
	if routes.LiveUpdates != nil {
		handle("/ws", "/ws", method(http.MethodGet, routes.LiveUpdates))
	}
	handle("/", unmatchedRoute, http.NotFound)
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return methods(map[string]http.HandlerFunc{expected: handler})
}

func methods(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	allowed := make([]string, 0, len(handlers))
	for m := range handlers {
		allowed = append(allowed, m)
	}
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")

	return func(w http.ResponseWriter, r *http.Request) {
		handler, ok := handlers[r.Method]
		if !ok {
			w.Header().Set("Allow", allow)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
