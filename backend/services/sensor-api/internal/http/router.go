package httpserver

import (
	"net/http"

	"go.uber.org/zap"

	"sensorhub/backend/services/sensor-api/internal/http/handlers"
	"sensorhub/backend/services/sensor-api/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers    *handlers.AuthHandlers
	SensorsHandlers *handlers.SensorsHandlers
	StreamHandler   http.HandlerFunc
	MetricsHandler  http.Handler
	Authenticator   middleware.Authenticator
	RequestObserver middleware.RequestObserver
	AllowedOrigins  []string
	Logger          *zap.Logger
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/{$}", method(http.MethodGet, handlers.NewRootHandler()))
	mux.Handle("/", handlers.NewNotFoundHandler())
	mux.Handle("/health", method(http.MethodGet, handlers.NewHealthHandler()))
	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.MetricsHandler))
	}

	mux.Handle("/auth/register", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Register)))
	mux.Handle("/auth/login", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Login)))

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, middleware.AuthMiddleware(deps.Authenticator))
	}

	mux.Handle("/auth/me", method(http.MethodGet, authenticated(deps.AuthHandlers.Me)))
	mux.Handle("/sensors/data", method(http.MethodPost, authenticated(deps.SensorsHandlers.InsertReading)))
	mux.Handle("/sensors/upload", method(http.MethodPost, authenticated(deps.SensorsHandlers.UploadCSV)))
	mux.Handle("/sensors/average", method(http.MethodGet, authenticated(deps.SensorsHandlers.Average)))
	mux.Handle("/sensors/averages", method(http.MethodGet, authenticated(deps.SensorsHandlers.Averages)))
	mux.Handle("/sensors/{equipmentId}/data", method(http.MethodGet, authenticated(deps.SensorsHandlers.StationData)))

	if deps.StreamHandler != nil {
		stream := middleware.Chain(deps.StreamHandler, middleware.AuthMiddleware(deps.Authenticator, middleware.AllowQueryToken()))
		mux.Handle("/sensors/stream", method(http.MethodGet, stream))
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return middleware.Chain(mux,
		middleware.AccessLog(logger, deps.RequestObserver),
		middleware.CORS(deps.AllowedOrigins),
	)
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
