package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"HiCGallery/config"
	"HiCGallery/internal/handler"
	"HiCGallery/internal/metrics"
	"HiCGallery/internal/service"
)

const (
	RequestIDHeader = "X-Request-ID"

	validateRate  = 5
	validateBurst = 10
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

func setCORSHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Request-ID")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware tags every request with an id, logs it once it is done
// and records it in the HTTP metrics.
func loggingMiddleware(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			path := routeTemplate(r)
			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.Int("bytes", rec.bytes),
			}
			switch {
			case rec.status >= 500:
				logger.Error("http_request", fields...)
			case rec.status >= 400:
				logger.Warn("http_request", fields...)
			default:
				logger.Info("http_request", fields...)
			}
			metrics.RecordHTTPRequest(r.Method, path, rec.status, time.Since(start))
		})
	}
}

func rateLimited(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "too many validation requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// hideDotfiles keeps .env, .git and friends out of the static file server.
func hideDotfiles(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, seg := range strings.Split(r.URL.Path, "/") {
			if strings.HasPrefix(seg, ".") {
				http.NotFound(w, r)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func NewRouter(s service.GalleryService, cfg *config.Config, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Register()

	r := mux.NewRouter()
	r.Use(loggingMiddleware(logger))
	r.Use(setCORSHeaders)

	r.HandleFunc("/data.json", handler.GetManifest(s, logger)).Methods("GET")
	r.HandleFunc("/api/categories", handler.GetCategories(s, logger)).Methods("GET")
	r.HandleFunc("/api/cases/{case}/{number:[0-9]+}", handler.GetEntryByNumber(s, cfg, logger)).Methods("GET")
	r.HandleFunc("/api/{type}/{group}/", handler.GetCasesByGroup(s, cfg, logger)).Methods("GET")

	limiter := rate.NewLimiter(rate.Limit(validateRate), validateBurst)
	r.Handle("/api/validate", rateLimited(limiter, handler.ValidateCase(s, logger))).Methods("POST", "OPTIONS")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.PathPrefix("/").Handler(hideDotfiles(http.FileServer(http.Dir(cfg.Root)))).Methods("GET", "HEAD")

	return r
}
