package http

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OpenAPISpec is the API contract served on /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

type ServerConfig struct {
	Port           int
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	Logger         *slog.Logger
}

// ReadinessChecker reports whether the record store can serve requests.
type ReadinessChecker interface {
	// CheckReady returns "ok" or "fail" and a human readable message.
	CheckReady() (status, message string)
}

func NewServer(config ServerConfig, h *WhiskeyHandler, ready ReadinessChecker) *http.Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Metrics())
	r.Use(Recoverer(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(RequestTimeout(config.RequestTimeout))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/ping", ping)
	r.Get("/health", health)
	r.Get("/health/ready", healthReady(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", openAPIDocument)

	r.Route("/whiskeys", func(r chi.Router) {
		r.Get("/", h.listWhiskeys)
		r.Post("/", h.createWhiskey)
		r.Get("/{id}", h.getWhiskey)
		r.Put("/{id}", h.replaceWhiskey)
		r.Patch("/{id}", h.patchWhiskey)
		r.Delete("/{id}", h.deleteWhiskey)
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
}

/* Tests the http server connection. */
func ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func health(w http.ResponseWriter, r *http.Request) {
	responseJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type checkResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type readyResponse struct {
	Status string `json:"status"`
	Checks struct {
		Store checkResult `json:"store"`
	} `json:"checks"`
}

/* Readiness probe: 200 while the store answers, 503 otherwise. */
func healthReady(ready ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp readyResponse
		if ready == nil {
			resp.Checks.Store = checkResult{Status: "fail", Message: "not initialized"}
		} else {
			status, message := ready.CheckReady()
			resp.Checks.Store = checkResult{Status: status, Message: message}
		}
		resp.Status = resp.Checks.Store.Status

		if resp.Status != "ok" {
			responseJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		responseJSON(w, http.StatusOK, resp)
	}
}

func openAPIDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(OpenAPISpec)
}
