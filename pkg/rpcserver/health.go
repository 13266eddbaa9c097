package rpcserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nullsector/judged/pkg/langs"
	"github.com/nullsector/judged/pkg/metrics"
	"github.com/nullsector/judged/pkg/semaphore"
)

// HealthServer provides HTTP health check endpoints alongside the
// gRPC Judge service.
type HealthServer struct {
	registry *langs.Registry
	sem      *semaphore.Semaphore
	mux      *http.ServeMux
}

// NewHealthServer creates a new health check HTTP server backed by
// the same registry and semaphore the gRPC service uses.
func NewHealthServer(registry *langs.Registry, sem *semaphore.Semaphore) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		registry: registry,
		sem:      sem,
		mux:      mux,
	}

	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/ready", hs.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return hs
}

// Start starts the health check HTTP server.
func (hs *HealthServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// HealthResponse is the /health endpoint's body.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse is the /ready endpoint's body.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// healthHandler is a liveness check: 200 if the process is alive.
func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// readyHandler checks whether the judger is ready to accept Judge
// calls: a plugin registry with at least one loaded language, and an
// initialized memory semaphore. The semaphore's available bytes and
// waiter count are reported but do not affect readiness.
func (hs *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	ready := true
	var message string

	if hs.registry != nil && hs.registry.Len() > 0 {
		checks["registry"] = fmt.Sprintf("%d languages loaded", hs.registry.Len())
	} else {
		checks["registry"] = "no languages loaded"
		ready = false
		message = "Plugin registry is empty"
	}

	if hs.sem != nil {
		checks["semaphore"] = fmt.Sprintf("%d bytes available, %d waiters", hs.sem.Available(), hs.sem.Waiters())
	} else {
		checks["semaphore"] = "not initialized"
		ready = false
		if message == "" {
			message = "Memory semaphore not initialized"
		}
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadyResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
		Message:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// GetHandler returns the HTTP handler for embedding in other servers.
func (hs *HealthServer) GetHandler() http.Handler {
	return hs.mux
}
