package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/api"
	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/ratelimit"
	"clipforge/internal/services"
	"clipforge/internal/store"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind    string
	logger  *slog.Logger
	service *api.Service
	daemon  *Daemon
	limiter ratelimit.Limiter

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, svc *api.Service, d *Daemon, limiter ratelimit.Limiter, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("api server requires config and service")
	}
	srv := &apiServer{
		bind:    strings.TrimSpace(cfg.Paths.APIBind),
		logger:  logger,
		service: svc,
		daemon:  d,
		limiter: limiter,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", srv.handleHealth)
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("POST /api/jobs", srv.rateLimited(srv.handleSubmitJob))
	mux.HandleFunc("GET /api/jobs", srv.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", srv.handleGetJob)
	mux.HandleFunc("POST /api/jobs/{id}/clips/{clipId}/rerender", srv.rateLimited(srv.handleRerender))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// rateLimited applies fixed-window admission control keyed by client address.
// Every response carries the window headers; rejected requests get a 429.
func (s *apiServer) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next(w, r)
			return
		}
		result := s.limiter.Allow(r.Context(), clientKey(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		if !result.OK {
			s.writeError(w, http.StatusTooManyRequests, "Too many requests. Try again soon.")
			return
		}
		next(w, r)
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	payload := api.DaemonStatus{Stats: stats}
	if s.daemon != nil {
		status := s.daemon.Status()
		payload.Running = status.Running
		payload.PID = status.PID
		payload.DBPath = status.DBPath
		payload.LockFilePath = status.LockFilePath
		payload.Workers = status.Workers
		payload.Dependencies = make([]api.DependencyStatus, len(status.Dependencies))
		for i, dep := range status.Dependencies {
			payload.Dependencies[i] = api.DependencyStatus{
				Name:        dep.Name,
				Command:     dep.Command,
				Description: dep.Description,
				Optional:    dep.Optional,
				Available:   dep.Available,
				Detail:      dep.Detail,
			}
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitJobRequest
	if !s.decode(w, r, &req) {
		return
	}
	job, err := s.service.SubmitJob(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.JobResponse{Job: job})
}

func (s *apiServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var statuses []store.JobStatus
	for _, value := range r.URL.Query()["status"] {
		status, ok := store.ParseJobStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}
	jobs, err := s.service.List(r.Context(), statuses...)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: jobs})
}

func (s *apiServer) handleGetJob(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if resp == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleRerender(w http.ResponseWriter, r *http.Request) {
	var req api.RerenderRequest
	if !s.decode(w, r, &req) {
		return
	}
	err := s.service.RequestRerender(r.Context(), r.PathValue("id"), r.PathValue("clipId"), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(target); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	s.writeError(w, status, services.UserMessage(err))
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
