package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"chatcmd/internal/domain"
	"chatcmd/internal/infrastructure/logging"
	"chatcmd/internal/usecase/commands"
)

type Config struct {
	Addr string

	Commands CommandLister
	Groups   domain.ViewerGroupRepository
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

type CommandLister interface {
	List(ctx context.Context) []commands.CommandDTO
}

func (c *Config) addr() string {
	if c.Addr == "" {
		return ":8080"
	}
	return c.Addr
}

type apiHandlers struct {
	commands CommandLister
	groups   domain.ViewerGroupRepository
	metrics  http.Handler
}

func newAPIHandlers(cfg Config) *apiHandlers {
	return &apiHandlers{
		commands: cfg.Commands,
		groups:   cfg.Groups,
		metrics:  cfg.Metrics,
	}
}

func (a *apiHandlers) register(mux *http.ServeMux) {
	if a == nil || mux == nil {
		return
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if a.commands != nil {
		mux.HandleFunc("/api/commands", a.withCORS(a.handleCommands))
	}
	if a.groups != nil {
		mux.HandleFunc("/api/groups", a.withCORS(a.handleGroups))
	}
	if a.metrics != nil {
		mux.Handle("/metrics", a.metrics)
	}
}

func (a *apiHandlers) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
}

type commandsResponse struct {
	Commands []commands.CommandDTO `json:"commands"`
}

type groupsResponse struct {
	Groups []domain.ViewerGroup `json:"groups"`
}

func (a *apiHandlers) handleCommands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, commandsResponse{Commands: a.commands.List(r.Context())})
}

func (a *apiHandlers) handleGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	groups, err := a.groups.ListViewerGroups(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("ws: list viewer groups")
		writeError(w, http.StatusInternalServerError, "could not list groups")
		return
	}
	if groups == nil {
		groups = []domain.ViewerGroup{}
	}
	writeJSON(w, http.StatusOK, groupsResponse{Groups: groups})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("ws: encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
