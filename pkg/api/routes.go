// Package api exposes an engine over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/engine"
)

type JSON map[string]any

func RegisterRoutes(r *mux.Router, eng *engine.Engine, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{eng: eng, logger: logger}

	// Read endpoints
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/state", h.GetState).Methods(http.MethodGet)
	r.HandleFunc("/fields", h.GetFields).Methods(http.MethodGet)

	// Transitions
	r.HandleFunc("/mechanism/toggle", h.PostToggleMechanism).Methods(http.MethodPost)
	r.HandleFunc("/accuracy/increase", h.PostIncreaseAccuracy).Methods(http.MethodPost)
	r.HandleFunc("/accuracy/decrease", h.PostDecreaseAccuracy).Methods(http.MethodPost)
	r.HandleFunc("/refresh", h.PostRefresh).Methods(http.MethodPost)
	r.HandleFunc("/field", h.PostSwitchField).Methods(http.MethodPost)
}

type Handler struct {
	eng    *engine.Engine
	logger *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
