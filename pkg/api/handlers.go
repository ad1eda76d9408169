package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/engine"
	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/estimator"
)

// StateResponse is the JSON view of an engine snapshot.
type StateResponse struct {
	Field         string                  `json:"field"`
	Mechanism     string                  `json:"mechanism"`
	AccuracyIndex int                     `json:"accuracy_index"`
	Accuracy      float64                 `json:"accuracy"`
	Alpha         float64                 `json:"alpha"`
	Scale         float64                 `json:"scale,omitempty"`
	Buckets       []string                `json:"buckets"`
	Counts        []uint64                `json:"counts"`
	Noised        []int64                 `json:"noised"`
	Intervals     []estimator.CIResult    `json:"intervals,omitempty"`
	Observed      *estimator.ErrorSummary `json:"observed_error,omitempty"`
	Stale         bool                    `json:"stale"`
	Error         string                  `json:"error,omitempty"`
}

func newStateResponse(s engine.Snapshot) StateResponse {
	resp := StateResponse{
		Field:         s.Field,
		Mechanism:     s.Mechanism.String(),
		AccuracyIndex: s.AccuracyIndex,
		Accuracy:      s.Accuracy,
		Alpha:         s.Alpha,
		Stale:         s.Stale,
		Buckets:       []string{},
		Counts:        []uint64{},
		Noised:        []int64{},
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	if rel := s.Release; rel != nil {
		resp.Scale = rel.Scale
		resp.Buckets = rel.Buckets
		resp.Counts = rel.Counts
		resp.Noised = rel.Noised
		resp.Intervals = estimator.CountIntervals(rel.Buckets, rel.Noised, rel.Mechanism, rel.Scale, rel.Alpha)
		obs := estimator.ObservedError(rel.Counts, rel.Noised, rel.Accuracy)
		resp.Observed = &obs
	}
	return resp
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, JSON{"status": "ok"})
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(h.eng.Snapshot()))
}

func (h *Handler) GetFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, JSON{"fields": h.eng.Fields(), "active": h.eng.Field()})
}

// transition runs one engine action. A failed refresh is not a request
// error: the response carries the stale snapshot and the error text.
func (h *Handler) transition(w http.ResponseWriter, action string, fn func() error) {
	if err := fn(); err != nil {
		h.logger.Warn("transition left engine stale", zap.String("action", action), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, newStateResponse(h.eng.Snapshot()))
}

func (h *Handler) PostToggleMechanism(w http.ResponseWriter, r *http.Request) {
	h.transition(w, "toggle", h.eng.ToggleMechanism)
}

func (h *Handler) PostIncreaseAccuracy(w http.ResponseWriter, r *http.Request) {
	h.transition(w, "increase", h.eng.IncreaseAccuracy)
}

func (h *Handler) PostDecreaseAccuracy(w http.ResponseWriter, r *http.Request) {
	h.transition(w, "decrease", h.eng.DecreaseAccuracy)
}

func (h *Handler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	h.transition(w, "refresh", h.eng.Refresh)
}

type SwitchFieldRequest struct {
	Field string `json:"field"`
}

func (h *Handler) PostSwitchField(w http.ResponseWriter, r *http.Request) {
	var req SwitchFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, JSON{"error": "invalid json"})
		return
	}
	req.Field = strings.TrimSpace(req.Field)
	if req.Field == "" {
		writeJSON(w, http.StatusBadRequest, JSON{"error": "field required"})
		return
	}

	err := h.eng.SwitchField(req.Field)
	if errors.Is(err, engine.ErrUnknownField) {
		writeJSON(w, http.StatusBadRequest, JSON{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Warn("transition left engine stale", zap.String("action", "switch"), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, newStateResponse(h.eng.Snapshot()))
}
