package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"breakapp-hq/tally/pkg/budget"
)

// handlers holds the JSON REST handlers for the budget API.
type handlers struct {
	service *budget.Service
	logger  *slog.Logger
}

func newHandlers(service *budget.Service) *handlers {
	return &handlers{
		service: service,
		logger:  slog.Default().With("component", "server.handlers"),
	}
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, budget.ErrBudgetNotFound), errors.Is(err, budget.ErrAlertNotFound):
		status = http.StatusNotFound
	case errors.Is(err, budget.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, budget.ErrBudgetInactive),
		errors.Is(err, budget.ErrBudgetExpired),
		errors.Is(err, budget.ErrInvalidAmount):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, budget.ErrInvalidBudget):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		h.logger.ErrorContext(r.Context(), "internal error",
			"path", r.URL.Path,
			"error", err,
		)
		err = errors.New("internal error")
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *handlers) createBudget(w http.ResponseWriter, r *http.Request) {
	var params budget.CreateBudgetParams
	if err := decodeJSON(r, &params); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	b, err := h.service.CreateBudget(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *handlers) listBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.service.ListBudgets(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if budgets == nil {
		budgets = []*budget.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (h *handlers) getBudget(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// chargeRequest is the body of a check-and-charge call.
type chargeRequest struct {
	Amount float64 `json:"amount"`
	UserID string  `json:"user_id,omitempty"`
}

func (h *handlers) charge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.CheckAndCharge(r.Context(), r.PathValue("id"), req.Amount, req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// resetRequest is the body of a reset call.
type resetRequest struct {
	UserID string `json:"user_id,omitempty"`
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	b, err := h.service.ResetBudget(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handlers) deactivate(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.DeactivateBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	rng, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	report, err := h.service.Report(r.Context(), r.PathValue("id"), rng)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) listAlerts(w http.ResponseWriter, r *http.Request) {
	rng, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	alerts, err := h.service.ListAlerts(r.Context(), r.PathValue("id"), rng)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []*budget.CostAlert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// resolveRequest is the body of an alert resolve call.
type resolveRequest struct {
	ResolvedBy string `json:"resolved_by,omitempty"`
}

func (h *handlers) resolveAlert(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	alert, err := h.service.ResolveAlert(r.Context(), r.PathValue("id"), req.ResolvedBy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (h *handlers) readAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.service.MarkAlertRead(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (h *handlers) analytics(w http.ResponseWriter, r *http.Request) {
	rng, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	summary, err := h.service.AnalyticsSummary(r.Context(), rng)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// parseTimeRange reads optional RFC 3339 "start" and "end" query parameters.
func parseTimeRange(r *http.Request) (budget.TimeRange, error) {
	var rng budget.TimeRange

	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return rng, fmt.Errorf("invalid start time %q: must be RFC 3339", raw)
		}
		rng.Start = &t
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return rng, fmt.Errorf("invalid end time %q: must be RFC 3339", raw)
		}
		rng.End = &t
	}
	return rng, nil
}
