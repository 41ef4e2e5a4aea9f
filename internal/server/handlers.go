package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rgehrsitz/viability/internal/calculation"
	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/logging"
	"github.com/rgehrsitz/viability/internal/viability"
)

// Handlers serves the simulation endpoints
type Handlers struct {
	planner       *viability.Planner
	maxIterations int
	log           zerolog.Logger
}

// NewHandlers creates the simulation handlers
func NewHandlers(planner *viability.Planner, maxIterations int, log zerolog.Logger) *Handlers {
	return &Handlers{
		planner:       planner,
		maxIterations: maxIterations,
		log:           log.With().Str("module", "simulation_handlers").Logger(),
	}
}

// RegisterRoutes mounts the endpoints on r
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/simulate", h.HandleSimulate)
	r.Post("/validate", h.HandleValidate)
	r.Get("/tables", h.HandleTables)
}

// SimulateRequest is the wire form of viability.Request
type SimulateRequest struct {
	Params       *domain.SimulationParameters `json:"params"`
	Iterations   *int                         `json:"iterations,omitempty"`
	Seed         *uint64                      `json:"seed,omitempty"`
	RetainTraces int                          `json:"retainTraces,omitempty"`
	// TimeBudget is a Go duration string such as "30s"
	TimeBudget string            `json:"timeBudget,omitempty"`
	Options    viability.Options `json:"options"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// HandleHealth handles GET /health
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleTables handles GET /v1/tables
// Returns the version of the active tables
func (h *Handlers) HandleTables(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.planner.Tables().Version})
}

// HandleValidate handles POST /v1/validate
// Validates household parameters without simulating
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var params domain.SimulationParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.log.Debug().Err(err).Msg("Failed to decode validate request")
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := params.Validate(); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "valid"})
}

// HandleSimulate handles POST /v1/simulate
func (h *Handlers) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug().Err(err).Msg("Failed to decode simulate request")
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Params == nil {
		h.writeError(w, http.StatusBadRequest, errors.New("params is required"))
		return
	}
	// an explicit count must be positive; only an omitted one takes the default
	var iterations int
	if req.Iterations != nil {
		if *req.Iterations <= 0 {
			verr := &domain.ValidationError{}
			verr.Add("iterations", "must be positive, got %d", *req.Iterations)
			h.writeError(w, http.StatusUnprocessableEntity, verr)
			return
		}
		iterations = *req.Iterations
	}

	var budget time.Duration
	if req.TimeBudget != "" {
		d, err := time.ParseDuration(req.TimeBudget)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid timeBudget: %w", err))
			return
		}
		budget = d
	}

	planner := *h.planner
	planner.SetLogger(logging.NewAdapter(h.log, "planner"))
	planner.SetMaxIterations(h.maxIterations)

	resp, err := planner.Run(r.Context(), viability.Request{
		Params:       req.Params,
		Iterations:   iterations,
		Seed:         req.Seed,
		RetainTraces: req.RetainTraces,
		TimeBudget:   budget,
		Options:      req.Options,
	})
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// statusFor maps planner errors onto HTTP status codes
func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calculation.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, calculation.ErrCanceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes an ErrorResponse
func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	body := ErrorResponse{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Errors
	}
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("Simulation request failed")
	}
	h.writeJSON(w, status, body)
}

// writeJSON writes a JSON response
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
