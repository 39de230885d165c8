// Package api exposes the prediction pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"teemo/internal/history"
	"teemo/internal/pipeline"
	"teemo/internal/predict"
	"teemo/internal/riot"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// MaxNames caps the players accepted in one prediction request
const MaxNames = 10

// Runner is the part of the pipeline the handlers drive
type Runner interface {
	Run(ctx context.Context, names []string) (*pipeline.Run, error)
	History(ctx context.Context, names []string) (*history.Report, error)
}

type Config struct {
	Pipeline Runner
	Logger   *zap.Logger
}

type Handler struct {
	pipeline Runner
	logger   *zap.SugaredLogger
}

func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		pipeline: cfg.Pipeline,
		logger:   logger.Sugar(),
	}
}

type predictionRequest struct {
	Names []string `json:"names"`
}

type predictionRow struct {
	GameID        int64      `json:"gameId"`
	Slot          int        `json:"slot"`
	SummonerName  string     `json:"summonerName"`
	Win           int        `json:"win"`
	Probabilities [2]float64 `json:"probabilities"`
	Actual        int        `json:"actual"`
}

type predictionResponse struct {
	RunID          string          `json:"runId"`
	Predictions    []predictionRow `json:"predictions"`
	Score          float64         `json:"score"`
	MissingColumns []string        `json:"missingColumns,omitempty"`
	Malformed      int             `json:"malformedSlots"`
	DurationMs     int64           `json:"durationMs"`
}

// CreatePrediction runs the pipeline for the posted names
func (h *Handler) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.Names) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "names must not be empty")
		return
	}
	if len(req.Names) > MaxNames {
		h.errorResponse(w, http.StatusBadRequest, "too many names")
		return
	}

	run, err := h.pipeline.Run(r.Context(), req.Names)
	if err != nil {
		h.pipelineError(w, err)
		return
	}

	labels := run.Table.Labels()
	resp := predictionResponse{
		RunID:          run.ID.String(),
		Predictions:    make([]predictionRow, len(run.Result.Labels)),
		Score:          run.Result.Score,
		MissingColumns: run.Table.Missing,
		Malformed:      len(run.Report.Malformed()),
		DurationMs:     run.Duration.Milliseconds(),
	}
	if len(resp.Predictions) == 0 {
		resp.MissingColumns = nil
	}
	for i, label := range run.Result.Labels {
		o := run.Report.Observations[i]
		resp.Predictions[i] = predictionRow{
			GameID:        o.GameID,
			Slot:          o.Slot,
			SummonerName:  o.Name,
			Win:           label,
			Probabilities: run.Result.Probabilities[i],
			Actual:        int(labels[i]),
		}
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

type malformedSlot struct {
	Slot  int    `json:"slot"`
	Field string `json:"field"`
}

type matchScan struct {
	GameID    int64           `json:"gameId"`
	Scanned   int             `json:"scanned"`
	Matched   int             `json:"matched"`
	Truncated bool            `json:"truncated,omitempty"`
	Malformed []malformedSlot `json:"malformed,omitempty"`
}

type observation struct {
	GameID int64          `json:"gameId"`
	Slot   int            `json:"slot"`
	Stats  map[string]any `json:"stats"`
}

type historyResponse struct {
	SummonerName string        `json:"summonerName"`
	Observations []observation `json:"observations"`
	Matches      []matchScan   `json:"matches"`
}

// GetPlayerHistory returns the raw statistics a player recorded in their match list
func (h *Handler) GetPlayerHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	report, err := h.pipeline.History(r.Context(), []string{name})
	if err != nil {
		h.pipelineError(w, err)
		return
	}

	resp := historyResponse{
		SummonerName: name,
		Observations: make([]observation, 0, len(report.Observations)),
		Matches:      make([]matchScan, 0, len(report.Matches)),
	}
	for _, o := range report.Observations {
		resp.Observations = append(resp.Observations, observation{GameID: o.GameID, Slot: o.Slot, Stats: o.Stats})
	}
	for _, m := range report.Matches {
		scan := matchScan{GameID: m.GameID, Scanned: m.Scanned, Matched: m.Matched, Truncated: m.Truncated}
		for _, e := range m.Malformed {
			scan.Malformed = append(scan.Malformed, malformedSlot{Slot: e.Slot, Field: e.Field})
		}
		resp.Matches = append(resp.Matches, scan)
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// pipelineError maps a pipeline failure to a status code
func (h *Handler) pipelineError(w http.ResponseWriter, err error) {
	var (
		notFound  *riot.NotFoundError
		transport *riot.TransportError
		loadErr   *predict.ModelLoadError
		mismatch  *predict.SchemaMismatchError
	)

	switch {
	case errors.Is(err, riot.ErrEmptyName):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		h.errorResponse(w, http.StatusNotFound, err.Error())
	case errors.As(err, &mismatch):
		h.logger.Errorw("model schema mismatch", "error", err)
		h.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &loadErr):
		h.logger.Errorw("model unavailable", "error", err)
		h.errorResponse(w, http.StatusServiceUnavailable, "model unavailable")
	// Transport errors wrap the caller's context error
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.errorResponse(w, http.StatusServiceUnavailable, "request cancelled")
	case errors.Is(err, riot.ErrRateLimited):
		h.errorResponse(w, http.StatusTooManyRequests, "upstream rate limit reached")
	case errors.As(err, &transport):
		h.logger.Warnw("upstream request failed", "error", err)
		h.errorResponse(w, http.StatusBadGateway, "upstream request failed")
	default:
		h.logger.Errorw("pipeline failed", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
