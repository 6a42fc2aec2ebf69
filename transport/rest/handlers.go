package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-series/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-series/internal/entity"
	"github.com/rocketscienceinc/tictactoe-series/transport/session"
)

type Handlers interface {
	GetSeries(w http.ResponseWriter, r *http.Request)
	SetupSeries(w http.ResponseWriter, r *http.Request)
	StartSeries(w http.ResponseWriter, r *http.Request)
	Move(w http.ResponseWriter, r *http.Request)
	NextRound(w http.ResponseWriter, r *http.Request)
	Acknowledge(w http.ResponseWriter, r *http.Request)
	ResetSeries(w http.ResponseWriter, r *http.Request)
	Results(w http.ResponseWriter, r *http.Request)
}

type uSeries interface {
	GetOrCreate(ctx context.Context, sessionID string) (entity.View, error)
	Configure(ctx context.Context, sessionID string, players entity.Players) (entity.View, error)
	SelectBestOf(ctx context.Context, sessionID string, bestOf int) (entity.View, error)
	Setup(ctx context.Context, sessionID string, config entity.SeriesConfig) (entity.View, error)
	Start(ctx context.Context, sessionID string) (entity.View, error)
	Play(ctx context.Context, sessionID string, cell int) (entity.View, error)
	NextRound(ctx context.Context, sessionID string) (entity.View, error)
	Acknowledge(ctx context.Context, sessionID string) (entity.View, error)
	Reset(ctx context.Context, sessionID string) (entity.View, error)
	Results(ctx context.Context, limit int) ([]entity.SeriesResult, error)
}

// SetupRequest carries the setup form. Omitted fields stay as they are.
type SetupRequest struct {
	Players *entity.Players `json:"players,omitempty"`
	BestOf  *int            `json:"best_of,omitempty"`
}

type MoveRequest struct {
	Cell *int `json:"cell"`
}

type errorResponse struct {
	Error  string       `json:"error"`
	Series *entity.View `json:"series,omitempty"`
}

type handlers struct {
	logger *slog.Logger
	series uSeries
}

func NewHandlers(logger *slog.Logger, series uSeries) Handlers {
	return &handlers{
		logger: logger.With("component", "rest_handlers"),
		series: series,
	}
}

func (that *handlers) GetSeries(w http.ResponseWriter, r *http.Request) {
	view, err := that.series.GetOrCreate(r.Context(), session.FromContext(r.Context()))
	that.respond(w, "GetSeries", view, err)
}

func (that *handlers) SetupSeries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := session.FromContext(ctx)

	var req SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	var (
		view entity.View
		err  error
	)

	switch {
	case req.Players != nil && req.BestOf != nil:
		view, err = that.series.Setup(ctx, sessionID, entity.SeriesConfig{Players: *req.Players, BestOf: *req.BestOf})
	case req.Players != nil:
		view, err = that.series.Configure(ctx, sessionID, *req.Players)
	case req.BestOf != nil:
		view, err = that.series.SelectBestOf(ctx, sessionID, *req.BestOf)
	default:
		view, err = that.series.GetOrCreate(ctx, sessionID)
	}

	that.respond(w, "SetupSeries", view, err)
}

func (that *handlers) StartSeries(w http.ResponseWriter, r *http.Request) {
	view, err := that.series.Start(r.Context(), session.FromContext(r.Context()))
	that.respond(w, "StartSeries", view, err)
}

func (that *handlers) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	if req.Cell == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cell is required"})
		return
	}

	view, err := that.series.Play(r.Context(), session.FromContext(r.Context()), *req.Cell)
	that.respond(w, "Move", view, err)
}

func (that *handlers) NextRound(w http.ResponseWriter, r *http.Request) {
	view, err := that.series.NextRound(r.Context(), session.FromContext(r.Context()))
	that.respond(w, "NextRound", view, err)
}

func (that *handlers) Acknowledge(w http.ResponseWriter, r *http.Request) {
	view, err := that.series.Acknowledge(r.Context(), session.FromContext(r.Context()))
	that.respond(w, "Acknowledge", view, err)
}

func (that *handlers) ResetSeries(w http.ResponseWriter, r *http.Request) {
	view, err := that.series.Reset(r.Context(), session.FromContext(r.Context()))
	that.respond(w, "ResetSeries", view, err)
}

func (that *handlers) Results(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "Results")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a number"})
			return
		}
		limit = parsed
	}

	results, err := that.series.Results(r.Context(), limit)
	if err != nil {
		log.Error("failed to list results", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (that *handlers) respond(w http.ResponseWriter, method string, view entity.View, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, apperror.ErrInvalidSetup):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: apperror.SetupValidationMessage, Series: &view})
	case errors.Is(err, entity.ErrInvalidCell):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Series: &view})
	default:
		that.logger.Error("request failed", "method", method, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
