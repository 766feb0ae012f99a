package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

type roomCounter interface {
	Len() int
}

type matchSummarizer interface {
	Summary(ctx context.Context) (*usecase.Summary, error)
}

type StatsHandler interface {
	StatsHandler(w http.ResponseWriter, r *http.Request)
}

type statsResponse struct {
	Rooms  int                `json:"rooms"`
	Stats  *entity.MatchStats `json:"stats"`
	Recent []*entity.Match    `json:"recent"`
}

type statsHandler struct {
	logger  *slog.Logger
	rooms   roomCounter
	matches matchSummarizer
}

func NewStatsHandler(logger *slog.Logger, rooms roomCounter, matches matchSummarizer) StatsHandler {
	return &statsHandler{
		logger:  logger,
		rooms:   rooms,
		matches: matches,
	}
}

// StatsHandler - live room count and finished match history.
func (that *statsHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "StatsHandler")

	summary, err := that.matches.Summary(r.Context())
	if err != nil {
		log.Error("failed to get match summary", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := statsResponse{
		Rooms:  that.rooms.Len(),
		Stats:  summary.Stats,
		Recent: summary.Recent,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("failed to write response", "error", err)
	}
}
