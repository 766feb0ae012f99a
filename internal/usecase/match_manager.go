package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var ErrMatchNotFinished = errors.New("match has no result")

type matchRepo interface {
	Save(ctx context.Context, match *entity.Match) error
	Stats(ctx context.Context) (*entity.MatchStats, error)
	Recent(ctx context.Context, limit int) ([]*entity.Match, error)
}

// Summary - what GET /stats reports about finished games.
type Summary struct {
	Stats  *entity.MatchStats `json:"stats"`
	Recent []*entity.Match    `json:"recent"`
}

type MatchManager struct {
	logger    *slog.Logger
	matchRepo matchRepo

	recentLimit int
}

func NewMatchManager(logger *slog.Logger, matchRepo matchRepo, recentLimit int) *MatchManager {
	return &MatchManager{
		logger:    logger.With("component", "match_manager"),
		matchRepo: matchRepo,

		recentLimit: recentLimit,
	}
}

// RecordMatch - stores a finished game.
func (that *MatchManager) RecordMatch(ctx context.Context, match *entity.Match) error {
	log := that.logger.With("method", "RecordMatch")

	if match == nil || match.Winner == "" {
		return ErrMatchNotFinished
	}

	if err := that.matchRepo.Save(ctx, match); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	log.Info("match recorded", "room_id", match.RoomID, "winner", match.Winner)

	return nil
}

// Summary - counters plus the most recent matches, newest first.
func (that *MatchManager) Summary(ctx context.Context) (*Summary, error) {
	stats, err := that.matchRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	recent, err := that.matchRepo.Recent(ctx, that.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent matches: %w", err)
	}

	if recent == nil {
		recent = []*entity.Match{}
	}

	return &Summary{Stats: stats, Recent: recent}, nil
}
