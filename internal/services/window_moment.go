package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type WindowMomentInput struct {
	StartedAt        time.Time `json:"started_at"`
	EndsAt           time.Time `json:"ends_at"`
	PositionX        float64   `json:"position_x"`
	PositionY        float64   `json:"position_y"`
	TriggeredBy      string    `json:"triggered_by"`
	ParticipantCount int       `json:"participant_count"`
}

type WindowMomentService interface {
	InsertWindowMoment(ctx context.Context, in WindowMomentInput) (uuid.UUID, error)
	GetWindowMomentsInRange(ctx context.Context, since time.Time) ([]types.WindowMoment, error)
}

type windowMomentService struct {
	log  *logger.Logger
	repo repos.WindowMomentRepo
	cfg  Config
}

func NewWindowMomentService(log *logger.Logger, repo repos.WindowMomentRepo, cfg Config) WindowMomentService {
	return &windowMomentService{
		log:  log.With("service", "WindowMomentService"),
		repo: repo,
		cfg:  cfg.withDefaults(),
	}
}

func (s *windowMomentService) InsertWindowMoment(ctx context.Context, in WindowMomentInput) (uuid.UUID, error) {
	if in.StartedAt.IsZero() || !in.EndsAt.After(in.StartedAt) {
		return uuid.Nil, invalid("invalid_window", "ends_at must be after started_at")
	}
	if in.ParticipantCount < 0 {
		return uuid.Nil, invalid("invalid_participants", "participant count must be non-negative")
	}
	row, err := s.repo.Create(dbctx.Context{Ctx: ctx}, &types.WindowMoment{
		ID:               uuid.New(),
		StartedAt:        in.StartedAt,
		EndsAt:           in.EndsAt,
		PositionX:        clamp01(in.PositionX),
		PositionY:        clamp01(in.PositionY),
		TriggeredBy:      strings.TrimSpace(in.TriggeredBy),
		ParticipantCount: in.ParticipantCount,
		CreatedAt:        s.cfg.now(),
	})
	if err != nil {
		s.log.Warn("window moment insert failed", "error", err)
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (s *windowMomentService) GetWindowMomentsInRange(ctx context.Context, since time.Time) ([]types.WindowMoment, error) {
	rows, err := s.repo.ListStartedSince(dbctx.Context{Ctx: ctx}, since)
	if err != nil {
		return nil, err
	}
	out := make([]types.WindowMoment, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out, nil
}
