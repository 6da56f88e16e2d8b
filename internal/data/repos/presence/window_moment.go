package presence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type WindowMomentRepo interface {
	Create(dbc dbctx.Context, row *types.WindowMoment) (*types.WindowMoment, error)
	ListStartedSince(dbc dbctx.Context, since time.Time) ([]*types.WindowMoment, error)
}

type windowMomentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWindowMomentRepo(db *gorm.DB, baseLog *logger.Logger) WindowMomentRepo {
	return &windowMomentRepo{db: db, log: baseLog.With("repo", "WindowMomentRepo")}
}

func (r *windowMomentRepo) Create(dbc dbctx.Context, row *types.WindowMoment) (*types.WindowMoment, error) {
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.StartedAt = row.StartedAt.UTC()
	row.EndsAt = row.EndsAt.UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	row.CreatedAt = row.CreatedAt.UTC()
	if err := conn(r.db, dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *windowMomentRepo) ListStartedSince(dbc dbctx.Context, since time.Time) ([]*types.WindowMoment, error) {
	var out []*types.WindowMoment
	err := conn(r.db, dbc).
		Where("started_at >= ?", since.UTC()).
		Order("started_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
