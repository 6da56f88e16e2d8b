package presence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type PingRepo interface {
	Create(dbc dbctx.Context, row *types.Ping) (*types.Ping, error)
	CountSince(dbc dbctx.Context, since time.Time) (int64, error)
	CountDistinctDevicesSince(dbc dbctx.Context, since time.Time) (int64, error)
	DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type pingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPingRepo(db *gorm.DB, baseLog *logger.Logger) PingRepo {
	return &pingRepo{db: db, log: baseLog.With("repo", "PingRepo")}
}

func (r *pingRepo) Create(dbc dbctx.Context, row *types.Ping) (*types.Ping, error) {
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	row.CreatedAt = row.CreatedAt.UTC()
	if err := conn(r.db, dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *pingRepo) CountSince(dbc dbctx.Context, since time.Time) (int64, error) {
	var n int64
	err := conn(r.db, dbc).Model(&types.Ping{}).Where("created_at >= ?", since.UTC()).Count(&n).Error
	return n, err
}

func (r *pingRepo) CountDistinctDevicesSince(dbc dbctx.Context, since time.Time) (int64, error) {
	var n int64
	err := conn(r.db, dbc).
		Model(&types.Ping{}).
		Where("created_at >= ?", since.UTC()).
		Distinct("device_id").
		Count(&n).Error
	return n, err
}

func (r *pingRepo) DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := conn(r.db, dbc).Where("created_at < ?", cutoff.UTC()).Delete(&types.Ping{})
	return res.RowsAffected, res.Error
}
