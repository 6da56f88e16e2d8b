package presence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/geo"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type PresenceSignalRepo interface {
	Upsert(dbc dbctx.Context, row *types.PresenceSignal) error
	ListLiveInBox(dbc dbctx.Context, box geo.Box, now time.Time) ([]*types.PresenceSignal, error)
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type presenceSignalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPresenceSignalRepo(db *gorm.DB, baseLog *logger.Logger) PresenceSignalRepo {
	return &presenceSignalRepo{db: db, log: baseLog.With("repo", "PresenceSignalRepo")}
}

func (r *presenceSignalRepo) Upsert(dbc dbctx.Context, row *types.PresenceSignal) error {
	if row == nil || row.DeviceID == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.ExpiresAt = row.ExpiresAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	return conn(r.db, dbc).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"lat",
				"lng",
				"intensity",
				"expires_at",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *presenceSignalRepo) ListLiveInBox(dbc dbctx.Context, box geo.Box, now time.Time) ([]*types.PresenceSignal, error) {
	var out []*types.PresenceSignal
	err := conn(r.db, dbc).
		Where("lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?", box.MinLat, box.MaxLat, box.MinLng, box.MaxLng).
		Where("expires_at > ?", now.UTC()).
		Order("updated_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *presenceSignalRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := conn(r.db, dbc).Where("expires_at < ?", now.UTC()).Delete(&types.PresenceSignal{})
	return res.RowsAffected, res.Error
}
