package presence

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type TrailRepo interface {
	Create(dbc dbctx.Context, row *types.TrailPoint) (*types.TrailPoint, error)
	// ListByDeviceSince returns points ordered by session then sequence.
	ListByDeviceSince(dbc dbctx.Context, deviceID string, since time.Time, excludeSessionID string) ([]*types.TrailPoint, error)
	DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type trailRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrailRepo(db *gorm.DB, baseLog *logger.Logger) TrailRepo {
	return &trailRepo{db: db, log: baseLog.With("repo", "TrailRepo")}
}

func (r *trailRepo) Create(dbc dbctx.Context, row *types.TrailPoint) (*types.TrailPoint, error) {
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

func (r *trailRepo) ListByDeviceSince(dbc dbctx.Context, deviceID string, since time.Time, excludeSessionID string) ([]*types.TrailPoint, error) {
	var out []*types.TrailPoint
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return out, nil
	}
	q := conn(r.db, dbc).Where("device_id = ? AND created_at >= ?", deviceID, since.UTC())
	if s := strings.TrimSpace(excludeSessionID); s != "" {
		q = q.Where("session_id <> ?", s)
	}
	if err := q.Order("session_id ASC").Order("seq ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *trailRepo) DeleteOlderThan(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := conn(r.db, dbc).Where("created_at < ?", cutoff.UTC()).Delete(&types.TrailPoint{})
	return res.RowsAffected, res.Error
}
