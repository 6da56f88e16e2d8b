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

type BroadcastRepo interface {
	Create(dbc dbctx.Context, row *types.Broadcast) (*types.Broadcast, error)
	ListLive(dbc dbctx.Context, kind types.BroadcastType, now time.Time, limit int) ([]*types.Broadcast, error)
	CountLiveByCell(dbc dbctx.Context, kind types.BroadcastType, cellID string, now time.Time) (int64, error)
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type broadcastRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBroadcastRepo(db *gorm.DB, baseLog *logger.Logger) BroadcastRepo {
	return &broadcastRepo{db: db, log: baseLog.With("repo", "BroadcastRepo")}
}

func (r *broadcastRepo) Create(dbc dbctx.Context, row *types.Broadcast) (*types.Broadcast, error) {
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.ExpiresAt = row.ExpiresAt.UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	row.CreatedAt = row.CreatedAt.UTC()
	if err := conn(r.db, dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ListLive returns unexpired rows of one kind, newest first. limit <= 0 means no cap.
func (r *broadcastRepo) ListLive(dbc dbctx.Context, kind types.BroadcastType, now time.Time, limit int) ([]*types.Broadcast, error) {
	var out []*types.Broadcast
	q := conn(r.db, dbc).
		Where("type = ? AND expires_at > ?", kind, now.UTC()).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *broadcastRepo) CountLiveByCell(dbc dbctx.Context, kind types.BroadcastType, cellID string, now time.Time) (int64, error) {
	cellID = strings.TrimSpace(cellID)
	if cellID == "" {
		return 0, nil
	}
	var n int64
	err := conn(r.db, dbc).
		Model(&types.Broadcast{}).
		Where("type = ? AND cell_id = ? AND expires_at > ?", kind, cellID, now.UTC()).
		Count(&n).Error
	return n, err
}

func (r *broadcastRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := conn(r.db, dbc).Where("expires_at < ?", now.UTC()).Delete(&types.Broadcast{})
	return res.RowsAffected, res.Error
}
