package presence

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/ghostline-backend/internal/domain"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/platform/logger"
)

type PresenceRepo interface {
	// Upsert writes the device's single heartbeat row. An empty cellID keeps the stored cell.
	Upsert(dbc dbctx.Context, deviceID, cellID string, now time.Time) (*types.Presence, error)
	GetByDevice(dbc dbctx.Context, deviceID string) (*types.Presence, error)
	DeleteByDevice(dbc dbctx.Context, deviceID string) (int64, error)
	CountSeenSince(dbc dbctx.Context, since time.Time) (int64, error)
	CountByCellSeenSince(dbc dbctx.Context, cellID string, since time.Time) (int64, error)
	DeleteSeenBefore(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type presenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPresenceRepo(db *gorm.DB, baseLog *logger.Logger) PresenceRepo {
	return &presenceRepo{db: db, log: baseLog.With("repo", "PresenceRepo")}
}

func (r *presenceRepo) Upsert(dbc dbctx.Context, deviceID, cellID string, now time.Time) (*types.Presence, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, nil
	}
	now = now.UTC()
	row := &types.Presence{
		ID:        uuid.New(),
		DeviceID:  deviceID,
		CellID:    strings.TrimSpace(cellID),
		LastSeen:  now,
		CreatedAt: now,
	}
	updates := []string{"last_seen"}
	if row.CellID != "" {
		updates = append(updates, "cell_id")
	}
	err := conn(r.db, dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetByDevice(dbc, deviceID)
}

func (r *presenceRepo) GetByDevice(dbc dbctx.Context, deviceID string) (*types.Presence, error) {
	var row types.Presence
	if err := conn(r.db, dbc).Where("device_id = ?", deviceID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *presenceRepo) DeleteByDevice(dbc dbctx.Context, deviceID string) (int64, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return 0, nil
	}
	res := conn(r.db, dbc).Where("device_id = ?", deviceID).Delete(&types.Presence{})
	return res.RowsAffected, res.Error
}

func (r *presenceRepo) CountSeenSince(dbc dbctx.Context, since time.Time) (int64, error) {
	var n int64
	err := conn(r.db, dbc).Model(&types.Presence{}).Where("last_seen >= ?", since.UTC()).Count(&n).Error
	return n, err
}

func (r *presenceRepo) CountByCellSeenSince(dbc dbctx.Context, cellID string, since time.Time) (int64, error) {
	var n int64
	err := conn(r.db, dbc).
		Model(&types.Presence{}).
		Where("cell_id = ? AND last_seen >= ?", strings.TrimSpace(cellID), since.UTC()).
		Count(&n).Error
	return n, err
}

func (r *presenceRepo) DeleteSeenBefore(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := conn(r.db, dbc).Where("last_seen < ?", cutoff.UTC()).Delete(&types.Presence{})
	return res.RowsAffected, res.Error
}
