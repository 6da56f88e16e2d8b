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

type EncounterRepo interface {
	Create(dbc dbctx.Context, row *types.Encounter) (*types.Encounter, error)
	// ListByDevice returns every encounter the device took part in, on either side, newest first.
	ListByDevice(dbc dbctx.Context, deviceID string, limit int) ([]*types.Encounter, error)
	ListSince(dbc dbctx.Context, since time.Time) ([]*types.Encounter, error)
}

type encounterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEncounterRepo(db *gorm.DB, baseLog *logger.Logger) EncounterRepo {
	return &encounterRepo{db: db, log: baseLog.With("repo", "EncounterRepo")}
}

func (r *encounterRepo) Create(dbc dbctx.Context, row *types.Encounter) (*types.Encounter, error) {
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

func (r *encounterRepo) ListByDevice(dbc dbctx.Context, deviceID string, limit int) ([]*types.Encounter, error) {
	var out []*types.Encounter
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return out, nil
	}
	q := conn(r.db, dbc).
		Where("device_a = ? OR device_b = ?", deviceID, deviceID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *encounterRepo) ListSince(dbc dbctx.Context, since time.Time) ([]*types.Encounter, error) {
	var out []*types.Encounter
	err := conn(r.db, dbc).
		Where("created_at >= ?", since.UTC()).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
