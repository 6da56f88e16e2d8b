package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/ghostline-backend/internal/data/repos"
	"github.com/yungbote/ghostline-backend/internal/data/repos/testutil"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
	"github.com/yungbote/ghostline-backend/internal/realtime"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db    *gorm.DB
	set   repos.Set
	clock *testutil.Clock
	cfg   Config
	emit  *recordingEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	clock := testutil.NewClock(testStart)
	cfg := DefaultConfig()
	cfg.Now = clock.Now
	return &fixture{
		db:    db,
		set:   repos.NewSet(db, testutil.Logger(t)),
		clock: clock,
		cfg:   cfg,
		emit:  &recordingEmitter{},
	}
}

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (e *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) {
	e.mu.Lock()
	e.msgs = append(e.msgs, msg)
	e.mu.Unlock()
}

func (e *recordingEmitter) events() []realtime.SSEMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]realtime.SSEMessage(nil), e.msgs...)
}

func ptr[T any](v T) *T { return &v }

func dbcFor(ctx context.Context) dbctx.Context { return dbctx.Context{Ctx: ctx} }
