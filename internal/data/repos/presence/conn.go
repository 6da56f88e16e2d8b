package presence

import (
	"gorm.io/gorm"

	"github.com/yungbote/ghostline-backend/internal/platform/ctxutil"
	"github.com/yungbote/ghostline-backend/internal/platform/dbctx"
)

func conn(db *gorm.DB, dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = db
	}
	return t.WithContext(ctxutil.Default(dbc.Ctx))
}
