package services

import (
	"errors"
	"fmt"

	"github.com/yungbote/ghostline-backend/internal/platform/apierr"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEncounterShort  = errors.New("encounter shorter than minimum duration")
)

// invalid returns a 400 apierr wrapping ErrInvalidArgument.
func invalid(code, format string, args ...any) error {
	return apierr.BadRequest(code, fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...)))
}
