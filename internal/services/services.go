package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"seatengine/internal/domain"
	"seatengine/internal/utils"
)

// DefaultStoreTimeout bounds every store call when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

func storeTimeout(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return DefaultStoreTimeout
}

// boundedCtx is for reads: it follows the caller's cancellation.
func boundedCtx(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout(d))
}

// detachedCtx is for atomic units: a client disconnect must not abort a unit
// halfway, so only the store timeout can end it.
func detachedCtx(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), storeTimeout(d))
}

func nowFn(f func() time.Time) time.Time {
	if f != nil {
		return f().UTC()
	}
	return utils.NowUTC()
}

// NewReference returns a booking reference such as BK-1F3A9C2E.
func NewReference() string {
	return "BK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// unknownRef turns a catalog miss for a request field into invalid input.
// Storage errors pass through unchanged.
func unknownRef(field string, err error) error {
	if domain.IsNotFound(err) {
		return domain.ValidationError{Field: field, Msg: err.Error(), Err: err}
	}
	return err
}
