package listcache

import (
	"context"

	"github.com/screensync/backend/subm"
)

const listKey = "subm_list"

// Cache holds the most recent submission listing for a short time.
// Set and Get failures are treated as misses by callers.
type Cache interface {
	Get(ctx context.Context) ([]subm.Subm, bool)
	Set(ctx context.Context, subms []subm.Subm)
	Invalidate(ctx context.Context) error
}
