package subm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/screensync/backend/subm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertN(t *testing.T, store subm.SubmStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.InsertSubm(context.Background(), subm.NewSubm{
			ContractorName: fmt.Sprintf("contractor-%d", i),
			CompanyName:    "Innovate Inc.",
			ScreenshotUrl:  fmt.Sprintf("http://blobs.test/%d", i),
			ImageHint:      subm.ImageHint,
		})
		require.NoError(t, err)
	}
}

func requireNewestFirst(t *testing.T, subms []subm.Subm) {
	t.Helper()
	for i := 1; i < len(subms); i++ {
		require.False(t, subms[i].SubmittedAt.After(subms[i-1].SubmittedAt),
			"submission %d is newer than submission %d", i, i-1)
	}
}

func TestListRoundTrip(t *testing.T) {
	store := subm.NewInMemSubmStore()
	lister := &subm.Lister{Subms: store}
	ctx := context.Background()

	insertN(t, store, 5)
	subms, err := lister.List(ctx)
	require.NoError(t, err)
	require.Len(t, subms, 5)
	requireNewestFirst(t, subms)

	newest, err := store.InsertSubm(ctx, subm.NewSubm{ContractorName: "latest", CompanyName: "Innovate Inc."})
	require.NoError(t, err)

	subms, err = lister.List(ctx)
	require.NoError(t, err)
	require.Len(t, subms, 6)
	assert.Equal(t, newest.ID, subms[0].ID)
	requireNewestFirst(t, subms)
}

func TestQueryIsRestartable(t *testing.T) {
	store := subm.NewInMemSubmStore()
	lister := &subm.Lister{Subms: store}
	insertN(t, store, 2)

	seq := lister.Query(context.Background())
	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		return n
	}
	assert.Equal(t, 2, count())

	insertN(t, store, 1)
	assert.Equal(t, 3, count(), "ranging again re-runs the query")
}

func TestQueryStopsEarly(t *testing.T) {
	store := subm.NewInMemSubmStore()
	insertN(t, store, 4)

	n := 0
	for range (&subm.Lister{Subms: store}).Query(context.Background()) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestListFailsOnCancelledContext(t *testing.T) {
	store := subm.NewInMemSubmStore()
	insertN(t, store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&subm.Lister{Subms: store}).List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListView(t *testing.T) {
	assert.Equal(t, subm.ListLoading, subm.LoadingView().State)

	failed := subm.ViewOf(nil, errors.New("permission denied"))
	assert.Equal(t, subm.ListFailed, failed.State)
	assert.Equal(t, "permission denied", failed.ErrMsg())

	loaded := subm.ViewOf([]subm.Subm{}, nil)
	assert.Equal(t, subm.ListLoaded, loaded.State)
	assert.Empty(t, loaded.Subms)
	assert.Equal(t, "", loaded.ErrMsg())
}

func TestDisplayTimeDefaultsToNow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	submitted := now.Add(-time.Hour)

	assert.Equal(t, now, subm.Subm{}.DisplayTime(now))
	assert.Equal(t, submitted, subm.Subm{SubmittedAt: submitted}.DisplayTime(now))
}
