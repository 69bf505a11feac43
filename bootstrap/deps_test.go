package bootstrap

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/screensync/backend/conf"
	"github.com/screensync/backend/listcache"
	"github.com/screensync/backend/subm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDepsInMemory(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	ctx := context.Background()

	deps, err := NewDeps(ctx, conf.Defaults(), slog.Default())
	require.NoError(t, err)
	defer deps.Close(ctx)

	assert.IsType(t, &subm.InMemSubmStore{}, deps.Subms)
	assert.IsType(t, &listcache.MemCache{}, deps.Cache)
	require.NotNil(t, deps.MemBlobs)
	assert.False(t, deps.Tracing)

	form := subm.NewForm("Acme").
		AddContractor(0, "Jane Doe").
		AddScreenshot(0, subm.Screenshot{Filename: "a.png", ContentType: "image/png", Size: 3, Content: []byte("png")})
	res := deps.Processor.Process(ctx, *form)
	require.True(t, res.Success, res.Message)

	subms, err := deps.Lister.List(ctx)
	require.NoError(t, err)
	require.Len(t, subms, 1)

	escaped, ok := strings.CutPrefix(subms[0].ScreenshotUrl, conf.Defaults().MemBlobBaseUrl()+"/")
	require.True(t, ok, subms[0].ScreenshotUrl)
	key, err := url.PathUnescape(escaped)
	require.NoError(t, err)
	content, mediaType, ok := deps.MemBlobs.GetBlob(key)
	require.True(t, ok)
	assert.Equal(t, []byte("png"), content)
	assert.Equal(t, "image/png", mediaType)
}

func TestCloseRunsInReverse(t *testing.T) {
	var order []int
	deps := &Deps{}
	for i := range 3 {
		deps.closers = append(deps.closers, func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}
	require.NoError(t, deps.Close(context.Background()))
	assert.Equal(t, []int{2, 1, 0}, order)
}
