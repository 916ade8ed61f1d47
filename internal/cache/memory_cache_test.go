package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/metrics"
)

type sample struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestMemoryReportCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryReportCache(4)

	hitsBefore := testutil.ToFloat64(metrics.ReportCacheHits)
	missesBefore := testutil.ToFloat64(metrics.ReportCacheMisses)

	var got sample
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", sample{Name: "a", Score: 3}, time.Minute))
	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sample{Name: "a", Score: 3}, got)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReportCacheHits)-hitsBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReportCacheMisses)-missesBefore)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, _ = c.Get(ctx, "k", &got)
	assert.False(t, ok)
}

func TestMemoryReportCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryReportCache(4)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", sample{Name: "a"}, time.Minute))

	var got sample
	ok, _ := c.Get(ctx, "k", &got)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = c.Get(ctx, "k", &got)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryReportCacheEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryReportCache(2)

	require.NoError(t, c.Set(ctx, "a", sample{Name: "a"}, time.Minute))
	require.NoError(t, c.Set(ctx, "b", sample{Name: "b"}, time.Minute))

	// 访问 a 使 b 成为最久未访问
	var got sample
	ok, _ := c.Get(ctx, "a", &got)
	require.True(t, ok)

	require.NoError(t, c.Set(ctx, "c", sample{Name: "c"}, time.Minute))
	assert.Equal(t, 2, c.Len())

	ok, _ = c.Get(ctx, "b", &got)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, "a", &got)
	assert.True(t, ok)
}

func TestMemoryReportCacheZeroTTL(t *testing.T) {
	c := NewMemoryReportCache(2)
	require.NoError(t, c.Set(context.Background(), "k", sample{}, 0))
	assert.Equal(t, 0, c.Len())
}
