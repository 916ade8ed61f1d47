package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"worktrack/internal/dashboard"
	"worktrack/internal/metrics"
	"worktrack/internal/reporting"
	"worktrack/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWarmer struct {
	called bool
	query  dashboard.Query
	retErr error
}

func (f *fakeWarmer) Warm(_ context.Context, q dashboard.Query) error {
	f.called = true
	f.query = q
	return f.retErr
}

func warmTask(t *testing.T, p tasks.WarmDashboardPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeWarmDashboard, data)
}

func TestHandleWarmDashboard_Success(t *testing.T) {
	warmer := &fakeWarmer{}
	h := NewReportHandler(warmer, "UTC", zaptest.NewLogger(t))
	before := testutil.ToFloat64(metrics.ReportWarmupsTotal.WithLabelValues("success"))

	err := h.HandleWarmDashboard(context.Background(), warmTask(t, tasks.WarmDashboardPayload{
		TenantID: "T1", DepartmentID: "D1", ReferenceDate: "2024-03-15", Timezone: "Asia/Tokyo",
	}))
	require.NoError(t, err)
	assert.True(t, warmer.called)
	assert.Equal(t, dashboard.Query{TenantID: "T1", DepartmentID: "D1", ReferenceDate: "2024-03-15", Timezone: "Asia/Tokyo"}, warmer.query)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ReportWarmupsTotal.WithLabelValues("success")))
}

func TestHandleWarmDashboard_DefaultsToToday(t *testing.T) {
	warmer := &fakeWarmer{}
	h := NewReportHandler(warmer, "UTC", zaptest.NewLogger(t))
	h.now = func() time.Time { return time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC) }

	err := h.HandleWarmDashboard(context.Background(), warmTask(t, tasks.WarmDashboardPayload{TenantID: "T1", DepartmentID: "D1"}))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", warmer.query.ReferenceDate)
	assert.Equal(t, "UTC", warmer.query.Timezone)
}

func TestHandleWarmDashboard_SkipRetry(t *testing.T) {
	tests := []struct {
		name string
		task func(t *testing.T) *asynq.Task
		err  error
	}{
		{"非法载荷", func(*testing.T) *asynq.Task { return asynq.NewTask(tasks.TypeWarmDashboard, []byte("not-json")) }, nil},
		{"缺少部门", func(t *testing.T) *asynq.Task { return warmTask(t, tasks.WarmDashboardPayload{TenantID: "T1"}) }, nil},
		{"非法时区", func(t *testing.T) *asynq.Task {
			return warmTask(t, tasks.WarmDashboardPayload{TenantID: "T1", DepartmentID: "D1", Timezone: "Nowhere/City"})
		}, nil},
		{"非法日期", func(t *testing.T) *asynq.Task {
			return warmTask(t, tasks.WarmDashboardPayload{TenantID: "T1", DepartmentID: "D1", ReferenceDate: "2024-02-30"})
		}, reporting.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warmer := &fakeWarmer{retErr: tt.err}
			h := NewReportHandler(warmer, "UTC", zaptest.NewLogger(t))
			err := h.HandleWarmDashboard(context.Background(), tt.task(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, asynq.SkipRetry)
		})
	}
}

func TestHandleWarmDashboard_Retryable(t *testing.T) {
	for _, retErr := range []error{
		dashboard.ErrWarmupIncomplete,
		errors.New("redis down"),
	} {
		warmer := &fakeWarmer{retErr: retErr}
		h := NewReportHandler(warmer, "UTC", zaptest.NewLogger(t))
		err := h.HandleWarmDashboard(context.Background(), warmTask(t, tasks.WarmDashboardPayload{TenantID: "T1", DepartmentID: "D1", ReferenceDate: "2024-03-15"}))
		assert.ErrorIs(t, err, retErr)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	}
}
