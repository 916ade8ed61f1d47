package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"worktrack/internal/dashboard"
	"worktrack/internal/metrics"
	"worktrack/internal/reporting"
	"worktrack/internal/worker/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// DashboardWarmer 看板预热抽象，便于注入 mock
type DashboardWarmer interface {
	Warm(ctx context.Context, q dashboard.Query) error
}

type ReportHandler struct {
	warmer          DashboardWarmer
	defaultTimezone string
	logger          *zap.Logger
	now             func() time.Time
}

func NewReportHandler(warmer DashboardWarmer, defaultTimezone string, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		warmer:          warmer,
		defaultTimezone: defaultTimezone,
		logger:          logger,
		now:             time.Now,
	}
}

// HandleWarmDashboard 重新计算看板并写入缓存
//
// 载荷或参数错误不会重试；存在降级分支时返回错误交给队列重试。
func (h *ReportHandler) HandleWarmDashboard(ctx context.Context, t *asynq.Task) error {
	var p tasks.WarmDashboardPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		metrics.ReportWarmupsTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("json unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.Validate(); err != nil {
		metrics.ReportWarmupsTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	tz := p.Timezone
	if tz == "" {
		tz = h.defaultTimezone
	}
	refDate := p.ReferenceDate
	if refDate == "" {
		loc, err := reporting.LoadLocation(tz)
		if err != nil {
			metrics.ReportWarmupsTotal.WithLabelValues("invalid").Inc()
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		refDate = h.now().In(loc).Format(reporting.DateLayout)
	}

	log := h.logger.With(
		zap.String("tenant_id", p.TenantID),
		zap.String("department_id", p.DepartmentID),
		zap.String("reference_date", refDate),
	)
	log.Info("开始预热看板")

	err := h.warmer.Warm(ctx, dashboard.Query{
		TenantID:      p.TenantID,
		DepartmentID:  p.DepartmentID,
		ReferenceDate: refDate,
		Timezone:      tz,
	})
	switch {
	case err == nil:
		metrics.ReportWarmupsTotal.WithLabelValues("success").Inc()
		log.Info("看板预热完成")
		return nil
	case dashboard.IsInputError(err):
		metrics.ReportWarmupsTotal.WithLabelValues("invalid").Inc()
		log.Warn("看板预热参数错误", zap.Error(err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	case errors.Is(err, dashboard.ErrWarmupIncomplete):
		metrics.ReportWarmupsTotal.WithLabelValues("incomplete").Inc()
		log.Warn("看板预热不完整", zap.Error(err))
		return err
	default:
		metrics.ReportWarmupsTotal.WithLabelValues("failed").Inc()
		log.Error("看板预热失败", zap.Error(err))
		return err
	}
}
