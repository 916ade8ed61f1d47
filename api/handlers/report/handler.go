package report

import (
	"context"
	"errors"
	"strings"
	"time"

	"worktrack/internal/common"
	"worktrack/internal/dashboard"
	"worktrack/internal/infra/queue"
	"worktrack/internal/logger"
	"worktrack/internal/reporting"
	tenantctx "worktrack/internal/tenant"
	"worktrack/internal/worker/tasks"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardService 报表服务接口
type DashboardService interface {
	TaskStatistics(ctx context.Context, q dashboard.Query) ([]reporting.TaskStatisticsRow, error)
	SixMonths(ctx context.Context, q dashboard.Query) (reporting.SixMonthSeries, error)
	Performance(ctx context.Context, q dashboard.Query) (reporting.DepartmentPerformance, error)
	Leaderboard(ctx context.Context, q dashboard.Query) ([]reporting.LeaderboardEntry, error)
	Dashboard(ctx context.Context, q dashboard.Query) (*dashboard.DepartmentDashboard, error)
	UserStats(ctx context.Context, q dashboard.Query) (reporting.UserStats, error)
	UserRating(ctx context.Context, q dashboard.Query) (reporting.LeaderboardEntry, error)
}

// QueueStatsProvider 队列概况来源
type QueueStatsProvider interface {
	ReportQueueStats() (*queue.QueueStats, error)
}

// Config Handler 配置
type Config struct {
	DefaultTimezone string
	DefaultWeights  reporting.Weights
}

// Handler 报表 Handler
type Handler struct {
	service   DashboardService
	queue     queue.Client
	inspector QueueStatsProvider
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler 创建报表 Handler；queueClient 与 inspector 可为 nil（未启用后台预热）
func NewHandler(service DashboardService, queueClient queue.Client, inspector QueueStatsProvider, cfg Config, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.DefaultTimezone) == "" {
		cfg.DefaultTimezone = "UTC"
	}
	return &Handler{
		service:   service,
		queue:     queueClient,
		inspector: inspector,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

// buildQuery 由路径、查询参数与租户上下文组装报表查询
func (h *Handler) buildQuery(c *gin.Context, departmentID string) (dashboard.Query, bool) {
	tc, ok := tenantctx.FromContext(c.Request.Context())
	if !ok {
		common.ResponseUnauthorized(c, "")
		return dashboard.Query{}, false
	}

	var rq ReportQuery
	if err := c.ShouldBindQuery(&rq); err != nil {
		common.ResponseBadRequest(c, "查询参数格式错误")
		return dashboard.Query{}, false
	}

	tz := rq.timezone(h.cfg.DefaultTimezone)
	date, err := h.referenceDate(rq.Date, tz)
	if err != nil {
		h.respondError(c, err)
		return dashboard.Query{}, false
	}

	q := dashboard.Query{
		TenantID:      tc.TenantID,
		DepartmentID:  departmentID,
		ReferenceDate: date,
		Timezone:      tz,
		Role:          tc.Role,
		Refresh:       rq.Refresh,
	}
	if rq.IncludeUser {
		q.UserID = tc.UserID
	}
	return q, true
}

// referenceDate 未指定日期时取时区内的当天
func (h *Handler) referenceDate(date, tz string) (string, error) {
	if date = strings.TrimSpace(date); date != "" {
		return date, nil
	}
	loc, err := reporting.LoadLocation(tz)
	if err != nil {
		return "", err
	}
	return h.now().In(loc).Format(reporting.DateLayout), nil
}

// respondError 将服务错误映射为业务状态码
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reporting.ErrInvalidDate):
		common.ResponseError(c, common.CodeInvalidReportDate, err.Error())
	case errors.Is(err, reporting.ErrInvalidTimezone):
		common.ResponseError(c, common.CodeInvalidTimezone, err.Error())
	case errors.Is(err, reporting.ErrInvalidWeights):
		common.ResponseError(c, common.CodeInvalidWeights, err.Error())
	case errors.Is(err, dashboard.ErrInvalidQuery):
		common.ResponseBadRequest(c, err.Error())
	case errors.Is(err, dashboard.ErrUserNotFound):
		common.ResponseError(c, common.CodeNotFound, "用户不存在")
	case errors.Is(err, dashboard.ErrAllBranchesFailed):
		logger.FromContext(c.Request.Context(), h.logger).Error("看板全部分支失败", zap.Error(err))
		common.ResponseError(c, common.CodeReportUnavailable, "")
	default:
		logger.FromContext(c.Request.Context(), h.logger).Error("报表查询失败", zap.Error(err))
		common.ResponseError(c, common.CodeInternalError, "")
	}
}

// GetTaskStatistics 获取部门任务状态统计
// @Summary 任务状态统计
// @Description 近 30 天每日状态计数及与前 30 天的趋势对比
// @Tags Reports
// @Produce json
// @Param departmentId path string true "部门 ID"
// @Param date query string false "参考日期(YYYY-MM-DD)"
// @Param tz query string false "IANA 时区"
// @Success 200 {object} common.APIResponse
// @Failure 400 {object} common.APIResponse
// @Router /api/v1/reports/departments/{departmentId}/task-statistics [get]
func (h *Handler) GetTaskStatistics(c *gin.Context) {
	q, ok := h.buildQuery(c, c.Param("departmentId"))
	if !ok {
		return
	}
	rows, err := h.service.TaskStatistics(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.ResponseSuccess(c, rows)
}

// GetSixMonths 获取近六个月按状态的月度序列
// @Summary 六个月序列
// @Tags Reports
// @Produce json
// @Param departmentId path string true "部门 ID"
// @Param date query string false "参考日期(YYYY-MM-DD)"
// @Param tz query string false "IANA 时区"
// @Success 200 {object} common.APIResponse
// @Router /api/v1/reports/departments/{departmentId}/six-months [get]
func (h *Handler) GetSixMonths(c *gin.Context) {
	q, ok := h.buildQuery(c, c.Param("departmentId"))
	if !ok {
		return
	}
	series, err := h.service.SixMonths(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.ResponseSuccess(c, series)
}

// GetPerformance 获取部门加权绩效
// @Summary 部门绩效
// @Tags Reports
// @Produce json
// @Param departmentId path string true "部门 ID"
// @Param assignedWeight query number false "指派任务权重"
// @Param projectWeight query number false "项目任务权重"
// @Param routineWeight query number false "例行项权重"
// @Success 200 {object} common.APIResponse
// @Failure 400 {object} common.APIResponse
// @Router /api/v1/reports/departments/{departmentId}/performance [get]
func (h *Handler) GetPerformance(c *gin.Context) {
	q, ok := h.buildQuery(c, c.Param("departmentId"))
	if !ok {
		return
	}
	var wq WeightsQuery
	if err := c.ShouldBindQuery(&wq); err != nil {
		common.ResponseError(c, common.CodeInvalidWeights, "权重必须为数字")
		return
	}
	q.Weights = wq.Resolve(h.cfg.DefaultWeights)

	perf, err := h.service.Performance(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.ResponseSuccess(c, perf)
}

// GetLeaderboard 获取部门排行榜
// @Summary 部门排行榜
// @Tags Reports
// @Produce json
// @Param departmentId path string true "部门 ID"
// @Param limit query int false "返回条数(1-100)"
// @Success 200 {object} common.APIResponse
// @Router /api/v1/reports/departments/{departmentId}/leaderboard [get]
func (h *Handler) GetLeaderboard(c *gin.Context) {
	q, ok := h.buildQuery(c, c.Param("departmentId"))
	if !ok {
		return
	}
	var lq LeaderboardQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		common.ResponseBadRequest(c, "limit 必须在 1 到 100 之间")
		return
	}
	q.Limit = lq.Limit

	board, err := h.service.Leaderboard(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.ResponseSuccess(c, board)
}

// GetDashboard 获取部门看板
// @Summary 部门看板
// @Description 并行计算各报表分支，单个分支失败时以空结构降级
// @Tags Reports
// @Produce json
// @Param departmentId path string true "部门 ID"
// @Param refresh query bool false "跳过缓存读取"
// @Param includeUser query bool false "附带调用者个人统计"
// @Success 200 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/reports/departments/{departmentId}/dashboard [get]
func (h *Handler) GetDashboard(c *gin.Context) {
	q, ok := h.buildQuery(c, c.Param("departmentId"))
	if !ok {
		return
	}
	board, err := h.service.Dashboard(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.ResponseSuccess(c, board)
}

// WarmDashboard 入队后台看板预热
// @Summary 预热部门看板
// @Tags Reports
// @Accept json
// @Produce json
// @Param departmentId path string true "部门 ID"
// @Param request body WarmRequest false "参考日期与时区"
// @Success 202 {object} common.APIResponse
// @Failure 503 {object} common.APIResponse
// @Router /api/v1/reports/departments/{departmentId}/dashboard/warm [post]
func (h *Handler) WarmDashboard(c *gin.Context) {
	if h.queue == nil {
		common.ResponseError(c, common.CodeServiceUnavailable, "后台预热未启用")
		return
	}
	tc, ok := tenantctx.FromContext(c.Request.Context())
	if !ok {
		common.ResponseUnauthorized(c, "")
		return
	}

	var req WarmRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ResponseBadRequest(c, "请求体格式错误")
			return
		}
	}
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = h.cfg.DefaultTimezone
	}
	date, err := h.referenceDate(req.Date, tz)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if _, err := reporting.ComputeWindow(date, tz); err != nil {
		h.respondError(c, err)
		return
	}

	payload := tasks.WarmDashboardPayload{
		TenantID:      tc.TenantID,
		DepartmentID:  c.Param("departmentId"),
		ReferenceDate: date,
		Timezone:      tz,
	}
	taskID, err := h.queue.EnqueueWarmDashboard(c.Request.Context(), payload)
	switch {
	case errors.Is(err, queue.ErrAlreadyQueued):
		common.ResponseAccepted(c, "预热任务已在队列中", WarmResponse{TaskID: taskID, AlreadyQueued: true})
	case err != nil:
		logger.FromContext(c.Request.Context(), h.logger).Error("预热任务入队失败",
			zap.String("department_id", payload.DepartmentID),
			zap.Error(err),
		)
		common.ResponseError(c, common.CodeWarmupEnqueueError, "")
	default:
		common.ResponseAccepted(c, "预热任务已入队", WarmResponse{TaskID: taskID})
	}
}

// userQuery 用户维度查询；可选的 departmentId 查询参数同样受部门权限约束
func (h *Handler) userQuery(c *gin.Context) (dashboard.Query, bool) {
	departmentID := strings.TrimSpace(c.Query("departmentId"))
	q, ok := h.buildQuery(c, departmentID)
	if !ok {
		return q, false
	}
	if departmentID != "" {
		if tc, _ := tenantctx.FromContext(c.Request.Context()); !tc.CanReadDepartment(departmentID) {
			common.ResponseForbidden(c, "无权访问该部门的报表")
			return q, false
		}
	}
	q.UserID = c.Param("userId")
	return q, true
}

// GetUserStats 获取用户个人统计
// @Summary 用户统计
// @Tags Reports
// @Produce json
// @Param userId path string true "用户 ID"
// @Param departmentId query string false "限定部门"
// @Success 200 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/reports/users/{userId}/stats [get]
func (h *Handler) GetUserStats(c *gin.Context) {
	q, ok := h.userQuery(c)
	if !ok {
		return
	}
	stats, err := h.service.UserStats(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.ResponseSuccess(c, stats)
}

// GetUserRating 获取单个用户的排行榜条目
// @Summary 用户评分
// @Tags Reports
// @Produce json
// @Param userId path string true "用户 ID"
// @Success 200 {object} common.APIResponse
// @Router /api/v1/reports/users/{userId}/rating [get]
func (h *Handler) GetUserRating(c *gin.Context) {
	q, ok := h.userQuery(c)
	if !ok {
		return
	}
	entry, err := h.service.UserRating(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	common.ResponseSuccess(c, entry)
}

// GetQueueStats 获取报表预热队列概况
// @Summary 预热队列概况
// @Tags Reports
// @Produce json
// @Success 200 {object} common.APIResponse
// @Router /api/v1/reports/queue [get]
func (h *Handler) GetQueueStats(c *gin.Context) {
	if h.inspector == nil {
		common.ResponseError(c, common.CodeServiceUnavailable, "后台预热未启用")
		return
	}
	stats, err := h.inspector.ReportQueueStats()
	if err != nil {
		logger.FromContext(c.Request.Context(), h.logger).Warn("读取队列概况失败", zap.Error(err))
		common.ResponseError(c, common.CodeServiceUnavailable, "")
		return
	}
	common.ResponseSuccess(c, stats)
}
