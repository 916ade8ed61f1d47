package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API 指标
var (
	// APIRequestsTotal API 请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_api_requests_total",
			Help: "API 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration API 请求延迟（秒）
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worktrack_api_request_duration_seconds",
			Help:    "API 请求延迟分布",
			Buckets: prometheus.DefBuckets, // 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10
		},
		[]string{"method", "path"},
	)

	// APIResponseSize API 响应体大小（字节）
	APIResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worktrack_api_response_size_bytes",
			Help:    "API 响应体大小分布",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)
)

// 报表计算指标
var (
	// ReportBranchDuration 报表分支耗时（秒）
	ReportBranchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worktrack_report_branch_duration_seconds",
			Help:    "报表各分支（统计行、六个月序列、绩效、排行、个人统计）耗时分布",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"branch"},
	)

	// ReportBranchFailures 报表分支失败次数（降级为零值结果）
	ReportBranchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_report_branch_failures_total",
			Help: "报表分支失败总数",
		},
		[]string{"branch"},
	)

	// ReportWarmupsTotal 看板预热任务执行次数
	ReportWarmupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktrack_report_warmups_total",
			Help: "看板预热任务执行总数",
		},
		[]string{"status"},
	)
)

// 缓存指标
var (
	// ReportCacheHits 报表缓存命中数
	ReportCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worktrack_report_cache_hits_total",
			Help: "报表缓存命中总数",
		},
	)

	// ReportCacheMisses 报表缓存未命中数
	ReportCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "worktrack_report_cache_misses_total",
			Help: "报表缓存未命中总数",
		},
	)

	// CacheOperationDuration 缓存操作耗时（秒）
	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worktrack_cache_operation_duration_seconds",
			Help:    "缓存操作耗时分布",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"operation"}, // operation: get, set
	)
)

// 数据库指标
var (
	// DBConnections 数据库连接数
	DBConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worktrack_db_connections",
			Help: "数据库连接数",
		},
		[]string{"state"}, // state: open, in_use, idle
	)
)

// 系统指标
var (
	// BuildInfo 构建信息
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worktrack_build_info",
			Help: "WorkTrack 构建信息",
		},
		[]string{"version", "go_version"},
	)
)

// RecordBuildInfo 记录构建信息
func RecordBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}
