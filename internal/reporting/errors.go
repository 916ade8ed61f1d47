package reporting

import (
	"errors"
	"math"
)

var (
	// ErrInvalidDate 参考日期无法解析为有效日历日
	ErrInvalidDate = errors.New("invalid reference date")
	// ErrInvalidTimezone 时区名称无法识别
	ErrInvalidTimezone = errors.New("invalid timezone")
	// ErrInvalidWeights 权重为负数或非有限值
	ErrInvalidWeights = errors.New("invalid category weights")
)

// IsInputError 判断是否为调用方输入错误（对应 HTTP 400）
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidTimezone) ||
		errors.Is(err, ErrInvalidWeights)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func clamp(v, low, high float64) float64 {
	if math.IsNaN(v) {
		return low
	}
	return math.Max(low, math.Min(high, v))
}

// ratio 分母为 0 时返回 0
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
