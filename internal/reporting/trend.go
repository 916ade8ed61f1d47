package reporting

// Trend 趋势方向
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Polarity 类别极性：数量增加是好事（正）还是坏事（负）
type Polarity int

const (
	PolarityNeutral  Polarity = 0
	PolarityPositive Polarity = 1
	PolarityNegative Polarity = -1
)

var polarities = map[string]Polarity{
	string(StatusCompleted):  PolarityPositive,
	string(StatusPending):    PolarityNegative,
	string(StatusInProgress): PolarityNegative,
	string(StatusToDo):       PolarityNegative,
}

// PolarityOf 类别极性，未知类别为中性
func PolarityOf(category string) Polarity {
	return polarities[category]
}

// TrendResult 当前窗口与上一窗口的对比结果
//
// PercentChange 为正始终表示“变好”，与类别语义无关。
type TrendResult struct {
	Category      string  `json:"category"`
	CurrentCount  int     `json:"currentCount"`
	PreviousCount int     `json:"previousCount"`
	Trend         Trend   `json:"trend"`
	PercentChange float64 `json:"percentChange"`
}

// AnalyzeTrend 比较两个窗口的计数
//
//   - previous == 0：current 也为 0 时变化为 0；否则正极性 +100、负极性 -100，与幅度无关
//   - 其余情况：raw = (current-previous)/previous*100，负极性取反
//   - 中性类别的 PercentChange 按原始符号给出，但 Trend 恒为 neutral
func AnalyzeTrend(category string, current, previous int) TrendResult {
	res := TrendResult{
		Category:      category,
		CurrentCount:  current,
		PreviousCount: previous,
		Trend:         TrendNeutral,
	}

	polarity := PolarityOf(category)
	sign := float64(polarity)
	if polarity == PolarityNeutral {
		sign = 1
	}

	switch {
	case current == previous:
		res.PercentChange = 0
	case previous == 0:
		res.PercentChange = 100 * sign
	default:
		raw := float64(current-previous) / float64(previous) * 100
		res.PercentChange = raw * sign
	}

	if polarity == PolarityNeutral {
		return res
	}
	switch {
	case res.PercentChange > 0:
		res.Trend = TrendUp
	case res.PercentChange < 0:
		res.Trend = TrendDown
	}
	return res
}
