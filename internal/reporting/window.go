package reporting

import (
	"fmt"
	"strings"
	"time"
)

const (
	// WindowDays 滚动窗口天数（含参考日）
	WindowDays = 30
	// MonthSpan 月度序列覆盖的月份数（含当月）
	MonthSpan = 6
	// DateLayout 日期键格式
	DateLayout = "2006-01-02"

	dayKeyLayout     = "2006-01-02"
	dayLabelLayout   = "Jan 02"
	monthKeyLayout   = "2006-01"
	monthLabelLayout = "Jan 2006"
)

// 参考日期可接受的格式，按顺序尝试
var (
	// 带偏移的格式先取绝对时刻
	instantLayouts = []string{time.RFC3339, time.RFC3339Nano}
	// 不带偏移的格式只取日历日
	civilLayouts = []string{dayKeyLayout, "2006-01-02T15:04:05", "2006/01/02"}
)

// Label 时间桶标签：Key 用于排序和分组，Label 用于展示
type Label struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Window 一次报表请求的时间边界
//
// 当前窗口与上一窗口各 30 个自然日，首尾相接且不重叠；
// 所有边界按配置时区确定日界，但以绝对时刻存储和比较。
type Window struct {
	Reference     time.Time      `json:"reference"`
	CurrentStart  time.Time      `json:"currentStart"`
	CurrentEnd    time.Time      `json:"currentEnd"`
	PreviousStart time.Time      `json:"previousStart"`
	PreviousEnd   time.Time      `json:"previousEnd"`
	SixMonthStart time.Time      `json:"sixMonthStart"`
	DailyLabels   []Label        `json:"dailyLabels"`
	MonthlyLabels []Label        `json:"monthlyLabels"`
	Location      *time.Location `json:"-"`
}

// InCurrent t 是否落在当前窗口（闭区间）
func (w Window) InCurrent(t time.Time) bool {
	return within(t, w.CurrentStart, w.CurrentEnd)
}

// InPrevious t 是否落在上一窗口（闭区间）
func (w Window) InPrevious(t time.Time) bool {
	return within(t, w.PreviousStart, w.PreviousEnd)
}

// InSixMonths t 是否落在六个月范围内（六个月起点到参考日结束）
func (w Window) InSixMonths(t time.Time) bool {
	return within(t, w.SixMonthStart, w.CurrentEnd)
}

// DayKey t 在窗口时区下的日桶键
func (w Window) DayKey(t time.Time) string {
	return t.In(w.loc()).Format(dayKeyLayout)
}

// MonthKey t 在窗口时区下的月桶键
func (w Window) MonthKey(t time.Time) string {
	return t.In(w.loc()).Format(monthKeyLayout)
}

func (w Window) loc() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// LoadLocation 解析时区名称，空字符串视为 UTC
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// ParseReferenceDate 解析参考日期
//
// 纯日期格式按 loc 的日历日解释（返回该日起点）；带时区偏移的格式先取绝对时刻再换算到 loc。
func ParseReferenceDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty reference date", ErrInvalidDate)
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc), nil
		}
	}
	// 夏令时在午夜开始时，ParseInLocation 会把零点落到前一天，这里按 UTC 解析日历日
	for _, layout := range civilLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			y, m, d := t.Date()
			return StartOfDay(y, m, d, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// ComputeWindow 根据参考日期字符串与时区名称计算窗口
func ComputeWindow(referenceDate, timezone string) (Window, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return Window{}, err
	}
	ref, err := ParseReferenceDate(referenceDate, loc)
	if err != nil {
		return Window{}, err
	}
	return WindowAt(ref, loc)
}

// WindowAt 根据参考时刻计算窗口
func WindowAt(reference time.Time, loc *time.Location) (Window, error) {
	if reference.IsZero() {
		return Window{}, fmt.Errorf("%w: zero reference date", ErrInvalidDate)
	}
	if loc == nil {
		loc = time.UTC
	}
	ref := reference.In(loc)
	y, m, d := ref.Date()

	// 日期推算在 UTC 正午上进行，避开时区日界；日界再由 StartOfDay 换算成绝对时刻
	currentFirst := civilDay(y, m, d-(WindowDays-1))
	previousFirst := civilDay(y, m, d-(2*WindowDays-1))
	monthFirst := civilDay(y, m-(MonthSpan-1), 1)

	currentStart := startOfCivil(currentFirst, loc)
	w := Window{
		Reference:     StartOfDay(y, m, d, loc),
		CurrentStart:  currentStart,
		CurrentEnd:    endOfDay(y, m, d, loc),
		PreviousStart: startOfCivil(previousFirst, loc),
		PreviousEnd:   currentStart.Add(-time.Nanosecond),
		SixMonthStart: startOfCivil(monthFirst, loc),
		DailyLabels:   make([]Label, 0, WindowDays),
		MonthlyLabels: make([]Label, 0, MonthSpan),
		Location:      loc,
	}

	for i := 0; i < WindowDays; i++ {
		day := currentFirst.AddDate(0, 0, i)
		w.DailyLabels = append(w.DailyLabels, Label{
			Key:   day.Format(dayKeyLayout),
			Label: day.Format(dayLabelLayout),
		})
	}

	for i := 0; i < MonthSpan; i++ {
		month := monthFirst.AddDate(0, i, 0)
		w.MonthlyLabels = append(w.MonthlyLabels, Label{
			Key:   month.Format(monthKeyLayout),
			Label: month.Format(monthLabelLayout),
		})
	}

	return w, nil
}

// DayKeys 日桶键序列
func (w Window) DayKeys() []string {
	return labelKeys(w.DailyLabels)
}

// MonthKeys 月桶键序列
func (w Window) MonthKeys() []string {
	return labelKeys(w.MonthlyLabels)
}

func labelKeys(labels []Label) []string {
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = l.Key
	}
	return keys
}

// StartOfDay loc 下 y-m-d 这一天的第一个时刻
//
// 夏令时在午夜开始的时区（如 America/Santiago）当天没有 00:00，
// time.Date 会返回前一天 23:00，此时取切换时刻作为日界；
// 午夜回拨导致零点出现两次时取较早的一次。
func StartOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if !sameDate(t, y, m, d) {
		if _, end := t.ZoneBounds(); !end.IsZero() && sameDate(end, y, m, d) {
			return end
		}
		// 没有时区边界信息时逐小时前进到当天
		for !sameDate(t, y, m, d) {
			t = t.Add(time.Hour)
		}
		return t
	}

	if start, _ := t.ZoneBounds(); !start.IsZero() {
		before := start.Add(-time.Nanosecond)
		if sameDate(before, y, m, d) {
			h, mi, sec := before.Clock()
			elapsed := time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute +
				time.Duration(sec)*time.Second + time.Duration(before.Nanosecond())
			return before.Add(-elapsed)
		}
	}
	return t
}

func sameDate(t time.Time, y int, m time.Month, d int) bool {
	ty, tm, td := t.Date()
	return ty == y && tm == m && td == d
}

// civilDay 日历日（UTC 正午表示，只用于日期推算和标签）
func civilDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func startOfCivil(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return StartOfDay(y, m, d, loc)
}

func endOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return startOfCivil(civilDay(y, m, d+1), loc).Add(-time.Nanosecond)
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
