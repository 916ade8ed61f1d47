package reporting

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// Granularity 分桶粒度
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
)

// CategoryFunc 计算单元所属类别，ok=false 时该单元不参与统计
type CategoryFunc func(u Unit) (category string, ok bool)

// ByStatus 按状态分类（任务取自身状态，清单项取合成状态）
func ByStatus(u Unit) (string, bool) {
	if u.Status == "" {
		return "", false
	}
	return string(u.Status), true
}

// ByKind 按工作项类别分类
func ByKind(u Unit) (string, bool) {
	if u.Kind == "" {
		return "", false
	}
	return string(u.Kind), true
}

// BucketSeries 单个类别的计数序列，与标签序列一一对齐
type BucketSeries struct {
	Data  []int `json:"data"`
	Total int   `json:"total"`
}

// SeriesSet 分桶结果
type SeriesSet struct {
	Granularity Granularity
	Labels      []Label
	series      map[string]BucketSeries
}

// Series 返回类别的序列；不存在的类别返回全零序列
func (s SeriesSet) Series(category string) BucketSeries {
	if bs, ok := s.series[category]; ok {
		out := BucketSeries{Data: make([]int, len(bs.Data)), Total: bs.Total}
		copy(out.Data, bs.Data)
		return out
	}
	return BucketSeries{Data: make([]int, len(s.Labels))}
}

// Categories 出现过的类别（排序后）
func (s SeriesSet) Categories() []string {
	keys := lo.Keys(s.series)
	sort.Strings(keys)
	return keys
}

// Bucket 将计数单元按（类别, 日/月）分组计数，并对齐到窗口的完整标签序列
//
// 日粒度只统计当前窗口内的单元，月粒度只统计六个月范围内的单元，
// 因此每个类别的 sum(Data) 恒等于 Total。
func Bucket(units []Unit, w Window, g Granularity, categoryOf CategoryFunc) SeriesSet {
	if categoryOf == nil {
		categoryOf = ByStatus
	}

	labels := w.DailyLabels
	keyOf := w.DayKey
	inRange := w.InCurrent
	if g == Monthly {
		labels = w.MonthlyLabels
		keyOf = w.MonthKey
		inRange = w.InSixMonths
	}

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l.Key] = i
	}

	set := SeriesSet{
		Granularity: g,
		Labels:      append([]Label(nil), labels...),
		series:      make(map[string]BucketSeries),
	}

	for _, u := range units {
		if !inRange(u.At) {
			continue
		}
		category, ok := categoryOf(u)
		if !ok {
			continue
		}
		pos, ok := index[keyOf(u.At)]
		if !ok {
			continue
		}
		bs, exists := set.series[category]
		if !exists {
			bs = BucketSeries{Data: make([]int, len(labels))}
		}
		bs.Data[pos]++
		bs.Total++
		set.series[category] = bs
	}

	return set
}

// Count 统计 inRange 内各类别的单元数
func Count(units []Unit, inRange func(time.Time) bool, categoryOf CategoryFunc) map[string]int {
	if categoryOf == nil {
		categoryOf = ByStatus
	}
	counts := make(map[string]int)
	for _, u := range units {
		if !inRange(u.At) {
			continue
		}
		if category, ok := categoryOf(u); ok {
			counts[category]++
		}
	}
	return counts
}
