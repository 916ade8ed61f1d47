package reporting

import (
	"fmt"
	"math"
)

// Weights 各类别在部门绩效中的权重
type Weights struct {
	Assigned float64 `json:"assigned" mapstructure:"assigned"`
	Project  float64 `json:"project" mapstructure:"project"`
	Routine  float64 `json:"routine" mapstructure:"routine"`
}

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{Assigned: 1.0, Project: 1.5, Routine: 0.8}
}

// Validate 权重必须是非负有限数
func (w Weights) Validate() error {
	// 固定顺序检查，多个非法值时总是报告第一个
	fields := []struct {
		name  string
		value float64
	}{
		{"assigned", w.Assigned},
		{"project", w.Project},
		{"routine", w.Routine},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, f.name, f.value)
		}
	}
	return nil
}

// For 类别对应的权重
func (w Weights) For(k Kind) float64 {
	switch k {
	case KindAssigned:
		return w.Assigned
	case KindProject:
		return w.Project
	case KindRoutine:
		return w.Routine
	}
	return 0
}

// Alert 绩效告警级别
type Alert string

const (
	AlertCritical Alert = "Critical"
	AlertWarning  Alert = "Warning"
	AlertGood     Alert = "Good"
)

const (
	criticalBelow = 70.0
	warningBelow  = 85.0
)

// AlertFor 分数对应的告警级别
func AlertFor(score float64) Alert {
	switch {
	case score < criticalBelow:
		return AlertCritical
	case score < warningBelow:
		return AlertWarning
	}
	return AlertGood
}

// CategoryBreakdown 单个类别的绩效明细
type CategoryBreakdown struct {
	Category          Kind    `json:"category"`
	Weight            float64 `json:"weight"`
	Total             int     `json:"total"`
	Completed         int     `json:"completed"`
	WeightedTotal     float64 `json:"weightedTotal"`
	WeightedCompleted float64 `json:"weightedCompleted"`
}

// PerformanceResult 部门加权绩效
type PerformanceResult struct {
	TotalItems      int                 `json:"totalItems"`
	CompletedItems  int                 `json:"completedItems"`
	IncompleteItems int                 `json:"incompleteItems"`
	WeightedScore   float64             `json:"weightedScore"`
	Breakdown       []CategoryBreakdown `json:"breakdown"`
	Alert           Alert               `json:"alert"`
}

var breakdownOrder = []Kind{KindAssigned, KindProject, KindRoutine}

// EmptyPerformance 无数据时的结果形状
func EmptyPerformance(weights Weights) PerformanceResult {
	res := PerformanceResult{Alert: AlertCritical, Breakdown: make([]CategoryBreakdown, len(breakdownOrder))}
	for i, k := range breakdownOrder {
		res.Breakdown[i] = CategoryBreakdown{Category: k, Weight: weights.For(k)}
	}
	return res
}

// ScorePerformance 计算当前窗口内的部门加权完成率
//
// 每个任务计一次（与指派人数无关），每个例行清单项单独计一次并使用 Routine 权重。
// 所有类别使用同一条规则：weightedTotal += w，完成时 weightedCompleted += w。
func ScorePerformance(items []WorkItem, entries []RoutineLogEntry, w Window, weights Weights) (PerformanceResult, error) {
	if err := weights.Validate(); err != nil {
		return PerformanceResult{}, err
	}

	res := EmptyPerformance(weights)
	slot := make(map[Kind]*CategoryBreakdown, len(res.Breakdown))
	for i := range res.Breakdown {
		slot[res.Breakdown[i].Category] = &res.Breakdown[i]
	}

	var weightedTotal, weightedCompleted float64
	for _, u := range AllUnits(items, entries) {
		b, ok := slot[u.Kind]
		if !ok || !w.InCurrent(u.At) {
			continue
		}
		weight := b.Weight
		b.Total++
		b.WeightedTotal += weight
		res.TotalItems++
		weightedTotal += weight
		if u.Status == StatusCompleted {
			b.Completed++
			b.WeightedCompleted += weight
			res.CompletedItems++
			weightedCompleted += weight
		}
	}

	for i := range res.Breakdown {
		res.Breakdown[i].WeightedTotal = round2(res.Breakdown[i].WeightedTotal)
		res.Breakdown[i].WeightedCompleted = round2(res.Breakdown[i].WeightedCompleted)
	}

	var score float64
	if weightedTotal == 0 {
		score = ratio(float64(res.CompletedItems), float64(res.TotalItems)) * 100
	} else {
		score = weightedCompleted / weightedTotal * 100
	}
	res.WeightedScore = clamp(round2(score), 0, 100)
	res.IncompleteItems = res.TotalItems - res.CompletedItems
	res.Alert = AlertFor(res.WeightedScore)
	return res, nil
}
