// Package health scores moves and detects anomalies. The engine is a pure
// function library over passed-in snapshots: callers fetch moves and metric
// series, hand them in, and persist whatever comes back. Detectors degrade
// to "no finding" on short history; absence of data is never anomalous.
package health

import (
	"math"
	"time"

	"github.com/warplanhq/warplan/internal/config"
	"github.com/warplanhq/warplan/internal/lifecycle"
	"github.com/warplanhq/warplan/internal/types"
)

// Engine computes health scores and runs anomaly detectors. It holds only
// configuration; independent instances never share state.
type Engine struct {
	cfg     config.Config
	checker *lifecycle.Checker
}

// NewEngine returns an engine using the supplied policy configuration.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{
		cfg:     cfg,
		checker: lifecycle.NewChecker(cfg.StuckThresholdDays, cfg.OverdueEscalationDays),
	}
}

// oodaScores maps each lifecycle phase to its progress factor value.
var oodaScores = map[types.MoveStatus]float64{
	types.MovePlanning: 10,
	types.MoveObserve:  25,
	types.MoveOrient:   50,
	types.MoveDecide:   75,
	types.MoveAct:      90,
	types.MoveComplete: 100,
	types.MoveKilled:   0,
}

// Score computes the weighted health report for one move from its metric
// series and the count of its open anomalies. The overall score is clamped
// to [0, 100]; per-factor values are not (schedule drift is reported raw).
func (e *Engine) Score(move *types.Move, series []*types.MetricPoint, openAnomalies int, now time.Time) types.HealthReport {
	factors := []types.HealthFactor{
		e.scheduleFactor(move, now),
		e.performanceFactor(series),
		e.anomalyFactor(openAnomalies),
		e.oodaFactor(move),
	}

	weighted := 0.0
	for _, f := range factors {
		weighted += f.Value * f.Weight
	}
	score := int(math.Round(weighted))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	status := types.HealthRed
	switch {
	case score >= 70:
		status = types.HealthGreen
	case score >= 40:
		status = types.HealthAmber
	}

	return types.HealthReport{
		MoveID:      move.ID,
		Score:       score,
		Status:      status,
		Factors:     factors,
		EvaluatedAt: now,
	}
}

// scheduleFactor compares progress made against time elapsed. The factor
// value is the raw delta: positive when ahead of schedule, negative behind.
func (e *Engine) scheduleFactor(move *types.Move, now time.Time) types.HealthFactor {
	timeProgress := 0.0
	if move.StartDate != nil && move.EndDate != nil {
		totalDays := move.EndDate.Sub(*move.StartDate).Hours() / 24
		if totalDays > 0 {
			elapsedDays := now.Sub(*move.StartDate).Hours() / 24
			timeProgress = elapsedDays / totalDays * 100
		}
	}
	delta := float64(move.ProgressPct) - timeProgress

	status := types.HealthRed
	switch {
	case delta >= -5:
		status = types.HealthGreen
	case delta >= -15:
		status = types.HealthAmber
	}
	return types.HealthFactor{
		Name:   types.FactorSchedule,
		Weight: e.cfg.Weights.Schedule,
		Value:  delta,
		Status: status,
	}
}

// performanceFactor rates the latest metric snapshot. No metrics at all is
// Green by default: a move that has not started reporting is not failing.
func (e *Engine) performanceFactor(series []*types.MetricPoint) types.HealthFactor {
	value := 100.0
	status := types.HealthGreen
	if len(series) > 0 {
		latest := series[len(series)-1]
		switch {
		case latest.CTR < 1 || latest.EngagementRate < 2:
			value, status = 30, types.HealthRed
		case latest.CTR < 2 || latest.EngagementRate < 4:
			value, status = 60, types.HealthAmber
		}
	}
	return types.HealthFactor{
		Name:   types.FactorPerformance,
		Weight: e.cfg.Weights.Performance,
		Value:  value,
		Status: status,
	}
}

// anomalyFactor penalizes each open anomaly by 20 points, floored at zero.
func (e *Engine) anomalyFactor(openAnomalies int) types.HealthFactor {
	value := math.Max(0, 100-float64(openAnomalies)*20)
	status := types.HealthRed
	switch {
	case openAnomalies == 0:
		status = types.HealthGreen
	case openAnomalies <= 2:
		status = types.HealthAmber
	}
	return types.HealthFactor{
		Name:   types.FactorAnomalies,
		Weight: e.cfg.Weights.Anomalies,
		Value:  value,
		Status: status,
	}
}

// oodaFactor rewards lifecycle progress through the OODA loop.
func (e *Engine) oodaFactor(move *types.Move) types.HealthFactor {
	value := oodaScores[move.Status]
	status := types.HealthRed
	switch {
	case value > 60:
		status = types.HealthGreen
	case value > 30:
		status = types.HealthAmber
	}
	return types.HealthFactor{
		Name:   types.FactorOODA,
		Weight: e.cfg.Weights.OODA,
		Value:  value,
		Status: status,
	}
}
