package health

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/warplanhq/warplan/internal/types"
)

// Detector minimum-history requirements. Shorter series yield no finding.
const (
	fatigueMinPoints       = 7
	fatigueMinActivePoints = 3
	driftMinPoints         = 10
	driftWindow            = 5
	toneMinContentLen      = 100
)

// DetectFatigue flags engagement decay: within the last 7 daily points, the
// mean engagement of the first 3 non-zero points is compared against the
// last 3; a decline past the configured threshold (default 30%) is fatigue.
// Requires at least 7 points overall and 3 non-zero engagement points in the
// window, otherwise no finding.
func (e *Engine) DetectFatigue(move *types.Move, series []*types.MetricPoint, now time.Time) *types.Anomaly {
	if len(series) < fatigueMinPoints {
		return nil
	}
	window := series[len(series)-fatigueMinPoints:]
	var active []float64
	for _, p := range window {
		if p.EngagementRate > 0 {
			active = append(active, p.EngagementRate)
		}
	}
	if len(active) < fatigueMinActivePoints {
		return nil
	}

	early := mean(active[:fatigueMinActivePoints])
	late := mean(active[len(active)-fatigueMinActivePoints:])
	if early == 0 {
		return nil
	}
	decline := (early - late) / early * 100
	if decline <= e.cfg.FatigueDeclinePct {
		return nil
	}

	return &types.Anomaly{
		WorkspaceID: move.WorkspaceID,
		Type:        types.AnomalyFatigue,
		Severity:    4,
		MoveID:      move.ID,
		Message: fmt.Sprintf("engagement declined %.0f%% over the last %d days (%.1f%% to %.1f%%)",
			decline, fatigueMinPoints, early, late),
		Status:     types.AnomalyOpen,
		DetectedAt: now,
	}
}

// DetectDrift flags conversion-rate drift: the mean of the first 5 points is
// the baseline, the mean of the last 5 is recent. Absolute drift past the
// configured threshold (default 25%) is reported: severity 4 when conversion
// fell, severity 2 when it rose (positive drift is informational). Requires
// at least 10 points and a non-zero baseline.
func (e *Engine) DetectDrift(move *types.Move, series []*types.MetricPoint, now time.Time) *types.Anomaly {
	if len(series) < driftMinPoints {
		return nil
	}
	baseline := meanConversion(series[:driftWindow])
	recent := meanConversion(series[len(series)-driftWindow:])
	if baseline == 0 {
		return nil
	}
	driftPct := math.Abs(recent-baseline) / baseline * 100
	if driftPct <= e.cfg.DriftPct {
		return nil
	}

	severity := 2
	direction := "up"
	if recent < baseline {
		severity = 4
		direction = "down"
	}
	return &types.Anomaly{
		WorkspaceID: move.WorkspaceID,
		Type:        types.AnomalyDrift,
		Severity:    severity,
		MoveID:      move.ID,
		Message: fmt.Sprintf("conversion rate drifted %s %.0f%% from baseline (%.2f%% to %.2f%%)",
			direction, driftPct, baseline, recent),
		Status:     types.AnomalyOpen,
		DetectedAt: now,
	}
}

// DetectCapacityOverload inspects the active portfolio as a whole. Too many
// active moves (default > 8) is a severity-5 overload; otherwise 3 or more
// Red moves is a severity-4 overload. At most one finding per evaluation,
// with the move-count rule taking precedence. The finding is
// workspace-scoped: it names no single move.
func (e *Engine) DetectCapacityOverload(workspaceID string, active []*types.Move, now time.Time) *types.Anomaly {
	if len(active) > e.cfg.MaxActiveMoves {
		return &types.Anomaly{
			WorkspaceID: workspaceID,
			Type:        types.AnomalyCapacityOverload,
			Severity:    5,
			Message: fmt.Sprintf("%d active moves exceeds the portfolio limit of %d",
				len(active), e.cfg.MaxActiveMoves),
			Status:     types.AnomalyOpen,
			DetectedAt: now,
		}
	}

	redCount := 0
	for _, m := range active {
		if m.Health == types.HealthRed {
			redCount++
		}
	}
	if redCount >= e.cfg.RedMoveThreshold {
		return &types.Anomaly{
			WorkspaceID: workspaceID,
			Type:        types.AnomalyCapacityOverload,
			Severity:    4,
			Message:     fmt.Sprintf("%d of %d active moves are red", redCount, len(active)),
			Status:      types.AnomalyOpen,
			DetectedAt:  now,
		}
	}
	return nil
}

// toneKeywords is the heuristic tone vocabulary. Keyword matching is a
// placeholder classifier; the contract (content + tone in, optional finding
// out) is stable and a stronger implementation can replace it.
var toneKeywords = map[string][]string{
	"professional": {"expertise", "proven", "results", "trusted", "industry", "strategic"},
	"casual":       {"hey", "awesome", "easy", "simple", "cool", "honestly"},
	"playful":      {"fun", "wild", "surprise", "play", "spark", "whimsy"},
	"urgent":       {"now", "today", "limited", "deadline", "hurry", "last chance"},
	"luxury":       {"exclusive", "premium", "bespoke", "refined", "elevated", "curated"},
	"bold":         {"fearless", "disrupt", "challenge", "dare", "unapologetic", "break"},
}

// DetectToneClash checks content against the target tone's keyword table.
// Content over 100 characters with zero keyword matches for the target tone
// is a severity-3 clash naming suggested keywords. Short content or an
// unknown tone yields no finding.
func (e *Engine) DetectToneClash(move *types.Move, content, targetTone string, now time.Time) *types.Anomaly {
	keywords, ok := toneKeywords[strings.ToLower(targetTone)]
	if !ok || len(content) <= toneMinContentLen {
		return nil
	}
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return nil
		}
	}
	return &types.Anomaly{
		WorkspaceID: move.WorkspaceID,
		Type:        types.AnomalyToneClash,
		Severity:    3,
		MoveID:      move.ID,
		Message: fmt.Sprintf("content does not match the %q tone; consider language like: %s",
			targetTone, strings.Join(keywords[:3], ", ")),
		Status:     types.AnomalyOpen,
		DetectedAt: now,
	}
}

// DetectAll runs every per-move detector for one move: the lifecycle rule
// checks plus fatigue and drift over its metric series. Findings are
// concatenated in that order.
func (e *Engine) DetectAll(move *types.Move, series []*types.MetricPoint, now time.Time) []types.Anomaly {
	findings := e.checker.CheckRules(move, now)
	if a := e.DetectFatigue(move, series, now); a != nil {
		findings = append(findings, *a)
	}
	if a := e.DetectDrift(move, series, now); a != nil {
		findings = append(findings, *a)
	}
	return findings
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanConversion(points []*types.MetricPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.ConversionRate
	}
	return sum / float64(len(points))
}
