package health

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/warplanhq/warplan/internal/types"
)

// dailySeries builds one point per day ending today, with engagement rates
// taken from rates in order.
func dailySeries(now time.Time, engagement []float64) []*types.MetricPoint {
	series := make([]*types.MetricPoint, len(engagement))
	for i, rate := range engagement {
		series[i] = &types.MetricPoint{
			Date:           now.AddDate(0, 0, i-len(engagement)+1),
			EngagementRate: rate,
		}
	}
	return series
}

func conversionSeries(now time.Time, rates []float64) []*types.MetricPoint {
	series := make([]*types.MetricPoint, len(rates))
	for i, rate := range rates {
		series[i] = &types.MetricPoint{
			Date:           now.AddDate(0, 0, i-len(rates)+1),
			ConversionRate: rate,
		}
	}
	return series
}

func TestDetectFatigue(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	move := &types.Move{ID: "mv-1", WorkspaceID: "ws-1"}

	t.Run("fewer than seven points yields no finding", func(t *testing.T) {
		series := dailySeries(now, []float64{10, 10, 10, 5, 5, 5})
		if a := e.DetectFatigue(move, series, now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})

	t.Run("forty percent decline is fatigue", func(t *testing.T) {
		series := dailySeries(now, []float64{10, 10, 10, 8, 5, 5, 5})
		a := e.DetectFatigue(move, series, now)
		if a == nil {
			t.Fatal("expected a fatigue finding")
		}
		if a.Type != types.AnomalyFatigue {
			t.Errorf("type = %s, want fatigue", a.Type)
		}
		if a.Severity != 4 {
			t.Errorf("severity = %d, want 4", a.Severity)
		}
		if a.MoveID != "mv-1" {
			t.Errorf("move id = %q, want mv-1", a.MoveID)
		}
	})

	t.Run("stable engagement yields no finding", func(t *testing.T) {
		series := dailySeries(now, []float64{10, 10, 10, 10, 10, 10, 10})
		if a := e.DetectFatigue(move, series, now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})

	t.Run("thirty percent exactly is not past the threshold", func(t *testing.T) {
		series := dailySeries(now, []float64{10, 10, 10, 9, 7, 7, 7})
		if a := e.DetectFatigue(move, series, now); a != nil {
			t.Fatalf("got %+v, want nil (decline must exceed threshold)", a)
		}
	})

	t.Run("too few active points yields no finding", func(t *testing.T) {
		series := dailySeries(now, []float64{0, 0, 0, 0, 0, 10, 5})
		if a := e.DetectFatigue(move, series, now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})

	t.Run("zero-engagement days are skipped not counted", func(t *testing.T) {
		// Non-zero points: 10,10,10,4,4,4 -> 60% decline.
		series := dailySeries(now, []float64{10, 0, 10, 10, 4, 4, 4})
		a := e.DetectFatigue(move, series, now)
		if a == nil {
			t.Fatal("expected a fatigue finding across zero-gaps")
		}
	})
}

func TestDetectDrift(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	move := &types.Move{ID: "mv-1", WorkspaceID: "ws-1"}

	t.Run("fewer than ten points yields no finding", func(t *testing.T) {
		series := conversionSeries(now, []float64{4, 4, 4, 4, 4, 2, 2, 2, 2})
		if a := e.DetectDrift(move, series, now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})

	t.Run("negative drift is severity 4", func(t *testing.T) {
		series := conversionSeries(now, []float64{4, 4, 4, 4, 4, 2, 2, 2, 2, 2})
		a := e.DetectDrift(move, series, now)
		if a == nil {
			t.Fatal("expected a drift finding")
		}
		if a.Severity != 4 {
			t.Errorf("severity = %d, want 4", a.Severity)
		}
		if !strings.Contains(a.Message, "down") {
			t.Errorf("message must name the direction, got %q", a.Message)
		}
	})

	t.Run("positive drift is informational severity 2", func(t *testing.T) {
		series := conversionSeries(now, []float64{2, 2, 2, 2, 2, 4, 4, 4, 4, 4})
		a := e.DetectDrift(move, series, now)
		if a == nil {
			t.Fatal("expected a drift finding")
		}
		if a.Severity != 2 {
			t.Errorf("severity = %d, want 2", a.Severity)
		}
	})

	t.Run("zero baseline yields no finding", func(t *testing.T) {
		series := conversionSeries(now, []float64{0, 0, 0, 0, 0, 4, 4, 4, 4, 4})
		if a := e.DetectDrift(move, series, now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})

	t.Run("small drift yields no finding", func(t *testing.T) {
		series := conversionSeries(now, []float64{4, 4, 4, 4, 4, 3.5, 3.5, 3.5, 3.5, 3.5})
		if a := e.DetectDrift(move, series, now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})
}

func TestDetectCapacityOverload(t *testing.T) {
	e := testEngine()
	now := time.Now()

	makeMoves := func(total, red int) []*types.Move {
		moves := make([]*types.Move, total)
		for i := range moves {
			health := types.HealthGreen
			if i < red {
				health = types.HealthRed
			}
			moves[i] = &types.Move{
				ID:     fmt.Sprintf("mv-%d", i),
				Status: types.MoveAct,
				Health: health,
			}
		}
		return moves
	}

	t.Run("nine active moves is severity 5", func(t *testing.T) {
		a := e.DetectCapacityOverload("ws-1", makeMoves(9, 0), now)
		if a == nil {
			t.Fatal("expected an overload finding")
		}
		if a.Severity != 5 {
			t.Errorf("severity = %d, want 5", a.Severity)
		}
		if !a.IsWorkspaceScoped() {
			t.Error("overload must be workspace-scoped")
		}
	})

	t.Run("five moves with three red is severity 4", func(t *testing.T) {
		a := e.DetectCapacityOverload("ws-1", makeMoves(5, 3), now)
		if a == nil {
			t.Fatal("expected an overload finding")
		}
		if a.Severity != 4 {
			t.Errorf("severity = %d, want 4 (not 5)", a.Severity)
		}
	})

	t.Run("overload rule takes precedence over red count", func(t *testing.T) {
		a := e.DetectCapacityOverload("ws-1", makeMoves(10, 5), now)
		if a == nil || a.Severity != 5 {
			t.Fatalf("got %+v, want single severity-5 finding", a)
		}
	})

	t.Run("healthy portfolio yields no finding", func(t *testing.T) {
		if a := e.DetectCapacityOverload("ws-1", makeMoves(5, 2), now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})

	t.Run("eight active moves is within the limit", func(t *testing.T) {
		if a := e.DetectCapacityOverload("ws-1", makeMoves(8, 0), now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})
}

func TestDetectToneClash(t *testing.T) {
	e := testEngine()
	now := time.Now()
	move := &types.Move{ID: "mv-1", WorkspaceID: "ws-1"}

	longOffTone := strings.Repeat("We make widgets for people who need widgets. ", 4)

	t.Run("long content with no tone keywords clashes", func(t *testing.T) {
		a := e.DetectToneClash(move, longOffTone, "luxury", now)
		if a == nil {
			t.Fatal("expected a tone clash finding")
		}
		if a.Severity != 3 {
			t.Errorf("severity = %d, want 3", a.Severity)
		}
		if !strings.Contains(a.Message, "exclusive") {
			t.Errorf("message must suggest keywords, got %q", a.Message)
		}
	})

	t.Run("matching keyword passes", func(t *testing.T) {
		content := longOffTone + " An exclusive drop for our best customers."
		if a := e.DetectToneClash(move, content, "luxury", now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})

	t.Run("short content is never checked", func(t *testing.T) {
		if a := e.DetectToneClash(move, "short copy", "luxury", now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})

	t.Run("unknown tone yields no finding", func(t *testing.T) {
		if a := e.DetectToneClash(move, longOffTone, "stoic", now); a != nil {
			t.Fatalf("got %+v, want nil", a)
		}
	})
}

func TestDetectAll(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	// Stuck in Observe for 10 days, fading engagement: one rule violation
	// plus one fatigue finding.
	move := &types.Move{
		ID:          "mv-1",
		WorkspaceID: "ws-1",
		Status:      types.MoveObserve,
		OODA:        types.OODAConfig{ObserveSources: []string{"ga4"}},
		UpdatedAt:   now.AddDate(0, 0, -10),
	}
	series := dailySeries(now, []float64{10, 10, 10, 8, 5, 5, 5})

	findings := e.DetectAll(move, series, now)
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2: %+v", len(findings), findings)
	}
	if findings[0].Type != types.AnomalyRuleViolation {
		t.Errorf("first finding = %s, want rule_violation", findings[0].Type)
	}
	if findings[1].Type != types.AnomalyFatigue {
		t.Errorf("second finding = %s, want fatigue", findings[1].Type)
	}
}
