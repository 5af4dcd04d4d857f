package health

import (
	"testing"
	"time"

	"github.com/warplanhq/warplan/internal/config"
	"github.com/warplanhq/warplan/internal/types"
)

func testEngine() *Engine {
	return NewEngine(config.Default())
}

func datePtr(t time.Time) *time.Time { return &t }

func TestScorePerfectMove(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	move := &types.Move{
		ID:          "mv-1",
		Status:      types.MoveComplete,
		ProgressPct: 100,
	}
	series := []*types.MetricPoint{
		{Date: now, CTR: 3.5, EngagementRate: 6.0},
	}

	report := e.Score(move, series, 0, now)
	// No dates -> timeProgress 0 -> schedule delta +100 (green).
	// Performance green (100), anomalies green (100), OODA complete (100).
	// 100*0.3 + 100*0.4 + 100*0.2 + 100*0.1 = 100.
	if report.Score != 100 {
		t.Errorf("score = %d, want 100", report.Score)
	}
	if report.Status != types.HealthGreen {
		t.Errorf("status = %s, want green", report.Status)
	}
}

func TestScoreClampedToRange(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	// Far behind schedule: 0% progress with the window fully elapsed, plus
	// poor metrics, many anomalies, and a killed status. The weighted sum is
	// negative before clamping.
	move := &types.Move{
		ID:          "mv-1",
		Status:      types.MoveKilled,
		ProgressPct: 0,
		StartDate:   datePtr(now.AddDate(0, 0, -60)),
		EndDate:     datePtr(now.AddDate(0, 0, -30)),
	}
	series := []*types.MetricPoint{
		{Date: now, CTR: 0.2, EngagementRate: 0.5},
	}

	report := e.Score(move, series, 10, now)
	if report.Score < 0 || report.Score > 100 {
		t.Fatalf("score %d outside [0,100]", report.Score)
	}
	if report.Score != 0 {
		t.Errorf("score = %d, want clamped 0", report.Score)
	}
	if report.Status != types.HealthRed {
		t.Errorf("status = %s, want red", report.Status)
	}
}

func TestScheduleFactor(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		progress   int
		startAgo   int // days before now
		endAhead   int // days after now
		wantStatus types.HealthStatus
		wantValue  float64
	}{
		// 10-day window, 5 elapsed -> timeProgress 50.
		{"on schedule", 50, 5, 5, types.HealthGreen, 0},
		{"slightly behind is green", 45, 5, 5, types.HealthGreen, -5},
		{"behind is amber", 40, 5, 5, types.HealthAmber, -10},
		{"far behind is red", 20, 5, 5, types.HealthRed, -30},
		{"ahead of schedule", 80, 5, 5, types.HealthGreen, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			move := &types.Move{
				ProgressPct: tt.progress,
				StartDate:   datePtr(now.AddDate(0, 0, -tt.startAgo)),
				EndDate:     datePtr(now.AddDate(0, 0, tt.endAhead)),
			}
			f := e.scheduleFactor(move, now)
			if f.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", f.Status, tt.wantStatus)
			}
			if f.Value != tt.wantValue {
				t.Errorf("value = %v, want %v", f.Value, tt.wantValue)
			}
		})
	}

	t.Run("zero-length window yields zero time progress", func(t *testing.T) {
		d := now
		move := &types.Move{ProgressPct: 10, StartDate: &d, EndDate: &d}
		f := e.scheduleFactor(move, now)
		if f.Value != 10 {
			t.Errorf("value = %v, want 10 (delta against timeProgress 0)", f.Value)
		}
	})
}

func TestPerformanceFactor(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name       string
		ctr        float64
		engagement float64
		wantValue  float64
		wantStatus types.HealthStatus
	}{
		{"strong metrics", 2.5, 5.0, 100, types.HealthGreen},
		{"low ctr is red", 0.8, 5.0, 30, types.HealthRed},
		{"low engagement is red", 2.5, 1.5, 30, types.HealthRed},
		{"middling ctr is amber", 1.5, 5.0, 60, types.HealthAmber},
		{"middling engagement is amber", 2.5, 3.0, 60, types.HealthAmber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := []*types.MetricPoint{{CTR: tt.ctr, EngagementRate: tt.engagement}}
			f := e.performanceFactor(series)
			if f.Value != tt.wantValue || f.Status != tt.wantStatus {
				t.Errorf("got (%v, %s), want (%v, %s)", f.Value, f.Status, tt.wantValue, tt.wantStatus)
			}
		})
	}

	t.Run("no metrics defaults to green", func(t *testing.T) {
		f := e.performanceFactor(nil)
		if f.Value != 100 || f.Status != types.HealthGreen {
			t.Errorf("got (%v, %s), want (100, green)", f.Value, f.Status)
		}
	})

	t.Run("only the latest snapshot counts", func(t *testing.T) {
		series := []*types.MetricPoint{
			{CTR: 0.1, EngagementRate: 0.1},
			{CTR: 3.0, EngagementRate: 6.0},
		}
		f := e.performanceFactor(series)
		if f.Status != types.HealthGreen {
			t.Errorf("status = %s, want green from latest point", f.Status)
		}
	})
}

func TestAnomalyFactor(t *testing.T) {
	e := testEngine()

	tests := []struct {
		open       int
		wantValue  float64
		wantStatus types.HealthStatus
	}{
		{0, 100, types.HealthGreen},
		{1, 80, types.HealthAmber},
		{2, 60, types.HealthAmber},
		{3, 40, types.HealthRed},
		{5, 0, types.HealthRed},
		{10, 0, types.HealthRed}, // floored at zero
	}

	for _, tt := range tests {
		f := e.anomalyFactor(tt.open)
		if f.Value != tt.wantValue || f.Status != tt.wantStatus {
			t.Errorf("anomalyFactor(%d) = (%v, %s), want (%v, %s)",
				tt.open, f.Value, f.Status, tt.wantValue, tt.wantStatus)
		}
	}
}

func TestOODAFactor(t *testing.T) {
	e := testEngine()

	tests := []struct {
		status     types.MoveStatus
		wantValue  float64
		wantStatus types.HealthStatus
	}{
		{types.MovePlanning, 10, types.HealthRed},
		{types.MoveObserve, 25, types.HealthRed},
		{types.MoveOrient, 50, types.HealthAmber},
		{types.MoveDecide, 75, types.HealthGreen},
		{types.MoveAct, 90, types.HealthGreen},
		{types.MoveComplete, 100, types.HealthGreen},
		{types.MoveKilled, 0, types.HealthRed},
	}

	for _, tt := range tests {
		f := e.oodaFactor(&types.Move{Status: tt.status})
		if f.Value != tt.wantValue || f.Status != tt.wantStatus {
			t.Errorf("oodaFactor(%s) = (%v, %s), want (%v, %s)",
				tt.status, f.Value, f.Status, tt.wantValue, tt.wantStatus)
		}
	}
}

func TestScoreStatusBoundaries(t *testing.T) {
	e := testEngine()
	now := time.Now()

	// Orient phase, clean metrics, no anomalies, no dates, 0 progress:
	// 0*0.3 + 100*0.4 + 100*0.2 + 50*0.1 = 65 -> amber.
	move := &types.Move{ID: "mv-1", Status: types.MoveOrient, ProgressPct: 0}
	report := e.Score(move, nil, 0, now)
	if report.Score != 65 {
		t.Errorf("score = %d, want 65", report.Score)
	}
	if report.Status != types.HealthAmber {
		t.Errorf("status = %s, want amber", report.Status)
	}

	// Factor breakdown is carried on the report.
	if f := report.Factor(types.FactorPerformance); f == nil || f.Value != 100 {
		t.Errorf("performance factor = %+v", f)
	}
}
