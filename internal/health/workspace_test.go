package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warplanhq/warplan/internal/config"
	"github.com/warplanhq/warplan/internal/types"
)

func TestEvaluateWorkspace(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	snaps := []MoveSnapshot{
		{
			Move: &types.Move{
				ID:          "mv-healthy",
				WorkspaceID: "ws-1",
				Status:      types.MoveAct,
				ProgressPct: 90,
				OODA:        types.OODAConfig{ObserveSources: []string{"ga4"}},
				UpdatedAt:   now,
			},
		},
		{
			Move: &types.Move{
				ID:          "mv-stuck",
				WorkspaceID: "ws-1",
				Status:      types.MoveObserve,
				OODA:        types.OODAConfig{ObserveSources: []string{"ga4"}},
				UpdatedAt:   now.AddDate(0, 0, -12),
			},
			OpenAnomalies: 1,
		},
	}

	eval, err := e.EvaluateWorkspace(context.Background(), "ws-1", snaps, now)
	require.NoError(t, err)

	assert.Equal(t, "ws-1", eval.WorkspaceID)
	assert.Equal(t, 2, eval.Evaluated)
	assert.False(t, eval.Truncated)
	require.Len(t, eval.Reports, 2)

	// Reports stay aligned with the input snapshots.
	assert.Equal(t, "mv-healthy", eval.Reports[0].MoveID)
	assert.Equal(t, "mv-stuck", eval.Reports[1].MoveID)
	assert.Equal(t, types.HealthGreen, eval.Reports[0].Status)

	// The stuck move contributes exactly one rule violation.
	require.Len(t, eval.Anomalies, 1)
	assert.Equal(t, types.AnomalyRuleViolation, eval.Anomalies[0].Type)
	assert.Equal(t, "mv-stuck", eval.Anomalies[0].MoveID)
}

func TestEvaluateWorkspaceOverloadRunsAfterFanIn(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	// Nine active moves: the workspace-level overload must fire once, after
	// every per-move evaluation lands.
	var snaps []MoveSnapshot
	for i := 0; i < 9; i++ {
		snaps = append(snaps, MoveSnapshot{
			Move: &types.Move{
				ID:          fmt.Sprintf("mv-%d", i),
				WorkspaceID: "ws-1",
				Status:      types.MoveAct,
				ProgressPct: 90,
				OODA:        types.OODAConfig{ObserveSources: []string{"ga4"}},
				UpdatedAt:   now,
			},
		})
	}

	eval, err := e.EvaluateWorkspace(context.Background(), "ws-1", snaps, now)
	require.NoError(t, err)

	var overloads []types.Anomaly
	for _, a := range eval.Anomalies {
		if a.Type == types.AnomalyCapacityOverload {
			overloads = append(overloads, a)
		}
	}
	require.Len(t, overloads, 1)
	assert.Equal(t, 5, overloads[0].Severity)
	assert.Empty(t, overloads[0].MoveID)
}

func TestEvaluateWorkspaceUsesFreshHealthForOverload(t *testing.T) {
	e := testEngine()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	// Three moves whose stored health is green but whose fresh evaluation is
	// red (killed-phase score is 0 against a blown schedule). The red-count
	// overload must trip on the recomputed statuses, not the stale field.
	var snaps []MoveSnapshot
	for i := 0; i < 3; i++ {
		start := now.AddDate(0, 0, -60)
		end := now.AddDate(0, 0, -30)
		snaps = append(snaps, MoveSnapshot{
			Move: &types.Move{
				ID:          fmt.Sprintf("mv-%d", i),
				WorkspaceID: "ws-1",
				Status:      types.MoveObserve,
				ProgressPct: 0,
				Health:      types.HealthGreen,
				StartDate:   &start,
				EndDate:     &end,
				OODA:        types.OODAConfig{ObserveSources: []string{"ga4"}},
				UpdatedAt:   now,
			},
			Series:        []*types.MetricPoint{{Date: now, CTR: 0.1, EngagementRate: 0.2}},
			OpenAnomalies: 5,
		})
	}

	eval, err := e.EvaluateWorkspace(context.Background(), "ws-1", snaps, now)
	require.NoError(t, err)

	found := false
	for _, a := range eval.Anomalies {
		if a.Type == types.AnomalyCapacityOverload {
			found = true
			assert.Equal(t, 4, a.Severity)
		}
	}
	assert.True(t, found, "red-count overload must fire on recomputed health")
}

func TestEvaluateWorkspaceBoundsPassSize(t *testing.T) {
	cfg := config.Default()
	cfg.MaxMovesPerPass = 3
	e := NewEngine(cfg)
	now := time.Now()

	var snaps []MoveSnapshot
	for i := 0; i < 10; i++ {
		snaps = append(snaps, MoveSnapshot{
			Move: &types.Move{
				ID:          fmt.Sprintf("mv-%d", i),
				WorkspaceID: "ws-1",
				Status:      types.MovePlanning,
				UpdatedAt:   now,
			},
		})
	}

	eval, err := e.EvaluateWorkspace(context.Background(), "ws-1", snaps, now)
	require.NoError(t, err)
	assert.Equal(t, 3, eval.Evaluated)
	assert.True(t, eval.Truncated)
	assert.Len(t, eval.Reports, 3)
}

func TestEvaluateWorkspaceEmpty(t *testing.T) {
	e := testEngine()
	eval, err := e.EvaluateWorkspace(context.Background(), "ws-1", nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, eval.Evaluated)
	assert.Empty(t, eval.Anomalies)
}
