package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warplanhq/warplan/internal/debug"
	"github.com/warplanhq/warplan/internal/types"
)

// MoveSnapshot bundles everything the engine needs to evaluate one move.
// Callers assemble snapshots from their stores before invoking the engine;
// the engine itself performs no I/O.
type MoveSnapshot struct {
	Move          *types.Move
	Series        []*types.MetricPoint
	OpenAnomalies int
}

// WorkspaceEvaluation is the result of one evaluation pass.
type WorkspaceEvaluation struct {
	WorkspaceID string               `json:"workspace_id"`
	Reports     []types.HealthReport `json:"reports"`
	Anomalies   []types.Anomaly      `json:"anomalies"`

	// Evaluated is how many moves were scored this pass. Truncated is set
	// when the snapshot list exceeded MaxMovesPerPass and the tail was
	// deferred to a later pass.
	Evaluated int  `json:"evaluated"`
	Truncated bool `json:"truncated"`
}

// EvaluateWorkspace runs one full evaluation pass: every move is scored and
// run through the per-move detectors concurrently (bounded by cfg.Workers),
// then the workspace-level capacity overload check runs over the aggregated
// health statuses. At most cfg.MaxMovesPerPass moves are evaluated per pass.
//
// Per-move evaluation touches no shared state, so the fan-out needs only the
// final barrier before the overload check.
func (e *Engine) EvaluateWorkspace(ctx context.Context, workspaceID string, snaps []MoveSnapshot, now time.Time) (*WorkspaceEvaluation, error) {
	truncated := false
	if len(snaps) > e.cfg.MaxMovesPerPass {
		debug.Logf("health: truncating evaluation of %s to %d of %d moves\n",
			workspaceID, e.cfg.MaxMovesPerPass, len(snaps))
		snaps = snaps[:e.cfg.MaxMovesPerPass]
		truncated = true
	}

	reports := make([]types.HealthReport, len(snaps))
	findings := make([][]types.Anomaly, len(snaps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, snap := range snaps {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = e.Score(snap.Move, snap.Series, snap.OpenAnomalies, now)
			findings[i] = e.DetectAll(snap.Move, snap.Series, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	eval := &WorkspaceEvaluation{
		WorkspaceID: workspaceID,
		Reports:     reports,
		Evaluated:   len(snaps),
		Truncated:   truncated,
	}
	for _, f := range findings {
		eval.Anomalies = append(eval.Anomalies, f...)
	}

	// The overload check depends on the statuses just computed, so it runs
	// strictly after the fan-in. Moves are rated with their fresh health.
	var active []*types.Move
	for i, snap := range snaps {
		if !snap.Move.IsActive() {
			continue
		}
		rated := *snap.Move
		rated.Health = reports[i].Status
		active = append(active, &rated)
	}
	if a := e.DetectCapacityOverload(workspaceID, active, now); a != nil {
		eval.Anomalies = append(eval.Anomalies, *a)
	}

	return eval, nil
}
