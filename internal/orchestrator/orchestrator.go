// Package orchestrator is the composition root of the campaign core. It
// wires the capability graph, the capacity ledger, and the health engine
// over the storage collaborators: moves come into existence only through it,
// and periodic evaluation passes flow through it back into the stores.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/warplanhq/warplan/internal/capacity"
	"github.com/warplanhq/warplan/internal/config"
	"github.com/warplanhq/warplan/internal/debug"
	"github.com/warplanhq/warplan/internal/health"
	"github.com/warplanhq/warplan/internal/lifecycle"
	"github.com/warplanhq/warplan/internal/storage"
	"github.com/warplanhq/warplan/internal/techtree"
	"github.com/warplanhq/warplan/internal/telemetry"
	"github.com/warplanhq/warplan/internal/types"
)

const scopeName = "github.com/warplanhq/warplan/orchestrator"

// Stores bundles the storage collaborators the orchestrator needs.
type Stores struct {
	Capabilities storage.CapabilityStore
	Moves        storage.MoveStore
	Sprints      storage.SprintStore
	Metrics      storage.MetricsProvider
	Anomalies    storage.AnomalySink
	Maneuvers    storage.ManeuverCatalog
}

// Orchestrator coordinates move creation, sprint assignment, lifecycle
// transitions, and workspace evaluation. It holds configuration and
// collaborator handles only; all mutable state lives behind the stores.
type Orchestrator struct {
	cfg    config.Config
	graph  *techtree.Graph
	ledger *capacity.Ledger
	engine *health.Engine
	stores Stores

	evalCount    metric.Int64Counter
	evalDuration metric.Float64Histogram
	anomalyCount metric.Int64Counter
}

// New wires an orchestrator from configuration and stores.
func New(cfg config.Config, stores Stores) *Orchestrator {
	m := telemetry.Meter(scopeName)
	evalCount, _ := m.Int64Counter("wp.evaluations",
		metric.WithDescription("Workspace evaluation passes completed"),
	)
	evalDuration, _ := m.Float64Histogram("wp.evaluation.duration",
		metric.WithDescription("Workspace evaluation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	anomalyCount, _ := m.Int64Counter("wp.anomalies.detected",
		metric.WithDescription("Anomalies detected, by type"),
	)
	return &Orchestrator{
		cfg:          cfg,
		graph:        techtree.New(),
		ledger:       capacity.NewLedger(cfg.MaxLoadRetries),
		engine:       health.NewEngine(cfg),
		stores:       stores,
		evalCount:    evalCount,
		evalDuration: evalDuration,
		anomalyCount: anomalyCount,
	}
}

// Graph exposes the capability graph evaluator.
func (o *Orchestrator) Graph() *techtree.Graph { return o.graph }

// Ledger exposes the capacity ledger.
func (o *Orchestrator) Ledger() *capacity.Ledger { return o.ledger }

// Engine exposes the health engine.
func (o *Orchestrator) Engine() *health.Engine { return o.engine }

// CreateMoveRequest describes a move to instantiate.
type CreateMoveRequest struct {
	WorkspaceID    string
	ManeuverTypeID string
	Title          string
	SprintID       string
	StartDate      *time.Time
	EndDate        *time.Time
	OODA           types.OODAConfig

	// EnforceCapacity makes an over-budget sprint assignment fail with
	// ErrInsufficientCapacity. The default is the advisory policy: the
	// assignment goes through and the caller surfaces a warning.
	EnforceCapacity bool
}

// CreateMove instantiates a maneuver as a new move. The tech tree gates the
// request: a maneuver with locked prerequisites is refused. If the move is
// assigned to a sprint the sprint's load is resynced through the ledger.
func (o *Orchestrator) CreateMove(ctx context.Context, req CreateMoveRequest) (*types.Move, error) {
	nodes, err := o.stores.Capabilities.ListNodes(ctx, req.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list capability nodes: %w", err)
	}
	prereqIDs, err := o.stores.Capabilities.GetPrerequisites(ctx, req.ManeuverTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prerequisites: %w", err)
	}
	prereqs := map[string][]string{req.ManeuverTypeID: prereqIDs}
	if !o.graph.IsManeuverUnlocked(req.ManeuverTypeID, nodes, prereqs) {
		missing := o.graph.LockedManeuvers(nodes, prereqs)[req.ManeuverTypeID]
		names := make([]string, len(missing))
		for i, n := range missing {
			names[i] = n.ID
		}
		return nil, fmt.Errorf("maneuver %s requires %v: %w", req.ManeuverTypeID, names, storage.ErrManeuverLocked)
	}

	now := time.Now()
	move := &types.Move{
		ID:             uuid.NewString(),
		WorkspaceID:    req.WorkspaceID,
		ManeuverTypeID: req.ManeuverTypeID,
		SprintID:       req.SprintID,
		Title:          req.Title,
		Status:         types.MovePlanning,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Health:         types.HealthGreen,
		OODA:           req.OODA,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := move.Validate(); err != nil {
		return nil, err
	}

	if req.SprintID != "" {
		if err := o.checkSprintCapacity(ctx, req.SprintID, req.ManeuverTypeID, req.EnforceCapacity); err != nil {
			return nil, err
		}
	}

	if err := o.stores.Moves.CreateMove(ctx, move); err != nil {
		return nil, fmt.Errorf("failed to create move: %w", err)
	}
	if req.SprintID != "" {
		if err := o.syncSprint(ctx, req.WorkspaceID, req.SprintID); err != nil {
			return nil, err
		}
	}
	return move, nil
}

func (o *Orchestrator) checkSprintCapacity(ctx context.Context, sprintID, maneuverTypeID string, enforce bool) error {
	sprint, err := o.stores.Sprints.GetSprint(ctx, sprintID)
	if err != nil {
		return fmt.Errorf("failed to load sprint: %w", err)
	}
	required := 1
	if mt, err := o.stores.Maneuvers.GetManeuverType(ctx, maneuverTypeID); err == nil && mt.IntensityScore > 0 {
		required = mt.IntensityScore
	}
	if o.ledger.HasCapacity(sprint, required) {
		return nil
	}
	if enforce {
		return fmt.Errorf("sprint %s has %d units free, move needs %d: %w",
			sprintID, o.ledger.AvailableCapacity(sprint), required, storage.ErrInsufficientCapacity)
	}
	debug.Logf("orchestrator: sprint %s over capacity (%d free, %d needed), proceeding\n",
		sprintID, o.ledger.AvailableCapacity(sprint), required)
	return nil
}

// AssignToSprint moves a move into a sprint and resyncs the load of both the
// new sprint and, when the move was previously assigned, the old one.
func (o *Orchestrator) AssignToSprint(ctx context.Context, moveID, sprintID string, enforce bool) error {
	move, err := o.stores.Moves.GetMove(ctx, moveID)
	if err != nil {
		return err
	}
	if sprintID != "" {
		if err := o.checkSprintCapacity(ctx, sprintID, move.ManeuverTypeID, enforce); err != nil {
			return err
		}
	}
	if err := o.stores.Moves.UpdateSprint(ctx, moveID, sprintID); err != nil {
		return err
	}
	for _, id := range []string{move.SprintID, sprintID} {
		if id == "" {
			continue
		}
		if err := o.syncSprint(ctx, move.WorkspaceID, id); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFromSprint pulls a move out of its sprint and resyncs the sprint's
// load.
func (o *Orchestrator) RemoveFromSprint(ctx context.Context, moveID string) error {
	return o.AssignToSprint(ctx, moveID, "", false)
}

// TransitionMove applies an operator-driven lifecycle transition, refusing
// anything the state machine does not allow. Killing a move releases its
// sprint load.
func (o *Orchestrator) TransitionMove(ctx context.Context, moveID string, target types.MoveStatus) error {
	move, err := o.stores.Moves.GetMove(ctx, moveID)
	if err != nil {
		return err
	}
	if !lifecycle.CanTransition(move.Status, target) {
		return fmt.Errorf("cannot transition move %s from %s to %s", moveID, move.Status, target)
	}
	// Leaving Planning requires an observation plan.
	if move.Status == types.MovePlanning && target != types.MoveKilled && len(move.OODA.ObserveSources) == 0 {
		return fmt.Errorf("move %s cannot leave planning without observe sources", moveID)
	}
	if err := o.stores.Moves.UpdateStatus(ctx, moveID, target); err != nil {
		return err
	}
	if target == types.MoveKilled && move.SprintID != "" {
		return o.syncSprint(ctx, move.WorkspaceID, move.SprintID)
	}
	return nil
}

// syncSprint recomputes one sprint's load from its current membership.
func (o *Orchestrator) syncSprint(ctx context.Context, workspaceID, sprintID string) error {
	members, err := o.stores.Moves.ListMoves(ctx, workspaceID, storage.MoveFilter{SprintID: sprintID})
	if err != nil {
		return fmt.Errorf("failed to list sprint members: %w", err)
	}
	intensity, err := o.intensityIndex(ctx)
	if err != nil {
		return err
	}
	_, err = o.ledger.SyncLoad(ctx, o.stores.Sprints, sprintID, members, intensity)
	return err
}

func (o *Orchestrator) intensityIndex(ctx context.Context) (map[string]int, error) {
	all, err := o.stores.Maneuvers.ListManeuverTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list maneuver types: %w", err)
	}
	idx := make(map[string]int, len(all))
	for _, m := range all {
		if m.IntensityScore > 0 {
			idx[m.ID] = m.IntensityScore
		}
	}
	return idx, nil
}

// EvaluateWorkspace runs one full health and anomaly pass over a workspace
// as of the given instant: it gathers the active moves with their metric
// series and open-anomaly counts, invokes the engine, then persists the
// fresh health statuses and feeds new findings to the anomaly sink.
func (o *Orchestrator) EvaluateWorkspace(ctx context.Context, workspaceID string, now time.Time) (*health.WorkspaceEvaluation, error) {
	started := time.Now()
	ctx, span := telemetry.Tracer(scopeName).Start(ctx, "EvaluateWorkspace")
	defer span.End()

	moves, err := o.stores.Moves.ListMoves(ctx, workspaceID, storage.MoveFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}

	snaps := make([]health.MoveSnapshot, 0, len(moves))
	for _, m := range moves {
		series, err := o.stores.Metrics.GetSeries(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load metrics for move %s: %w", m.ID, err)
		}
		open, err := o.stores.Anomalies.ListOpenForMove(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list open anomalies for move %s: %w", m.ID, err)
		}
		snaps = append(snaps, health.MoveSnapshot{
			Move:          m,
			Series:        series,
			OpenAnomalies: len(open),
		})
	}

	eval, err := o.engine.EvaluateWorkspace(ctx, workspaceID, snaps, now)
	if err != nil {
		return nil, err
	}

	for _, report := range eval.Reports {
		if err := o.stores.Moves.UpdateHealth(ctx, report.MoveID, report.Status); err != nil {
			return nil, fmt.Errorf("failed to persist health for move %s: %w", report.MoveID, err)
		}
	}
	for i := range eval.Anomalies {
		a := &eval.Anomalies[i]
		if err := o.stores.Anomalies.CreateAnomaly(ctx, a); err != nil {
			return nil, fmt.Errorf("failed to record anomaly: %w", err)
		}
		o.anomalyCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", string(a.Type)),
		))
	}

	o.evalCount.Add(ctx, 1)
	o.evalDuration.Record(ctx, float64(time.Since(started).Milliseconds()))
	debug.Logf("orchestrator: evaluated %d moves in %s, %d anomalies\n",
		eval.Evaluated, workspaceID, len(eval.Anomalies))
	return eval, nil
}

// UnlockNode transitions a capability node to Unlocked after the graph
// confirms eligibility.
func (o *Orchestrator) UnlockNode(ctx context.Context, workspaceID, nodeID string) error {
	nodes, err := o.stores.Capabilities.ListNodes(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to list capability nodes: %w", err)
	}
	var target *types.CapabilityNode
	for _, n := range nodes {
		if n.ID == nodeID {
			target = n
			break
		}
	}
	if target == nil {
		return fmt.Errorf("node %s: %w", nodeID, storage.ErrNotFound)
	}
	if !o.graph.CanUnlock(target, nodes) {
		return fmt.Errorf("node %s is not eligible to unlock", nodeID)
	}
	return o.stores.Capabilities.Unlock(ctx, nodeID)
}

// StartNode marks an unlockable node InProgress.
func (o *Orchestrator) StartNode(ctx context.Context, workspaceID, nodeID string) error {
	nodes, err := o.stores.Capabilities.ListNodes(ctx, workspaceID)
	if err != nil {
		return fmt.Errorf("failed to list capability nodes: %w", err)
	}
	var target *types.CapabilityNode
	for _, n := range nodes {
		if n.ID == nodeID {
			target = n
			break
		}
	}
	if target == nil {
		return fmt.Errorf("node %s: %w", nodeID, storage.ErrNotFound)
	}
	if !o.graph.CanUnlock(target, nodes) {
		return fmt.Errorf("node %s has locked parents", nodeID)
	}
	return o.stores.Capabilities.SetInProgress(ctx, nodeID)
}
