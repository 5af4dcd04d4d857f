// Package memory provides an in-memory implementation of every storage
// interface. It backs the test suites and the wp CLI's snapshot mode; the
// hosted relational store replaces it in production.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warplanhq/warplan/internal/storage"
	"github.com/warplanhq/warplan/internal/types"
)

// Store holds workspace data in memory. All methods are safe for concurrent
// use. Sprint rows carry a version that conditional load writes check,
// mirroring the optimistic-concurrency discipline of the hosted store.
type Store struct {
	mu sync.RWMutex

	nodes     map[string]*types.CapabilityNode
	moves     map[string]*types.Move
	sprints   map[string]*types.Sprint
	anomalies map[string]*types.Anomaly
	maneuvers map[string]*types.ManeuverType
	prereqs   map[string][]string // maneuver type id -> capability node ids
	series    map[string][]*types.MetricPoint

	nodeOrder []string // preserves insertion order for ListNodes
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		nodes:     make(map[string]*types.CapabilityNode),
		moves:     make(map[string]*types.Move),
		sprints:   make(map[string]*types.Sprint),
		anomalies: make(map[string]*types.Anomaly),
		maneuvers: make(map[string]*types.ManeuverType),
		prereqs:   make(map[string][]string),
		series:    make(map[string][]*types.MetricPoint),
	}
}

// Interface checks
var (
	_ storage.CapabilityStore = (*Store)(nil)
	_ storage.MoveStore       = (*Store)(nil)
	_ storage.SprintStore     = (*Store)(nil)
	_ storage.MetricsProvider = (*Store)(nil)
	_ storage.AnomalySink     = (*Store)(nil)
	_ storage.ManeuverCatalog = (*Store)(nil)
)

// PutNode inserts or replaces a capability node.
func (s *Store) PutNode(node *types.CapabilityNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodes[node.ID]; !exists {
		s.nodeOrder = append(s.nodeOrder, node.ID)
	}
	cp := *node
	s.nodes[node.ID] = &cp
}

// PutManeuver registers a maneuver template and its prerequisite capability
// ids.
func (s *Store) PutManeuver(m *types.ManeuverType, prereqNodeIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.maneuvers[m.ID] = &cp
	if len(prereqNodeIDs) > 0 {
		s.prereqs[m.ID] = append([]string(nil), prereqNodeIDs...)
	}
}

// PutSprint inserts or replaces a sprint.
func (s *Store) PutSprint(sprint *types.Sprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sprint
	if cp.Version == 0 {
		cp.Version = 1
	}
	s.sprints[sprint.ID] = &cp
}

// PutSeries replaces a move's metric series.
func (s *Store) PutSeries(moveID string, points []*types.MetricPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]*types.MetricPoint, len(points))
	for i, p := range points {
		point := *p
		cp[i] = &point
	}
	sort.Slice(cp, func(i, j int) bool { return cp[i].Date.Before(cp[j].Date) })
	s.series[moveID] = cp
}

// ListNodes returns the workspace's capability nodes in catalog order.
func (s *Store) ListNodes(ctx context.Context, workspaceID string) ([]*types.CapabilityNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var nodes []*types.CapabilityNode
	for _, id := range s.nodeOrder {
		n := s.nodes[id]
		if n.WorkspaceID == workspaceID {
			cp := *n
			nodes = append(nodes, &cp)
		}
	}
	return nodes, nil
}

// GetPrerequisites returns the capability ids gating a maneuver type.
func (s *Store) GetPrerequisites(ctx context.Context, maneuverTypeID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.prereqs[maneuverTypeID]...), nil
}

// AllPrerequisites returns the full maneuver -> capability relation.
func (s *Store) AllPrerequisites() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.prereqs))
	for k, v := range s.prereqs {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Unlock transitions a node to Unlocked.
func (s *Store) Unlock(ctx context.Context, nodeID string) error {
	return s.setNodeStatus(nodeID, types.NodeUnlocked)
}

// SetInProgress transitions a node to InProgress.
func (s *Store) SetInProgress(ctx context.Context, nodeID string) error {
	return s.setNodeStatus(nodeID, types.NodeInProgress)
}

func (s *Store) setNodeStatus(nodeID string, status types.NodeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[nodeID]
	if !ok {
		return fmt.Errorf("node %s: %w", nodeID, storage.ErrNotFound)
	}
	node.Status = status
	node.UpdatedAt = time.Now()
	return nil
}

// CreateMove stores a new move, assigning an id if the caller did not.
func (s *Store) CreateMove(ctx context.Context, move *types.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if move.ID == "" {
		move.ID = uuid.NewString()
	}
	if _, exists := s.moves[move.ID]; exists {
		return fmt.Errorf("move %s: %w", move.ID, storage.ErrMoveExists)
	}
	cp := *move
	s.moves[move.ID] = &cp
	return nil
}

// GetMove returns one move by id.
func (s *Store) GetMove(ctx context.Context, id string) (*types.Move, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	move, ok := s.moves[id]
	if !ok {
		return nil, fmt.Errorf("move %s: %w", id, storage.ErrNotFound)
	}
	cp := *move
	return &cp, nil
}

// ListMoves returns a workspace's moves, newest first, after filtering.
func (s *Store) ListMoves(ctx context.Context, workspaceID string, filter storage.MoveFilter) ([]*types.Move, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var moves []*types.Move
	for _, m := range s.moves {
		if m.WorkspaceID != workspaceID {
			continue
		}
		if filter.SprintID != "" && m.SprintID != filter.SprintID {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if filter.ActiveOnly && !m.IsActive() {
			continue
		}
		cp := *m
		moves = append(moves, &cp)
	}
	sort.Slice(moves, func(i, j int) bool {
		if moves[i].CreatedAt.Equal(moves[j].CreatedAt) {
			return moves[i].ID < moves[j].ID
		}
		return moves[i].CreatedAt.After(moves[j].CreatedAt)
	})
	return moves, nil
}

// UpdateStatus writes a move's lifecycle status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status types.MoveStatus) error {
	return s.updateMove(id, func(m *types.Move) {
		m.Status = status
	})
}

// UpdateSprint reassigns a move to a sprint (empty id unassigns).
func (s *Store) UpdateSprint(ctx context.Context, id, sprintID string) error {
	return s.updateMove(id, func(m *types.Move) {
		m.SprintID = sprintID
	})
}

// UpdateHealth writes the advisory health field.
func (s *Store) UpdateHealth(ctx context.Context, id string, health types.HealthStatus) error {
	return s.updateMove(id, func(m *types.Move) {
		m.Health = health
	})
}

func (s *Store) updateMove(id string, fn func(*types.Move)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	move, ok := s.moves[id]
	if !ok {
		return fmt.Errorf("move %s: %w", id, storage.ErrNotFound)
	}
	fn(move)
	move.UpdatedAt = time.Now()
	return nil
}

// GetSprint returns one sprint by id.
func (s *Store) GetSprint(ctx context.Context, id string) (*types.Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sprint, ok := s.sprints[id]
	if !ok {
		return nil, fmt.Errorf("sprint %s: %w", id, storage.ErrNotFound)
	}
	cp := *sprint
	return &cp, nil
}

// ListSprints returns a workspace's sprints ordered by start date.
func (s *Store) ListSprints(ctx context.Context, workspaceID string) ([]*types.Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sprints []*types.Sprint
	for _, sp := range s.sprints {
		if sp.WorkspaceID == workspaceID {
			cp := *sp
			sprints = append(sprints, &cp)
		}
	}
	sort.Slice(sprints, func(i, j int) bool {
		if sprints[i].StartDate.Equal(sprints[j].StartDate) {
			return sprints[i].ID < sprints[j].ID
		}
		return sprints[i].StartDate.Before(sprints[j].StartDate)
	})
	return sprints, nil
}

// UpdateLoad conditionally writes a sprint's load. The write succeeds only
// when version matches the stored row; otherwise ErrVersionConflict comes
// back and the caller re-reads and retries.
func (s *Store) UpdateLoad(ctx context.Context, id string, newLoad int, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sprint, ok := s.sprints[id]
	if !ok {
		return fmt.Errorf("sprint %s: %w", id, storage.ErrNotFound)
	}
	if sprint.Version != version {
		return storage.ErrVersionConflict
	}
	sprint.CurrentLoad = newLoad
	sprint.Version++
	return nil
}

// GetSeries returns a move's metric series ordered by date ascending.
func (s *Store) GetSeries(ctx context.Context, moveID string) ([]*types.MetricPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := s.series[moveID]
	cp := make([]*types.MetricPoint, len(points))
	for i, p := range points {
		point := *p
		cp[i] = &point
	}
	return cp, nil
}

// CreateAnomaly stores a detected anomaly, assigning an id if needed.
func (s *Store) CreateAnomaly(ctx context.Context, anomaly *types.Anomaly) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if anomaly.ID == "" {
		anomaly.ID = uuid.NewString()
	}
	cp := *anomaly
	s.anomalies[anomaly.ID] = &cp
	return nil
}

// ListOpenForMove returns the open anomalies scoped to one move.
func (s *Store) ListOpenForMove(ctx context.Context, moveID string) ([]*types.Anomaly, error) {
	return s.listOpen(func(a *types.Anomaly) bool { return a.MoveID == moveID }), nil
}

// ListOpenForWorkspace returns every open anomaly in a workspace, move-scoped
// and workspace-scoped alike.
func (s *Store) ListOpenForWorkspace(ctx context.Context, workspaceID string) ([]*types.Anomaly, error) {
	return s.listOpen(func(a *types.Anomaly) bool { return a.WorkspaceID == workspaceID }), nil
}

func (s *Store) listOpen(match func(*types.Anomaly) bool) []*types.Anomaly {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []*types.Anomaly
	for _, a := range s.anomalies {
		if a.Status == types.AnomalyOpen && match(a) {
			cp := *a
			open = append(open, &cp)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].DetectedAt.Equal(open[j].DetectedAt) {
			return open[i].ID < open[j].ID
		}
		return open[i].DetectedAt.Before(open[j].DetectedAt)
	})
	return open
}

// ResolveAnomaly marks an anomaly resolved, the operator action.
func (s *Store) ResolveAnomaly(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.anomalies[id]
	if !ok {
		return fmt.Errorf("anomaly %s: %w", id, storage.ErrNotFound)
	}
	now := time.Now()
	a.Status = types.AnomalyResolved
	a.ResolvedAt = &now
	return nil
}

// GetManeuverType returns one maneuver template by id.
func (s *Store) GetManeuverType(ctx context.Context, id string) (*types.ManeuverType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.maneuvers[id]
	if !ok {
		return nil, fmt.Errorf("maneuver type %s: %w", id, storage.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

// ListManeuverTypes returns every registered maneuver template.
func (s *Store) ListManeuverTypes(ctx context.Context) ([]*types.ManeuverType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*types.ManeuverType
	for _, m := range s.maneuvers {
		cp := *m
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// IntensityIndex returns maneuver id -> intensity score for the capacity
// ledger.
func (s *Store) IntensityIndex() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := make(map[string]int, len(s.maneuvers))
	for id, m := range s.maneuvers {
		if m.IntensityScore > 0 {
			idx[id] = m.IntensityScore
		}
	}
	return idx
}
