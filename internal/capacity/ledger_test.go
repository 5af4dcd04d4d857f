package capacity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warplanhq/warplan/internal/storage"
	"github.com/warplanhq/warplan/internal/types"
)

func TestAvailableCapacity(t *testing.T) {
	l := NewLedger(3)
	sprint := &types.Sprint{CapacityBudget: 10, CurrentLoad: 4}
	if got := l.AvailableCapacity(sprint); got != 6 {
		t.Errorf("AvailableCapacity = %d, want 6", got)
	}

	sprint.CurrentLoad = 12
	if got := l.AvailableCapacity(sprint); got != -2 {
		t.Errorf("over-committed AvailableCapacity = %d, want -2", got)
	}
}

func TestHasCapacity(t *testing.T) {
	l := NewLedger(3)
	sprint := &types.Sprint{CapacityBudget: 10, CurrentLoad: 10}

	if l.HasCapacity(sprint, 1) {
		t.Error("full sprint must not have capacity for 1 more unit")
	}
	if !l.HasCapacity(sprint, 0) {
		t.Error("full sprint still has capacity for a zero-load request")
	}

	sprint.CurrentLoad = 7
	if !l.HasCapacity(sprint, 3) {
		t.Error("exact fit must count as having capacity")
	}
	if l.HasCapacity(sprint, 4) {
		t.Error("requirement past budget must fail")
	}
}

func TestCapacityPercentage(t *testing.T) {
	l := NewLedger(3)
	tests := []struct {
		name   string
		budget int
		load   int
		want   int
	}{
		{"zero budget guards divide by zero", 0, 5, 0},
		{"empty sprint", 10, 0, 0},
		{"full sprint", 10, 10, 100},
		{"rounding up", 3, 1, 33},
		{"rounding to nearest", 3, 2, 67},
		{"over-committed goes past 100", 10, 15, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sprint := &types.Sprint{CapacityBudget: tt.budget, CurrentLoad: tt.load}
			if got := l.CapacityPercentage(sprint); got != tt.want {
				t.Errorf("CapacityPercentage = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecalculate(t *testing.T) {
	l := NewLedger(3)
	moves := []*types.Move{
		{ID: "mv-1", ManeuverTypeID: "launch-blitz", Status: types.MoveAct},
		{ID: "mv-2", ManeuverTypeID: "teaser-campaign", Status: types.MoveObserve},
		{ID: "mv-3", ManeuverTypeID: "launch-blitz", Status: types.MoveKilled},
	}
	intensity := map[string]int{"launch-blitz": 5, "teaser-campaign": 2}

	// Killed moves never count against the sprint.
	if got := l.Recalculate(moves, intensity); got != 7 {
		t.Errorf("Recalculate = %d, want 7", got)
	}
}

func TestRecalculateFallsBackToMoveCount(t *testing.T) {
	l := NewLedger(3)
	moves := []*types.Move{
		{ID: "mv-1", ManeuverTypeID: "launch-blitz", Status: types.MoveAct},
		{ID: "mv-2", ManeuverTypeID: "mystery-maneuver", Status: types.MoveObserve},
	}

	// No intensity data at all: each move counts as 1.
	if got := l.Recalculate(moves, nil); got != 2 {
		t.Errorf("count fallback = %d, want 2", got)
	}

	// Partial intensity data: unknown maneuvers count as 1.
	if got := l.Recalculate(moves, map[string]int{"launch-blitz": 5}); got != 6 {
		t.Errorf("partial fallback = %d, want 6", got)
	}
}

func TestApplyLoadDelta(t *testing.T) {
	l := NewLedger(3)
	sprint := &types.Sprint{CapacityBudget: 10, CurrentLoad: 4}

	if got := l.ApplyLoadDelta(sprint, 3); got != 7 {
		t.Errorf("ApplyLoadDelta(+3) = %d, want 7", got)
	}
	if got := l.ApplyLoadDelta(sprint, -10); got != 0 {
		t.Errorf("ApplyLoadDelta(-10) = %d, want 0 (clamped)", got)
	}
	if sprint.CurrentLoad != 4 {
		t.Error("ApplyLoadDelta must not mutate the sprint")
	}
}

func TestSummarize(t *testing.T) {
	l := NewLedger(3)
	s := l.Summarize(&types.Sprint{ID: "sp-1", CapacityBudget: 10, CurrentLoad: 12})
	assert.Equal(t, "sp-1", s.SprintID)
	assert.Equal(t, -2, s.Available)
	assert.Equal(t, 120, s.Percentage)
	assert.True(t, s.OverCommitted)
}

// conflictingStore fails UpdateLoad with ErrVersionConflict a fixed number of
// times before accepting the write, simulating concurrent writers.
type conflictingStore struct {
	sprint    types.Sprint
	conflicts int
	updates   int
}

func (s *conflictingStore) GetSprint(ctx context.Context, id string) (*types.Sprint, error) {
	if id != s.sprint.ID {
		return nil, storage.ErrNotFound
	}
	cp := s.sprint
	return &cp, nil
}

func (s *conflictingStore) ListSprints(ctx context.Context, workspaceID string) ([]*types.Sprint, error) {
	cp := s.sprint
	return []*types.Sprint{&cp}, nil
}

func (s *conflictingStore) UpdateLoad(ctx context.Context, id string, newLoad int, version int64) error {
	if s.conflicts > 0 {
		s.conflicts--
		s.sprint.Version++ // another writer got there first
		return storage.ErrVersionConflict
	}
	if version != s.sprint.Version {
		return storage.ErrVersionConflict
	}
	s.sprint.CurrentLoad = newLoad
	s.sprint.Version++
	s.updates++
	return nil
}

func TestSyncLoadRetriesOnConflict(t *testing.T) {
	l := NewLedger(5)
	store := &conflictingStore{
		sprint:    types.Sprint{ID: "sp-1", CapacityBudget: 10, CurrentLoad: 0, Version: 1},
		conflicts: 2,
	}
	moves := []*types.Move{
		{ID: "mv-1", ManeuverTypeID: "launch-blitz", Status: types.MoveAct},
	}

	load, err := l.SyncLoad(context.Background(), store, "sp-1", moves, map[string]int{"launch-blitz": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, load)
	assert.Equal(t, 5, store.sprint.CurrentLoad)
	assert.Equal(t, 1, store.updates)
}

func TestSyncLoadSurfacesExhaustedRetries(t *testing.T) {
	l := NewLedger(2)
	store := &conflictingStore{
		sprint:    types.Sprint{ID: "sp-1", CapacityBudget: 10, CurrentLoad: 0, Version: 1},
		conflicts: 100, // never stops conflicting
	}
	moves := []*types.Move{
		{ID: "mv-1", ManeuverTypeID: "launch-blitz", Status: types.MoveAct},
	}

	_, err := l.SyncLoad(context.Background(), store, "sp-1", moves, map[string]int{"launch-blitz": 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
}

func TestSyncLoadSkipsWriteWhenUnchanged(t *testing.T) {
	l := NewLedger(3)
	store := &conflictingStore{
		sprint: types.Sprint{ID: "sp-1", CapacityBudget: 10, CurrentLoad: 5, Version: 1},
	}
	moves := []*types.Move{
		{ID: "mv-1", ManeuverTypeID: "launch-blitz", Status: types.MoveAct},
	}

	load, err := l.SyncLoad(context.Background(), store, "sp-1", moves, map[string]int{"launch-blitz": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, load)
	assert.Equal(t, 0, store.updates, "matching load must not write")
}
