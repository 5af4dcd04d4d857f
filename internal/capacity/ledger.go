// Package capacity accounts for sprint load: budget versus the summed
// intensity of member moves. The arithmetic is pure; the only write path is
// SyncLoad, which pushes a recomputed load through the sprint store with
// optimistic-concurrency retry.
package capacity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/warplanhq/warplan/internal/debug"
	"github.com/warplanhq/warplan/internal/storage"
	"github.com/warplanhq/warplan/internal/types"
)

// Ledger performs sprint capacity accounting. It holds no mutable state.
type Ledger struct {
	// MaxRetries bounds optimistic-concurrency retries in SyncLoad.
	MaxRetries int
}

// NewLedger returns a ledger with the given retry budget for load writes.
func NewLedger(maxRetries int) *Ledger {
	return &Ledger{MaxRetries: maxRetries}
}

// AvailableCapacity returns budget minus current load. May be negative when
// a sprint is over-committed.
func (l *Ledger) AvailableCapacity(sprint *types.Sprint) int {
	return sprint.CapacityBudget - sprint.CurrentLoad
}

// HasCapacity reports whether the sprint can absorb the required load. The
// check is advisory: the ledger never forbids over-commitment, the caller
// decides whether to block or warn.
func (l *Ledger) HasCapacity(sprint *types.Sprint, required int) bool {
	return l.AvailableCapacity(sprint) >= required
}

// CapacityPercentage returns load as a rounded percentage of budget, and 0
// for a zero budget.
func (l *Ledger) CapacityPercentage(sprint *types.Sprint) int {
	if sprint.CapacityBudget == 0 {
		return 0
	}
	return int(math.Round(float64(sprint.CurrentLoad) / float64(sprint.CapacityBudget) * 100))
}

// Recalculate sums the intensity scores of the sprint's non-Killed member
// moves. intensity maps maneuver type id to score; a move whose maneuver has
// no intensity entry counts as 1, degrading to a move-count approximation
// when intensity data is not wired up.
func (l *Ledger) Recalculate(members []*types.Move, intensity map[string]int) int {
	load := 0
	for _, m := range members {
		if m.Status == types.MoveKilled {
			continue
		}
		if score, ok := intensity[m.ManeuverTypeID]; ok && score > 0 {
			load += score
		} else {
			load++
		}
	}
	return load
}

// ApplyLoadDelta returns the sprint's load adjusted by delta, clamped at
// zero. The sprint itself is not mutated.
func (l *Ledger) ApplyLoadDelta(sprint *types.Sprint, delta int) int {
	newLoad := sprint.CurrentLoad + delta
	if newLoad < 0 {
		return 0
	}
	return newLoad
}

// Summary is a point-in-time capacity view of one sprint.
type Summary struct {
	SprintID      string `json:"sprint_id"`
	Budget        int    `json:"budget"`
	Load          int    `json:"load"`
	Available     int    `json:"available"`
	Percentage    int    `json:"percentage"`
	OverCommitted bool   `json:"over_committed"`
}

// Summarize builds the capacity summary for one sprint.
func (l *Ledger) Summarize(sprint *types.Sprint) Summary {
	return Summary{
		SprintID:      sprint.ID,
		Budget:        sprint.CapacityBudget,
		Load:          sprint.CurrentLoad,
		Available:     l.AvailableCapacity(sprint),
		Percentage:    l.CapacityPercentage(sprint),
		OverCommitted: sprint.CurrentLoad > sprint.CapacityBudget,
	}
}

func newSyncBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second
	return bo
}

// SyncLoad recomputes a sprint's load from its member moves and writes it
// through the store. The write is conditioned on the sprint version read at
// the top of each attempt; on ErrVersionConflict the whole read-recompute-
// write cycle retries with exponential backoff, up to MaxRetries attempts,
// then the conflict is surfaced.
func (l *Ledger) SyncLoad(ctx context.Context, store storage.SprintStore, sprintID string, members []*types.Move, intensity map[string]int) (int, error) {
	var newLoad int
	attempts := 0

	bo := backoff.WithMaxRetries(newSyncBackoff(), uint64(l.MaxRetries))
	err := backoff.Retry(func() error {
		attempts++
		sprint, err := store.GetSprint(ctx, sprintID)
		if err != nil {
			return backoff.Permanent(err)
		}
		newLoad = l.Recalculate(members, intensity)
		if newLoad == sprint.CurrentLoad {
			return nil
		}
		err = store.UpdateLoad(ctx, sprintID, newLoad, sprint.Version)
		if errors.Is(err, storage.ErrVersionConflict) {
			debug.Logf("capacity: version conflict on sprint %s (attempt %d), retrying\n", sprintID, attempts)
			return err // Retryable - backoff will retry
		}
		if err != nil {
			return backoff.Permanent(err) // Non-retryable - stop immediately
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to sync load for sprint %s: %w", sprintID, err)
	}
	return newLoad, nil
}
