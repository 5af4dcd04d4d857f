// Package lifecycle models the OODA progression of a move and validates
// moves against the campaign playbook rules. Progression is strictly linear
// (Planning through the four OODA phases to Complete) with Killed reachable
// from any non-terminal state; there are no backward transitions. A phase
// regression is represented as a fresh move, never as a state change.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/warplanhq/warplan/internal/types"
)

// forward maps each non-terminal status to its successor.
var forward = map[types.MoveStatus]types.MoveStatus{
	types.MovePlanning: types.MoveObserve,
	types.MoveObserve:  types.MoveOrient,
	types.MoveOrient:   types.MoveDecide,
	types.MoveDecide:   types.MoveAct,
	types.MoveAct:      types.MoveComplete,
}

// CanTransition reports whether a move may go from one status to another.
// The only legal transitions are the single forward step and a kill from any
// non-terminal state.
func CanTransition(from, to types.MoveStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == types.MoveKilled {
		return true
	}
	return forward[from] == to
}

// Next returns the forward successor of a status. ok is false for terminal
// states.
func Next(from types.MoveStatus) (types.MoveStatus, bool) {
	next, ok := forward[from]
	return next, ok
}

// ValidTargets lists every status a move may legally transition to.
func ValidTargets(from types.MoveStatus) []types.MoveStatus {
	if from.IsTerminal() {
		return nil
	}
	return []types.MoveStatus{forward[from], types.MoveKilled}
}

// Checker validates moves against the playbook rules. It is read-only: rule
// violations come back as anomaly records and the move is never mutated.
type Checker struct {
	// StuckThresholdDays is how long a move may sit in one OODA phase
	// without an update before it is flagged.
	StuckThresholdDays int

	// OverdueEscalationDays is how many days past its end date a move may
	// run before the overdue finding escalates from severity 3 to 4.
	OverdueEscalationDays int
}

// NewChecker returns a rule checker with the supplied thresholds.
func NewChecker(stuckDays, escalationDays int) *Checker {
	return &Checker{StuckThresholdDays: stuckDays, OverdueEscalationDays: escalationDays}
}

// CheckRules evaluates every playbook rule against a move at the given
// instant and returns the violations found. All findings are Rule_Violation
// anomalies scoped to the move.
func (c *Checker) CheckRules(move *types.Move, now time.Time) []types.Anomaly {
	var findings []types.Anomaly

	// Past Planning, a move must declare what it is observing.
	if move.Status != types.MovePlanning && !move.Status.IsTerminal() && len(move.OODA.ObserveSources) == 0 {
		findings = append(findings, c.violation(move, 2, now,
			"move has no observation sources configured; the OODA loop cannot observe"))
	}

	// Stuck in an OODA phase: no update for longer than the threshold.
	if move.Status.IsOODA() && !move.UpdatedAt.IsZero() {
		days := wholeDays(now.Sub(move.UpdatedAt))
		if days > c.StuckThresholdDays {
			findings = append(findings, c.violation(move, 3, now,
				fmt.Sprintf("move stuck in %s phase for %d days", move.Status.Phase(), days)))
		}
	}

	// Overdue: end date passed and the move is still running.
	if move.EndDate != nil && move.EndDate.Before(now) && !move.Status.IsTerminal() {
		daysOverdue := wholeDays(now.Sub(*move.EndDate))
		severity := 3
		if daysOverdue > c.OverdueEscalationDays {
			severity = 4
		}
		findings = append(findings, c.violation(move, severity, now,
			fmt.Sprintf("move is %d days past its end date", daysOverdue)))
	}

	return findings
}

func (c *Checker) violation(move *types.Move, severity int, now time.Time, msg string) types.Anomaly {
	return types.Anomaly{
		WorkspaceID: move.WorkspaceID,
		Type:        types.AnomalyRuleViolation,
		Severity:    severity,
		MoveID:      move.ID,
		Message:     msg,
		Status:      types.AnomalyOpen,
		DetectedAt:  now,
	}
}

// wholeDays floors a duration to whole days, never negative.
func wholeDays(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
