// Package storage defines the collaborator interfaces the orchestration core
// depends on: capability nodes, moves, sprints, metric series, and anomalies.
//
// The core never performs I/O of its own; concrete implementations (the
// hosted relational store in production, the memory sub-package in tests and
// the wp CLI) are substituted behind these interfaces.
package storage

import (
	"context"
	"errors"

	"github.com/warplanhq/warplan/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrMoveExists is returned by CreateMove when the id is already taken.
var ErrMoveExists = errors.New("move already exists")

// ErrVersionConflict is returned by conditional sprint-load writes when the
// row version changed between read and write. Callers retry a bounded number
// of times, then surface the conflict.
var ErrVersionConflict = errors.New("sprint version conflict")

// ErrManeuverLocked is returned when a move's maneuver type still has locked
// prerequisite capabilities.
var ErrManeuverLocked = errors.New("maneuver prerequisites not unlocked")

// ErrInsufficientCapacity is returned when a sprint cannot absorb a move's
// intensity and the caller asked for capacity enforcement.
var ErrInsufficientCapacity = errors.New("insufficient sprint capacity")

// MoveFilter narrows ListMoves results. Zero values mean "no constraint".
type MoveFilter struct {
	SprintID   string
	Status     types.MoveStatus
	ActiveOnly bool
}

// CapabilityStore provides the tech-tree nodes and the maneuver prerequisite
// relation for a workspace.
type CapabilityStore interface {
	ListNodes(ctx context.Context, workspaceID string) ([]*types.CapabilityNode, error)
	GetPrerequisites(ctx context.Context, maneuverTypeID string) ([]string, error)
	Unlock(ctx context.Context, nodeID string) error
	SetInProgress(ctx context.Context, nodeID string) error
}

// MoveStore persists moves. UpdateHealth writes only the advisory health
// fields; status transitions go through UpdateStatus and are always
// operator- or rule-driven.
type MoveStore interface {
	CreateMove(ctx context.Context, move *types.Move) error
	GetMove(ctx context.Context, id string) (*types.Move, error)
	ListMoves(ctx context.Context, workspaceID string, filter MoveFilter) ([]*types.Move, error)
	UpdateStatus(ctx context.Context, id string, status types.MoveStatus) error
	UpdateSprint(ctx context.Context, id, sprintID string) error
	UpdateHealth(ctx context.Context, id string, health types.HealthStatus) error
}

// SprintStore persists sprints. UpdateLoad is a conditional write: it applies
// newLoad only if the stored row still carries version, returning
// ErrVersionConflict otherwise.
type SprintStore interface {
	GetSprint(ctx context.Context, id string) (*types.Sprint, error)
	ListSprints(ctx context.Context, workspaceID string) ([]*types.Sprint, error)
	UpdateLoad(ctx context.Context, id string, newLoad int, version int64) error
}

// MetricsProvider returns a move's daily metric series, ordered by date
// ascending.
type MetricsProvider interface {
	GetSeries(ctx context.Context, moveID string) ([]*types.MetricPoint, error)
}

// AnomalySink receives detected anomalies and answers open-anomaly queries.
// Dedup of re-emitted findings against prior open anomalies is the sink's
// concern, not the detectors'.
type AnomalySink interface {
	CreateAnomaly(ctx context.Context, anomaly *types.Anomaly) error
	ListOpenForMove(ctx context.Context, moveID string) ([]*types.Anomaly, error)
	ListOpenForWorkspace(ctx context.Context, workspaceID string) ([]*types.Anomaly, error)
}

// ManeuverCatalog resolves maneuver templates by id.
type ManeuverCatalog interface {
	GetManeuverType(ctx context.Context, id string) (*types.ManeuverType, error)
	ListManeuverTypes(ctx context.Context) ([]*types.ManeuverType, error)
}
