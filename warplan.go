// Package warplan provides a minimal public API for embedding the campaign
// planning core in other Go programs.
//
// The package exports the domain types, the storage interfaces, and an
// orchestrator constructor. Hosts bring their own store implementations (or
// use the bundled in-memory one) and drive everything through the
// Orchestrator.
package warplan

import (
	"github.com/warplanhq/warplan/internal/catalog"
	"github.com/warplanhq/warplan/internal/config"
	"github.com/warplanhq/warplan/internal/orchestrator"
	"github.com/warplanhq/warplan/internal/storage"
	"github.com/warplanhq/warplan/internal/storage/memory"
	"github.com/warplanhq/warplan/internal/types"
)

// Core types for working with campaigns
type (
	CapabilityNode = types.CapabilityNode
	ManeuverType   = types.ManeuverType
	Move           = types.Move
	Sprint         = types.Sprint
	Anomaly        = types.Anomaly
	MetricPoint    = types.MetricPoint
	HealthReport   = types.HealthReport
	OODAConfig     = types.OODAConfig
)

// Move lifecycle constants
const (
	MovePlanning = types.MovePlanning
	MoveObserve  = types.MoveObserve
	MoveOrient   = types.MoveOrient
	MoveDecide   = types.MoveDecide
	MoveAct      = types.MoveAct
	MoveComplete = types.MoveComplete
	MoveKilled   = types.MoveKilled
)

// Health constants
const (
	HealthGreen = types.HealthGreen
	HealthAmber = types.HealthAmber
	HealthRed   = types.HealthRed
)

// Storage collaborators the orchestrator depends on
type (
	CapabilityStore = storage.CapabilityStore
	MoveStore       = storage.MoveStore
	SprintStore     = storage.SprintStore
	MetricsProvider = storage.MetricsProvider
	AnomalySink     = storage.AnomalySink
	ManeuverCatalog = storage.ManeuverCatalog
)

// Sentinel errors surfaced by orchestrator operations
var (
	ErrNotFound             = storage.ErrNotFound
	ErrMoveExists           = storage.ErrMoveExists
	ErrManeuverLocked       = storage.ErrManeuverLocked
	ErrInsufficientCapacity = storage.ErrInsufficientCapacity
	ErrVersionConflict      = storage.ErrVersionConflict
)

// Orchestrator coordinates move creation, sprint capacity, and health
// evaluation over the storage collaborators.
type (
	Orchestrator      = orchestrator.Orchestrator
	Stores            = orchestrator.Stores
	CreateMoveRequest = orchestrator.CreateMoveRequest
	Config            = config.Config
)

// New wires an orchestrator with default configuration.
func New(stores Stores) *Orchestrator {
	return orchestrator.New(config.Default(), stores)
}

// NewWithConfig wires an orchestrator with explicit configuration.
func NewWithConfig(cfg Config, stores Stores) *Orchestrator {
	return orchestrator.New(cfg, stores)
}

// NewMemoryStore returns an in-memory store implementing every storage
// interface, suitable for tests and single-process embedding.
func NewMemoryStore() *memory.Store {
	return memory.New()
}

// DefaultCatalog returns the built-in capability and maneuver catalog.
func DefaultCatalog() *catalog.Catalog {
	return catalog.Default()
}
