// Package types defines core data structures for the warplan campaign
// orchestration engine: capability nodes (the tech tree), maneuver templates,
// moves, sprints, and anomalies.
package types

import (
	"fmt"
	"time"
)

// Tier orders capability nodes into unlock stages. Lower tiers unlock first.
type Tier string

// Capability tier constants, ordered Foundation < Traction < Scale < Dominance.
const (
	TierFoundation Tier = "foundation"
	TierTraction   Tier = "traction"
	TierScale      Tier = "scale"
	TierDominance  Tier = "dominance"
)

// tierRanks maps each tier to its position in the unlock order.
var tierRanks = map[Tier]int{
	TierFoundation: 0,
	TierTraction:   1,
	TierScale:      2,
	TierDominance:  3,
}

// Rank returns the tier's position in the unlock order (Foundation=0).
// Unknown tiers sort last.
func (t Tier) Rank() int {
	if r, ok := tierRanks[t]; ok {
		return r
	}
	return len(tierRanks)
}

// IsValid checks if the tier value is one of the four defined tiers.
func (t Tier) IsValid() bool {
	_, ok := tierRanks[t]
	return ok
}

// NodeStatus represents the unlock state of a capability node.
type NodeStatus string

// Capability node status constants
const (
	NodeLocked     NodeStatus = "locked"
	NodeInProgress NodeStatus = "in_progress"
	NodeUnlocked   NodeStatus = "unlocked"
)

// IsValid checks if the node status value is valid.
func (s NodeStatus) IsValid() bool {
	switch s {
	case NodeLocked, NodeInProgress, NodeUnlocked:
		return true
	}
	return false
}

// CapabilityNode is one vertex of a workspace's capability tech tree.
// Nodes are created from a fixed catalog during workspace setup and are
// never deleted; only their status changes via explicit unlock transitions.
type CapabilityNode struct {
	ID          string     `json:"id" yaml:"id"`
	WorkspaceID string     `json:"workspace_id" yaml:"workspace_id"`
	Name        string     `json:"name" yaml:"name"`
	Tier        Tier       `json:"tier" yaml:"tier"`
	Status      NodeStatus `json:"status,omitempty" yaml:"status,omitempty"`

	// ParentNodeIDs are the capabilities this node depends on. A node may
	// unlock only once every parent is unlocked.
	ParentNodeIDs []string `json:"parent_node_ids,omitempty" yaml:"parents,omitempty"`

	// UnlocksManeuverIDs are the maneuver templates this node enables.
	UnlocksManeuverIDs []string `json:"unlocks_maneuver_ids,omitempty" yaml:"unlocks,omitempty"`

	// CatalogOrder preserves authoring order from the capability catalog.
	// It is the tie-break when recommending the next node within a tier.
	CatalogOrder int `json:"catalog_order" yaml:"catalog_order"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Validate checks if the node has valid field values.
func (n *CapabilityNode) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("node id is required")
	}
	if n.Name == "" {
		return fmt.Errorf("node name is required")
	}
	if !n.Tier.IsValid() {
		return fmt.Errorf("invalid tier: %s", n.Tier)
	}
	if !n.Status.IsValid() {
		return fmt.Errorf("invalid node status: %s", n.Status)
	}
	for _, parent := range n.ParentNodeIDs {
		if parent == n.ID {
			return fmt.Errorf("node %s cannot depend on itself", n.ID)
		}
	}
	return nil
}

// SetDefaults applies default values for fields omitted during catalog import.
func (n *CapabilityNode) SetDefaults() {
	if n.Status == "" {
		n.Status = NodeLocked
	}
}

// ManeuverType is an immutable template describing a category of move.
// Prerequisite capabilities live in a separate relation (see
// storage.CapabilityStore.GetPrerequisites), not on the template itself.
type ManeuverType struct {
	ID               string `json:"id" yaml:"id"`
	Name             string `json:"name" yaml:"name"`
	Category         string `json:"category" yaml:"category"`
	BaseDurationDays int    `json:"base_duration_days" yaml:"base_duration_days"`

	// IntensityScore is the capacity load one move of this type places on a
	// sprint. Zero means "not scored"; the capacity ledger falls back to
	// counting moves when intensity data is missing.
	IntensityScore int `json:"intensity_score" yaml:"intensity_score"`
}

// Validate checks if the maneuver template has valid field values.
func (m *ManeuverType) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("maneuver id is required")
	}
	if m.Name == "" {
		return fmt.Errorf("maneuver name is required")
	}
	if m.BaseDurationDays < 0 {
		return fmt.Errorf("base duration cannot be negative")
	}
	if m.IntensityScore < 0 {
		return fmt.Errorf("intensity score cannot be negative")
	}
	return nil
}

// MoveStatus represents the lifecycle phase of a move.
type MoveStatus string

// Move status constants. The OODA phases progress linearly; Complete and
// Killed are terminal.
const (
	MovePlanning MoveStatus = "planning"
	MoveObserve  MoveStatus = "ooda_observe"
	MoveOrient   MoveStatus = "ooda_orient"
	MoveDecide   MoveStatus = "ooda_decide"
	MoveAct      MoveStatus = "ooda_act"
	MoveComplete MoveStatus = "complete"
	MoveKilled   MoveStatus = "killed"
)

// IsValid checks if the move status value is valid.
func (s MoveStatus) IsValid() bool {
	switch s {
	case MovePlanning, MoveObserve, MoveOrient, MoveDecide, MoveAct, MoveComplete, MoveKilled:
		return true
	}
	return false
}

// IsTerminal returns true for the two end states, Complete and Killed.
func (s MoveStatus) IsTerminal() bool {
	return s == MoveComplete || s == MoveKilled
}

// IsOODA returns true if the status is one of the four active OODA phases.
func (s MoveStatus) IsOODA() bool {
	switch s {
	case MoveObserve, MoveOrient, MoveDecide, MoveAct:
		return true
	}
	return false
}

// Phase returns the human-readable phase name ("Observe", "Act", ...).
func (s MoveStatus) Phase() string {
	switch s {
	case MovePlanning:
		return "Planning"
	case MoveObserve:
		return "Observe"
	case MoveOrient:
		return "Orient"
	case MoveDecide:
		return "Decide"
	case MoveAct:
		return "Act"
	case MoveComplete:
		return "Complete"
	case MoveKilled:
		return "Killed"
	}
	return string(s)
}

// HealthStatus is the advisory traffic-light rating of a move. It is derived
// by the health engine and recomputed on demand; it is never the source of
// truth for anything else.
type HealthStatus string

// Health status constants
const (
	HealthGreen HealthStatus = "green"
	HealthAmber HealthStatus = "amber"
	HealthRed   HealthStatus = "red"
)

// IsValid checks if the health status value is valid.
func (h HealthStatus) IsValid() bool {
	switch h {
	case HealthGreen, HealthAmber, HealthRed:
		return true
	}
	return false
}

// OODAConfig declares how a move observes its environment. A move must name
// at least one observation source before it leaves Planning.
type OODAConfig struct {
	ObserveSources []string `json:"observe_sources,omitempty" yaml:"observe_sources,omitempty"`

	// TargetTone is the intended voice of the move's content, matched by the
	// tone-clash detector ("professional", "casual", "playful", ...).
	TargetTone string `json:"target_tone,omitempty" yaml:"target_tone,omitempty"`
}

// Move is an instantiated campaign maneuver owned by a workspace and
// optionally assigned to a sprint.
type Move struct {
	ID             string     `json:"id" yaml:"id"`
	WorkspaceID    string     `json:"workspace_id" yaml:"workspace_id"`
	ManeuverTypeID string     `json:"maneuver_type_id" yaml:"maneuver_type_id"`
	SprintID       string     `json:"sprint_id,omitempty" yaml:"sprint_id,omitempty"`
	Title          string     `json:"title" yaml:"title"`
	Status         MoveStatus `json:"status,omitempty" yaml:"status,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`

	// ProgressPct is 0-100 and monotonic non-decreasing while the move is
	// not Killed.
	ProgressPct int `json:"progress_pct" yaml:"progress_pct"`

	// Health is advisory, written back by the health engine.
	Health HealthStatus `json:"health,omitempty" yaml:"health,omitempty"`

	OODA OODAConfig `json:"ooda,omitempty" yaml:"ooda,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Validate checks if the move has valid field values.
func (m *Move) Validate() error {
	if m.Title == "" {
		return fmt.Errorf("title is required")
	}
	if m.ManeuverTypeID == "" {
		return fmt.Errorf("maneuver type is required")
	}
	if !m.Status.IsValid() {
		return fmt.Errorf("invalid move status: %s", m.Status)
	}
	if m.ProgressPct < 0 || m.ProgressPct > 100 {
		return fmt.Errorf("progress must be between 0 and 100 (got %d)", m.ProgressPct)
	}
	if m.Health != "" && !m.Health.IsValid() {
		return fmt.Errorf("invalid health status: %s", m.Health)
	}
	if m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate) {
		return fmt.Errorf("end date cannot precede start date")
	}
	// A move past Planning must declare what it is observing.
	if m.Status != MovePlanning && !m.Status.IsTerminal() && len(m.OODA.ObserveSources) == 0 {
		return fmt.Errorf("moves past planning must declare at least one observe source")
	}
	return nil
}

// SetDefaults applies default values for fields omitted during import.
func (m *Move) SetDefaults() {
	if m.Status == "" {
		m.Status = MovePlanning
	}
	if m.Health == "" {
		m.Health = HealthGreen
	}
}

// IsActive returns true if the move counts against sprint capacity and
// workspace portfolio limits: any status except Complete and Killed.
func (m *Move) IsActive() bool {
	return !m.Status.IsTerminal()
}

// SprintStatus represents the lifecycle of a sprint container.
type SprintStatus string

// Sprint status constants
const (
	SprintPlanning SprintStatus = "planning"
	SprintActive   SprintStatus = "active"
	SprintReview   SprintStatus = "review"
	SprintComplete SprintStatus = "complete"
)

// IsValid checks if the sprint status value is valid.
func (s SprintStatus) IsValid() bool {
	switch s {
	case SprintPlanning, SprintActive, SprintReview, SprintComplete:
		return true
	}
	return false
}

// Sprint is a time-boxed capacity container. CurrentLoad is always the sum
// of intensity scores of its non-Killed member moves; it is recomputed by
// the capacity ledger, never hand-edited.
type Sprint struct {
	ID          string       `json:"id" yaml:"id"`
	WorkspaceID string       `json:"workspace_id" yaml:"workspace_id"`
	Name        string       `json:"name" yaml:"name"`
	Status      SprintStatus `json:"status,omitempty" yaml:"status,omitempty"`

	CapacityBudget int `json:"capacity_budget" yaml:"capacity_budget"`
	CurrentLoad    int `json:"current_load" yaml:"current_load"`

	StartDate time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   time.Time `json:"end_date,omitempty" yaml:"end_date,omitempty"`

	// Version supports optimistic-concurrency writes of CurrentLoad: reads
	// return the current version, conditional writes fail on mismatch.
	Version int64 `json:"version,omitempty" yaml:"version,omitempty"`
}

// Validate checks if the sprint has valid field values.
func (s *Sprint) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("sprint id is required")
	}
	if !s.Status.IsValid() {
		return fmt.Errorf("invalid sprint status: %s", s.Status)
	}
	if s.CapacityBudget < 0 {
		return fmt.Errorf("capacity budget cannot be negative")
	}
	if s.CurrentLoad < 0 {
		return fmt.Errorf("current load cannot be negative")
	}
	return nil
}

// SetDefaults applies default values for fields omitted during import.
func (s *Sprint) SetDefaults() {
	if s.Status == "" {
		s.Status = SprintPlanning
	}
}
