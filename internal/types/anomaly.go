package types

import (
	"fmt"
	"time"
)

// AnomalyType classifies a detected issue.
type AnomalyType string

// Anomaly type constants
const (
	AnomalyToneClash        AnomalyType = "tone_clash"
	AnomalyFatigue          AnomalyType = "fatigue"
	AnomalyDrift            AnomalyType = "drift"
	AnomalyRuleViolation    AnomalyType = "rule_violation"
	AnomalyCapacityOverload AnomalyType = "capacity_overload"
)

// IsValid checks if the anomaly type value is valid.
func (t AnomalyType) IsValid() bool {
	switch t {
	case AnomalyToneClash, AnomalyFatigue, AnomalyDrift, AnomalyRuleViolation, AnomalyCapacityOverload:
		return true
	}
	return false
}

// AnomalyStatus represents the resolution state of an anomaly.
type AnomalyStatus string

// Anomaly status constants
const (
	AnomalyOpen     AnomalyStatus = "open"
	AnomalyResolved AnomalyStatus = "resolved"
)

// IsValid checks if the anomaly status value is valid.
func (s AnomalyStatus) IsValid() bool {
	return s == AnomalyOpen || s == AnomalyResolved
}

// Anomaly is a detected issue on one move, or on the whole workspace when
// MoveID is empty (capacity overload is workspace-scoped). Anomalies are
// created by the health engine and resolved by operator action.
type Anomaly struct {
	ID          string      `json:"id" yaml:"id"`
	WorkspaceID string      `json:"workspace_id" yaml:"workspace_id"`
	Type        AnomalyType `json:"type" yaml:"type"`

	// Severity is 1 (informational) through 5 (critical).
	Severity int `json:"severity" yaml:"severity"`

	// MoveID is empty for workspace-scoped anomalies.
	MoveID string `json:"move_id,omitempty" yaml:"move_id,omitempty"`

	Message string        `json:"message" yaml:"message"`
	Status  AnomalyStatus `json:"status,omitempty" yaml:"status,omitempty"`

	DetectedAt time.Time  `json:"detected_at,omitempty" yaml:"detected_at,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" yaml:"resolved_at,omitempty"`
}

// Validate checks if the anomaly has valid field values.
func (a *Anomaly) Validate() error {
	if !a.Type.IsValid() {
		return fmt.Errorf("invalid anomaly type: %s", a.Type)
	}
	if a.Severity < 1 || a.Severity > 5 {
		return fmt.Errorf("severity must be between 1 and 5 (got %d)", a.Severity)
	}
	if a.Status != "" && !a.Status.IsValid() {
		return fmt.Errorf("invalid anomaly status: %s", a.Status)
	}
	if a.Status == AnomalyResolved && a.ResolvedAt == nil {
		return fmt.Errorf("resolved anomalies must have resolved_at timestamp")
	}
	if a.Status != AnomalyResolved && a.ResolvedAt != nil {
		return fmt.Errorf("open anomalies cannot have resolved_at timestamp")
	}
	return nil
}

// SetDefaults applies default values for fields omitted during import.
func (a *Anomaly) SetDefaults() {
	if a.Status == "" {
		a.Status = AnomalyOpen
	}
}

// IsWorkspaceScoped returns true if the anomaly has no affected move.
func (a *Anomaly) IsWorkspaceScoped() bool {
	return a.MoveID == ""
}
