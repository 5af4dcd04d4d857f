package types

import "time"

// MetricPoint is one daily performance snapshot for a move. The schema is
// fixed: every field is numeric and defaults to 0, so the scoring formulas
// are defined for all inputs. Series are ordered by date ascending.
type MetricPoint struct {
	Date           time.Time `json:"date" yaml:"date"`
	Impressions    float64   `json:"impressions" yaml:"impressions"`
	CTR            float64   `json:"ctr" yaml:"ctr"`
	EngagementRate float64   `json:"engagement_rate" yaml:"engagement_rate"`
	ConversionRate float64   `json:"conversion_rate" yaml:"conversion_rate"`
}

// HealthFactor is one weighted component of a move's health score.
type HealthFactor struct {
	Name   string       `json:"name" yaml:"name"`
	Weight float64      `json:"weight" yaml:"weight"`
	Value  float64      `json:"value" yaml:"value"`
	Status HealthStatus `json:"status" yaml:"status"`
}

// Health factor names
const (
	FactorSchedule    = "schedule"
	FactorPerformance = "performance"
	FactorAnomalies   = "anomalies"
	FactorOODA        = "ooda_progress"
)

// HealthReport is the result of scoring one move: an overall 0-100 score,
// a traffic-light status, and the per-factor breakdown. Reports are advisory
// and recomputed on demand.
type HealthReport struct {
	MoveID      string         `json:"move_id" yaml:"move_id"`
	Score       int            `json:"score" yaml:"score"`
	Status      HealthStatus   `json:"status" yaml:"status"`
	Factors     []HealthFactor `json:"factors" yaml:"factors"`
	EvaluatedAt time.Time      `json:"evaluated_at" yaml:"evaluated_at"`
}

// Factor returns the named factor, or nil if the report does not carry it.
func (r *HealthReport) Factor(name string) *HealthFactor {
	for i := range r.Factors {
		if r.Factors[i].Name == name {
			return &r.Factors[i]
		}
	}
	return nil
}
