// Package snapshot reads a workspace snapshot file: the YAML dump of one
// workspace's nodes, sprints, moves, metric series, and open anomalies that
// the wp CLI operates on in place of the hosted store.
package snapshot

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warplanhq/warplan/internal/catalog"
	"github.com/warplanhq/warplan/internal/storage"
	"github.com/warplanhq/warplan/internal/storage/memory"
	"github.com/warplanhq/warplan/internal/types"
)

// Snapshot is the on-disk workspace dump.
type Snapshot struct {
	WorkspaceID string `yaml:"workspace_id"`

	// CatalogPath optionally points at a catalog YAML; empty means the
	// built-in default catalog.
	CatalogPath string `yaml:"catalog,omitempty"`

	Nodes     []*types.CapabilityNode         `yaml:"nodes,omitempty"`
	Sprints   []*types.Sprint                 `yaml:"sprints,omitempty"`
	Moves     []*types.Move                   `yaml:"moves,omitempty"`
	Anomalies []*types.Anomaly                `yaml:"anomalies,omitempty"`
	Metrics   map[string][]types.MetricPoint  `yaml:"metrics,omitempty"` // move id -> series
}

// Load parses and validates a snapshot file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.WorkspaceID == "" {
		return nil, fmt.Errorf("snapshot missing workspace_id")
	}
	for _, m := range snap.Moves {
		m.SetDefaults()
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("move %s: %w", m.ID, err)
		}
	}
	for _, s := range snap.Sprints {
		s.SetDefaults()
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("sprint %s: %w", s.ID, err)
		}
	}
	for _, a := range snap.Anomalies {
		a.SetDefaults()
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("anomaly %s: %w", a.ID, err)
		}
	}
	return &snap, nil
}

// Open loads a snapshot plus its catalog and materializes both into an
// in-memory store. Snapshot nodes override catalog seeds, so a dump that
// carries unlock state wins over the fresh-workspace default.
func Open(path string) (*memory.Store, *catalog.Catalog, *Snapshot, error) {
	snap, err := Load(path)
	if err != nil {
		return nil, nil, nil, err
	}

	cat := catalog.Default()
	if snap.CatalogPath != "" {
		cat, err = catalog.Load(snap.CatalogPath)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	store := memory.New()
	for _, n := range cat.NodesForWorkspace(snap.WorkspaceID) {
		store.PutNode(n)
	}
	for _, n := range snap.Nodes {
		n.SetDefaults()
		if n.WorkspaceID == "" {
			n.WorkspaceID = snap.WorkspaceID
		}
		store.PutNode(n)
	}
	for _, m := range cat.Maneuvers {
		store.PutManeuver(m, cat.Prerequisites[m.ID])
	}
	for _, s := range snap.Sprints {
		if s.WorkspaceID == "" {
			s.WorkspaceID = snap.WorkspaceID
		}
		store.PutSprint(s)
	}
	ctx := context.Background()
	for _, m := range snap.Moves {
		if m.WorkspaceID == "" {
			m.WorkspaceID = snap.WorkspaceID
		}
		if err := store.CreateMove(ctx, m); err != nil {
			return nil, nil, nil, err
		}
	}
	for _, a := range snap.Anomalies {
		if a.WorkspaceID == "" {
			a.WorkspaceID = snap.WorkspaceID
		}
		if err := store.CreateAnomaly(ctx, a); err != nil {
			return nil, nil, nil, err
		}
	}
	for moveID, points := range snap.Metrics {
		series := make([]*types.MetricPoint, len(points))
		for i := range points {
			series[i] = &points[i]
		}
		store.PutSeries(moveID, series)
	}
	return store, cat, snap, nil
}

// Save writes the store's current state back to a snapshot file. Metric
// series are carried over from the loaded snapshot unchanged; the planning
// commands never touch them. Only open anomalies survive a round trip.
func Save(path string, snap *Snapshot, store *memory.Store) error {
	ctx := context.Background()
	out := Snapshot{
		WorkspaceID: snap.WorkspaceID,
		CatalogPath: snap.CatalogPath,
		Metrics:     snap.Metrics,
	}
	var err error
	if out.Nodes, err = store.ListNodes(ctx, snap.WorkspaceID); err != nil {
		return err
	}
	if out.Sprints, err = store.ListSprints(ctx, snap.WorkspaceID); err != nil {
		return err
	}
	if out.Moves, err = store.ListMoves(ctx, snap.WorkspaceID, storage.MoveFilter{}); err != nil {
		return err
	}
	if out.Anomalies, err = store.ListOpenForWorkspace(ctx, snap.WorkspaceID); err != nil {
		return err
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
