package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/warplanhq/warplan/internal/techtree"
	"github.com/warplanhq/warplan/internal/types"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default catalog must validate: %v", err)
	}
	if len(c.Nodes) == 0 || len(c.Maneuvers) == 0 {
		t.Fatal("default catalog must not be empty")
	}

	// Every tier is represented.
	tiers := make(map[types.Tier]bool)
	for _, n := range c.Nodes {
		tiers[n.Tier] = true
	}
	for _, tier := range []types.Tier{types.TierFoundation, types.TierTraction, types.TierScale, types.TierDominance} {
		if !tiers[tier] {
			t.Errorf("tier %s missing from default catalog", tier)
		}
	}
}

func TestDefaultCatalogIsFullyUnlockable(t *testing.T) {
	// Unlock in recommended order; every node must eventually unlock.
	c := Default()
	g := techtree.New()
	nodes := c.NodesForWorkspace("ws-1")

	for range nodes {
		next := g.NextRecommended(nodes)
		if next == nil {
			break
		}
		next.Status = types.NodeUnlocked
	}
	for _, n := range nodes {
		if n.Status != types.NodeUnlocked {
			t.Errorf("node %s never became unlockable", n.ID)
		}
	}
}

func TestNodesForWorkspace(t *testing.T) {
	c := Default()
	nodes := c.NodesForWorkspace("ws-42")
	for _, n := range nodes {
		if n.WorkspaceID != "ws-42" {
			t.Errorf("node %s workspace = %q", n.ID, n.WorkspaceID)
		}
		if n.Status != types.NodeLocked {
			t.Errorf("node %s must start locked", n.ID)
		}
	}
	// The catalog's own nodes stay untouched.
	if c.Nodes[0].WorkspaceID != "" {
		t.Error("instantiation must not mutate the catalog")
	}
}

func TestValidateRejectsDanglingParent(t *testing.T) {
	c := &Catalog{
		Nodes: []*types.CapabilityNode{
			{ID: "a", Name: "A", Tier: types.TierFoundation, Status: types.NodeLocked, ParentNodeIDs: []string{"ghost"}},
		},
	}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown parent") {
		t.Errorf("err = %v, want unknown parent", err)
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	c := &Catalog{
		Nodes: []*types.CapabilityNode{
			{ID: "a", Name: "A", Tier: types.TierFoundation, Status: types.NodeLocked, ParentNodeIDs: []string{"b"}},
			{ID: "b", Name: "B", Tier: types.TierFoundation, Status: types.NodeLocked, ParentNodeIDs: []string{"a"}},
		},
	}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("err = %v, want cycle", err)
	}
}

func TestValidateRejectsUnknownPrerequisite(t *testing.T) {
	c := &Catalog{
		Nodes: []*types.CapabilityNode{
			{ID: "a", Name: "A", Tier: types.TierFoundation, Status: types.NodeLocked},
		},
		Maneuvers: []*types.ManeuverType{
			{ID: "m", Name: "M"},
		},
		Prerequisites: map[string][]string{"m": {"ghost"}},
	}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown capability") {
		t.Errorf("err = %v, want unknown capability", err)
	}
}

func TestLoadYAML(t *testing.T) {
	data := `
nodes:
  - id: positioning
    name: Positioning
    tier: foundation
  - id: content-engine
    name: Content Engine
    tier: traction
    parents: [positioning]
maneuvers:
  - id: launch-blitz
    name: Launch Blitz
    category: awareness
    base_duration_days: 21
    intensity_score: 5
prerequisites:
  launch-blitz: [positioning]
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(c.Nodes))
	}
	if c.Nodes[0].Status != types.NodeLocked {
		t.Error("loaded nodes must default to locked")
	}
	if c.Nodes[1].CatalogOrder != 1 {
		t.Errorf("catalog order = %d, want 1", c.Nodes[1].CatalogOrder)
	}
	if got := c.IntensityIndex()["launch-blitz"]; got != 5 {
		t.Errorf("intensity = %d, want 5", got)
	}
}

func TestLoadRejectsInvalidCatalog(t *testing.T) {
	data := `
nodes:
  - id: a
    name: A
    tier: foundation
    parents: [b]
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("invalid catalog must fail to load")
	}
}
