// Package catalog defines the fixed capability tech tree and maneuver
// templates a workspace is seeded with. Catalogs are authored in YAML (a
// built-in default ships with the product) and validated at load time:
// traversal code downstream assumes parent references resolve and the parent
// graph is acyclic, so both are enforced here, at authoring time.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warplanhq/warplan/internal/types"
)

// Catalog is the authored tech tree: capability nodes in catalog order,
// maneuver templates, and the maneuver -> capability prerequisite relation.
type Catalog struct {
	Nodes     []*types.CapabilityNode `yaml:"nodes"`
	Maneuvers []*types.ManeuverType   `yaml:"maneuvers"`

	// Prerequisites maps maneuver type id to the capability node ids that
	// must be unlocked before the maneuver may be used.
	Prerequisites map[string][]string `yaml:"prerequisites"`
}

// Load reads and validates a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) applyDefaults() {
	for i, n := range c.Nodes {
		n.SetDefaults()
		if n.CatalogOrder == 0 {
			n.CatalogOrder = i
		}
	}
}

// Validate rejects catalogs the graph code cannot traverse safely: duplicate
// or dangling ids, self references, and cycles in the parent graph. Cycle
// rejection happens here rather than in traversal so a bad catalog fails
// loudly at authoring time instead of silently never unlocking.
func (c *Catalog) Validate() error {
	nodeIDs := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("node %s: %w", n.ID, err)
		}
		if nodeIDs[n.ID] {
			return fmt.Errorf("duplicate node id %s", n.ID)
		}
		nodeIDs[n.ID] = true
	}
	for _, n := range c.Nodes {
		for _, parent := range n.ParentNodeIDs {
			if !nodeIDs[parent] {
				return fmt.Errorf("node %s references unknown parent %s", n.ID, parent)
			}
		}
	}

	maneuverIDs := make(map[string]bool, len(c.Maneuvers))
	for _, m := range c.Maneuvers {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("maneuver %s: %w", m.ID, err)
		}
		if maneuverIDs[m.ID] {
			return fmt.Errorf("duplicate maneuver id %s", m.ID)
		}
		maneuverIDs[m.ID] = true
	}
	for maneuverID, prereqs := range c.Prerequisites {
		if !maneuverIDs[maneuverID] {
			return fmt.Errorf("prerequisites reference unknown maneuver %s", maneuverID)
		}
		for _, nodeID := range prereqs {
			if !nodeIDs[nodeID] {
				return fmt.Errorf("maneuver %s requires unknown capability %s", maneuverID, nodeID)
			}
		}
	}

	return c.checkAcyclic()
}

// checkAcyclic walks the parent graph with three-color marking.
func (c *Catalog) checkAcyclic() error {
	byID := make(map[string]*types.CapabilityNode, len(c.Nodes))
	for _, n := range c.Nodes {
		byID[n.ID] = n
	}

	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(c.Nodes))

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case gray:
			return fmt.Errorf("capability dependency cycle through %s", id)
		case black:
			return nil
		}
		color[id] = gray
		for _, parent := range byID[id].ParentNodeIDs {
			if err := visit(parent); err != nil {
				return err
			}
		}
		color[id] = black
		return nil
	}

	for _, n := range c.Nodes {
		if err := visit(n.ID); err != nil {
			return err
		}
	}
	return nil
}

// NodesForWorkspace instantiates the catalog's nodes for one workspace, all
// starting Locked.
func (c *Catalog) NodesForWorkspace(workspaceID string) []*types.CapabilityNode {
	nodes := make([]*types.CapabilityNode, len(c.Nodes))
	for i, n := range c.Nodes {
		cp := *n
		cp.WorkspaceID = workspaceID
		cp.Status = types.NodeLocked
		nodes[i] = &cp
	}
	return nodes
}

// IntensityIndex returns maneuver id -> intensity score for the capacity
// ledger, omitting unscored maneuvers.
func (c *Catalog) IntensityIndex() map[string]int {
	idx := make(map[string]int, len(c.Maneuvers))
	for _, m := range c.Maneuvers {
		if m.IntensityScore > 0 {
			idx[m.ID] = m.IntensityScore
		}
	}
	return idx
}
