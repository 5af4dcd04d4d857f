// Package techtree provides the capability dependency graph that gates which
// maneuver types a workspace may use. All functions are pure queries over a
// snapshot of the workspace's nodes; unlock transitions are executed by the
// persistence collaborator after this package decides eligibility.
package techtree

import (
	"sort"

	"github.com/warplanhq/warplan/internal/types"
)

// Graph evaluates unlockability over capability node snapshots. It holds no
// mutable state; construct one per consumer and share freely.
type Graph struct{}

// New returns a capability graph evaluator.
func New() *Graph {
	return &Graph{}
}

// indexByID builds an id lookup over a node snapshot.
func indexByID(nodes []*types.CapabilityNode) map[string]*types.CapabilityNode {
	byID := make(map[string]*types.CapabilityNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return byID
}

// CanUnlock reports whether node is eligible to transition to Unlocked given
// the supplied snapshot. Already-unlocked nodes are not eligible. A parent id
// that does not resolve within the snapshot counts as "not satisfied" -- the
// graph never unlocks on missing data.
func (g *Graph) CanUnlock(node *types.CapabilityNode, all []*types.CapabilityNode) bool {
	return g.canUnlock(node, indexByID(all))
}

func (g *Graph) canUnlock(node *types.CapabilityNode, byID map[string]*types.CapabilityNode) bool {
	if node.Status == types.NodeUnlocked {
		return false
	}
	for _, parentID := range node.ParentNodeIDs {
		parent, ok := byID[parentID]
		if !ok || parent.Status != types.NodeUnlocked {
			return false
		}
	}
	return true
}

// Unlockable returns every node in the snapshot eligible to unlock right now.
func (g *Graph) Unlockable(all []*types.CapabilityNode) []*types.CapabilityNode {
	byID := indexByID(all)
	var eligible []*types.CapabilityNode
	for _, n := range all {
		if g.canUnlock(n, byID) {
			eligible = append(eligible, n)
		}
	}
	return eligible
}

// NextRecommended picks the unlockable node the workspace should pursue
// next: lowest tier first (Foundation before Traction before Scale before
// Dominance), catalog order as the tie-break. Returns nil when nothing is
// unlockable.
func (g *Graph) NextRecommended(all []*types.CapabilityNode) *types.CapabilityNode {
	eligible := g.Unlockable(all)
	if len(eligible) == 0 {
		return nil
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Tier.Rank() != eligible[j].Tier.Rank() {
			return eligible[i].Tier.Rank() < eligible[j].Tier.Rank()
		}
		return eligible[i].CatalogOrder < eligible[j].CatalogOrder
	})
	return eligible[0]
}

// DependencyChain returns node's ancestors in unlock order, ending with node
// itself: a post-order depth-first walk over ParentNodeIDs with each node
// visited at most once. Parent ids missing from the snapshot are skipped.
// The walk assumes an acyclic parent graph; the visited set guards against
// infinite recursion but cycles are rejected at catalog-authoring time, not
// here (see catalog.Validate).
func (g *Graph) DependencyChain(node *types.CapabilityNode, all []*types.CapabilityNode) []*types.CapabilityNode {
	byID := indexByID(all)
	visited := make(map[string]bool)
	var chain []*types.CapabilityNode

	var walk func(n *types.CapabilityNode)
	walk = func(n *types.CapabilityNode) {
		if visited[n.ID] {
			return
		}
		visited[n.ID] = true
		for _, parentID := range n.ParentNodeIDs {
			if parent, ok := byID[parentID]; ok {
				walk(parent)
			}
		}
		chain = append(chain, n)
	}
	walk(node)
	return chain
}

// IsManeuverUnlocked reports whether a maneuver type is available: true when
// it has no prerequisite capabilities, otherwise true iff every prerequisite
// id resolves to an Unlocked node in the snapshot.
func (g *Graph) IsManeuverUnlocked(maneuverTypeID string, all []*types.CapabilityNode, prereqs map[string][]string) bool {
	required := prereqs[maneuverTypeID]
	if len(required) == 0 {
		return true
	}
	byID := indexByID(all)
	for _, id := range required {
		node, ok := byID[id]
		if !ok || node.Status != types.NodeUnlocked {
			return false
		}
	}
	return true
}

// LockedManeuvers returns, for every maneuver with at least one unsatisfied
// prerequisite, the capability nodes still standing in the way. Maneuvers
// whose prerequisites are all unlocked do not appear in the result. A
// prerequisite id missing from the snapshot yields a placeholder locked node
// so the gap is visible rather than silently dropped.
func (g *Graph) LockedManeuvers(all []*types.CapabilityNode, prereqs map[string][]string) map[string][]*types.CapabilityNode {
	byID := indexByID(all)
	locked := make(map[string][]*types.CapabilityNode)
	for maneuverID, required := range prereqs {
		var missing []*types.CapabilityNode
		for _, id := range required {
			node, ok := byID[id]
			if !ok {
				missing = append(missing, &types.CapabilityNode{ID: id, Name: id, Status: types.NodeLocked})
				continue
			}
			if node.Status != types.NodeUnlocked {
				missing = append(missing, node)
			}
		}
		if len(missing) > 0 {
			locked[maneuverID] = missing
		}
	}
	return locked
}

// TierProgress summarizes unlock progress within one tier.
type TierProgress struct {
	Tier       types.Tier
	Total      int
	Unlocked   int
	InProgress int
}

// Progress returns per-tier unlock counts in tier order, for the tree view.
func (g *Graph) Progress(all []*types.CapabilityNode) []TierProgress {
	byTier := make(map[types.Tier]*TierProgress)
	for _, n := range all {
		p, ok := byTier[n.Tier]
		if !ok {
			p = &TierProgress{Tier: n.Tier}
			byTier[n.Tier] = p
		}
		p.Total++
		switch n.Status {
		case types.NodeUnlocked:
			p.Unlocked++
		case types.NodeInProgress:
			p.InProgress++
		}
	}
	progress := make([]TierProgress, 0, len(byTier))
	for _, p := range byTier {
		progress = append(progress, *p)
	}
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].Tier.Rank() < progress[j].Tier.Rank()
	})
	return progress
}
