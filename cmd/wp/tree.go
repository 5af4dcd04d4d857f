package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/warplanhq/warplan/internal/types"
	"github.com/warplanhq/warplan/internal/ui"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the capability tree with unlock state",
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		nodes, err := store.ListNodes(rootCtx, snap.WorkspaceID)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		if jsonOutput {
			outputJSON(nodes)
			return
		}

		fmt.Println(ui.HeaderStyle.Render("Capability tree: " + snap.WorkspaceID))
		for _, tierProgress := range o.Graph().Progress(nodes) {
			fmt.Printf("\n%s (%d/%d unlocked)\n",
				ui.AccentStyle.Render(string(tierProgress.Tier)),
				tierProgress.Unlocked, tierProgress.Total)
			tierNodes := nodesInTier(nodes, tierProgress.Tier)
			for _, n := range tierNodes {
				fmt.Printf("  %s %s", nodeIcon(n), n.Name)
				if len(n.ParentNodeIDs) > 0 && n.Status == types.NodeLocked {
					fmt.Printf(" %s", ui.MutedStyle.Render(fmt.Sprintf("(needs %v)", n.ParentNodeIDs)))
				}
				fmt.Println()
			}
		}
		fmt.Println()
	},
}

func nodesInTier(nodes []*types.CapabilityNode, tier types.Tier) []*types.CapabilityNode {
	var out []*types.CapabilityNode
	for _, n := range nodes {
		if n.Tier == tier {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CatalogOrder < out[j].CatalogOrder })
	return out
}

func nodeIcon(n *types.CapabilityNode) string {
	switch n.Status {
	case types.NodeUnlocked:
		return ui.GreenStyle.Render(ui.IconUnlocked)
	case types.NodeInProgress:
		return ui.AmberStyle.Render(ui.IconInProgress)
	}
	return ui.IconLocked
}

var treeNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Recommend the next capability to pursue",
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		nodes, err := store.ListNodes(rootCtx, snap.WorkspaceID)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		next := o.Graph().NextRecommended(nodes)
		if next == nil {
			if jsonOutput {
				outputJSON(nil)
				return
			}
			fmt.Println(ui.MutedStyle.Render("Nothing unlockable right now."))
			return
		}
		if jsonOutput {
			outputJSON(next)
			return
		}
		fmt.Printf("Next: %s %s\n",
			ui.AccentStyle.Render(next.Name),
			ui.MutedStyle.Render(fmt.Sprintf("(%s tier)", next.Tier)))
	},
}

var treeChainCmd = &cobra.Command{
	Use:   "chain <node-id>",
	Short: "Show the prerequisite chain leading to a capability",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		nodes, err := store.ListNodes(rootCtx, snap.WorkspaceID)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		var target *types.CapabilityNode
		for _, n := range nodes {
			if n.ID == args[0] {
				target = n
				break
			}
		}
		if target == nil {
			fmt.Fprintf(os.Stderr, "Error: unknown node %s\n", args[0])
			os.Exit(1)
		}
		chain := o.Graph().DependencyChain(target, nodes)
		if jsonOutput {
			outputJSON(chain)
			return
		}
		for i, n := range chain {
			fmt.Printf("%d. %s %s\n", i+1, nodeIcon(n), n.Name)
		}
	},
}

var treeUnlockCmd = &cobra.Command{
	Use:   "unlock <node-id>",
	Short: "Unlock an eligible capability node",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		if err := o.UnlockNode(rootCtx, snap.WorkspaceID, args[0]); err != nil {
			fatalf("Error: %v\n", err)
		}
		saveWorkspace(snap, store)
		fmt.Printf("%s Unlocked %s\n", ui.GreenStyle.Render(ui.IconUnlocked), args[0])
	},
}

var treeStartCmd = &cobra.Command{
	Use:   "start <node-id>",
	Short: "Mark a capability node in progress",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		if err := o.StartNode(rootCtx, snap.WorkspaceID, args[0]); err != nil {
			fatalf("Error: %v\n", err)
		}
		saveWorkspace(snap, store)
		fmt.Printf("%s Started %s\n", ui.AmberStyle.Render(ui.IconInProgress), args[0])
	},
}

var maneuversCmd = &cobra.Command{
	Use:   "maneuvers",
	Short: "List maneuver types and their availability",
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		nodes, err := store.ListNodes(rootCtx, snap.WorkspaceID)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		all, err := store.ListManeuverTypes(rootCtx)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		prereqs := store.AllPrerequisites()
		locked := o.Graph().LockedManeuvers(nodes, prereqs)

		if jsonOutput {
			type entry struct {
				*types.ManeuverType
				Unlocked       bool     `json:"unlocked"`
				MissingPrereqs []string `json:"missing_prereqs,omitempty"`
			}
			out := make([]entry, 0, len(all))
			for _, m := range all {
				e := entry{ManeuverType: m, Unlocked: true}
				for _, n := range locked[m.ID] {
					e.Unlocked = false
					e.MissingPrereqs = append(e.MissingPrereqs, n.ID)
				}
				out = append(out, e)
			}
			outputJSON(out)
			return
		}

		fmt.Println(ui.HeaderStyle.Render("Maneuvers"))
		for _, m := range all {
			if missing := locked[m.ID]; len(missing) > 0 {
				names := make([]string, len(missing))
				for i, n := range missing {
					names[i] = n.Name
				}
				fmt.Printf("  %s %s %s\n", ui.IconLocked, m.Name,
					ui.MutedStyle.Render(fmt.Sprintf("needs %v", names)))
				continue
			}
			fmt.Printf("  %s %s %s\n",
				ui.GreenStyle.Render(ui.IconUnlocked), m.Name,
				ui.MutedStyle.Render(fmt.Sprintf("(intensity %d)", m.IntensityScore)))
		}
	},
}

func init() {
	treeCmd.AddCommand(treeNextCmd)
	treeCmd.AddCommand(treeChainCmd)
	treeCmd.AddCommand(treeUnlockCmd)
	treeCmd.AddCommand(treeStartCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(maneuversCmd)
}
