package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warplanhq/warplan/internal/lifecycle"
	"github.com/warplanhq/warplan/internal/orchestrator"
	"github.com/warplanhq/warplan/internal/storage"
	"github.com/warplanhq/warplan/internal/types"
	"github.com/warplanhq/warplan/internal/ui"
)

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Create and manage campaign moves",
}

var moveCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Instantiate a maneuver as a new move",
	Run: func(cmd *cobra.Command, args []string) {
		maneuver, _ := cmd.Flags().GetString("maneuver")
		title, _ := cmd.Flags().GetString("title")
		sprintID, _ := cmd.Flags().GetString("sprint")
		observe, _ := cmd.Flags().GetStringSlice("observe")
		tone, _ := cmd.Flags().GetString("tone")
		enforce, _ := cmd.Flags().GetBool("enforce-capacity")
		startRaw, _ := cmd.Flags().GetString("start")
		endRaw, _ := cmd.Flags().GetString("end")

		o, store, snap := openWorkspace()
		req := orchestrator.CreateMoveRequest{
			WorkspaceID:     snap.WorkspaceID,
			ManeuverTypeID:  maneuver,
			Title:           title,
			SprintID:        sprintID,
			EnforceCapacity: enforce,
			OODA: types.OODAConfig{
				ObserveSources: observe,
				TargetTone:     tone,
			},
		}
		if startRaw != "" {
			t := parseAsOf(startRaw)
			req.StartDate = &t
		}
		if endRaw != "" {
			t := parseAsOf(endRaw)
			req.EndDate = &t
		}

		move, err := o.CreateMove(rootCtx, req)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		saveWorkspace(snap, store)
		if jsonOutput {
			outputJSON(move)
			return
		}
		fmt.Printf("%s Created move %s (%s)\n",
			ui.GreenStyle.Render(ui.IconUnlocked), move.Title,
			ui.MutedStyle.Render(move.ID))
		if sprintID != "" {
			sprint, err := store.GetSprint(rootCtx, sprintID)
			if err == nil {
				if s := o.Ledger().Summarize(sprint); s.OverCommitted {
					fmt.Printf("%s Sprint %s is over budget (%d/%d)\n",
						ui.AmberStyle.Render(ui.IconWarn), sprintID, s.Load, s.Budget)
				}
			}
		}
	},
}

var moveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List moves in the workspace",
	Run: func(cmd *cobra.Command, args []string) {
		activeOnly, _ := cmd.Flags().GetBool("active")
		sprintID, _ := cmd.Flags().GetString("sprint")

		_, store, snap := openWorkspace()
		moves, err := store.ListMoves(rootCtx, snap.WorkspaceID, storage.MoveFilter{
			ActiveOnly: activeOnly,
			SprintID:   sprintID,
		})
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		if jsonOutput {
			outputJSON(moves)
			return
		}
		if len(moves) == 0 {
			fmt.Println(ui.MutedStyle.Render("No moves."))
			return
		}
		for _, m := range moves {
			health := ui.HealthStyle(m.Health).Render(string(m.Health))
			fmt.Printf("%s  %-30s %-14s %s\n",
				ui.MutedStyle.Render(shortID(m.ID)), m.Title, m.Status, health)
		}
	},
}

var moveAdvanceCmd = &cobra.Command{
	Use:   "advance <move-id>",
	Short: "Advance a move to its next lifecycle phase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		moveID := resolveMoveID(store, snap.WorkspaceID, args[0])
		move, err := store.GetMove(rootCtx, moveID)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		next, ok := lifecycle.Next(move.Status)
		if !ok {
			fatalf("Error: move %s is %s and cannot advance\n", moveID, move.Status)
		}
		if err := o.TransitionMove(rootCtx, moveID, next); err != nil {
			fatalf("Error: %v\n", err)
		}
		saveWorkspace(snap, store)
		fmt.Printf("%s %s: %s -> %s\n",
			ui.GreenStyle.Render(ui.IconUnlocked), move.Title, move.Status, next)
	},
}

var moveKillCmd = &cobra.Command{
	Use:   "kill <move-id>",
	Short: "Kill a move and release its sprint load",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		moveID := resolveMoveID(store, snap.WorkspaceID, args[0])
		if err := o.TransitionMove(rootCtx, moveID, types.MoveKilled); err != nil {
			fatalf("Error: %v\n", err)
		}
		saveWorkspace(snap, store)
		fmt.Printf("%s Killed %s\n", ui.RedStyle.Render("✗"), moveID)
	},
}

var moveAssignCmd = &cobra.Command{
	Use:   "assign <move-id> <sprint-id>",
	Short: "Assign a move to a sprint",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		enforce, _ := cmd.Flags().GetBool("enforce-capacity")
		o, store, snap := openWorkspace()
		moveID := resolveMoveID(store, snap.WorkspaceID, args[0])
		if err := o.AssignToSprint(rootCtx, moveID, args[1], enforce); err != nil {
			fatalf("Error: %v\n", err)
		}
		saveWorkspace(snap, store)
		fmt.Printf("%s Assigned %s to %s\n",
			ui.GreenStyle.Render(ui.IconUnlocked), moveID, args[1])
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveMoveID accepts either a full move id or an unambiguous prefix.
func resolveMoveID(store storage.MoveStore, workspaceID, raw string) string {
	if _, err := store.GetMove(rootCtx, raw); err == nil {
		return raw
	}
	moves, err := store.ListMoves(rootCtx, workspaceID, storage.MoveFilter{})
	if err != nil {
		fatalf("Error: %v\n", err)
	}
	var matches []string
	for _, m := range moves {
		if len(raw) > 0 && len(m.ID) >= len(raw) && m.ID[:len(raw)] == raw {
			matches = append(matches, m.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0]
	case 0:
		fatalf("Error: no move matches %q\n", raw)
	default:
		fatalf("Error: %q is ambiguous (%d matches)\n", raw, len(matches))
	}
	return ""
}

func init() {
	moveCreateCmd.Flags().String("maneuver", "", "maneuver type id (required)")
	moveCreateCmd.Flags().String("title", "", "move title (required)")
	moveCreateCmd.Flags().String("sprint", "", "sprint to assign the move to")
	moveCreateCmd.Flags().StringSlice("observe", nil, "observation sources for the OODA loop")
	moveCreateCmd.Flags().String("tone", "", "target tone for content checks")
	moveCreateCmd.Flags().String("start", "", "start date")
	moveCreateCmd.Flags().String("end", "", "end date")
	moveCreateCmd.Flags().Bool("enforce-capacity", false, "refuse assignment when the sprint is over budget")
	_ = moveCreateCmd.MarkFlagRequired("maneuver")
	_ = moveCreateCmd.MarkFlagRequired("title")

	moveListCmd.Flags().Bool("active", false, "only non-terminal moves")
	moveListCmd.Flags().String("sprint", "", "only moves in this sprint")

	moveAssignCmd.Flags().Bool("enforce-capacity", false, "refuse assignment when the sprint is over budget")

	moveCmd.AddCommand(moveCreateCmd)
	moveCmd.AddCommand(moveListCmd)
	moveCmd.AddCommand(moveAdvanceCmd)
	moveCmd.AddCommand(moveKillCmd)
	moveCmd.AddCommand(moveAssignCmd)
	rootCmd.AddCommand(moveCmd)
}
