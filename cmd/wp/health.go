package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warplanhq/warplan/internal/storage"
	"github.com/warplanhq/warplan/internal/ui"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run a health and anomaly pass over the workspace",
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		eval, err := o.EvaluateWorkspace(rootCtx, snap.WorkspaceID, asOf)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		saveWorkspace(snap, store)

		if jsonOutput {
			outputJSON(eval)
			return
		}

		fmt.Println(ui.HeaderStyle.Render("Health: " + snap.WorkspaceID))
		if eval.Truncated {
			fmt.Println(ui.AmberStyle.Render(ui.IconWarn + " pass truncated; rerun to cover remaining moves"))
		}
		byID := moveTitles(store, snap.WorkspaceID)
		for _, r := range eval.Reports {
			status := ui.HealthStyle(r.Status).Render(string(r.Status))
			fmt.Printf("\n%s  %s (score %d)\n", status, byID[r.MoveID], r.Score)
			for _, f := range r.Factors {
				fmt.Printf("  %-14s %6.1f %s\n", f.Name, f.Value,
					ui.MutedStyle.Render(fmt.Sprintf("weight %.2f", f.Weight)))
			}
		}

		if len(eval.Anomalies) == 0 {
			fmt.Printf("\nNo new anomalies.\n")
			return
		}
		fmt.Printf("\n%s\n", ui.HeaderStyle.Render("New anomalies"))
		for _, a := range eval.Anomalies {
			sev := ui.SeverityStyle(a.Severity).Render(fmt.Sprintf("sev%d", a.Severity))
			scope := byID[a.MoveID]
			if a.IsWorkspaceScoped() {
				scope = "workspace"
			}
			fmt.Printf("  %s %-18s %-12s %s\n", sev, a.Type, scope, a.Message)
		}
	},
}

var anomalyCmd = &cobra.Command{
	Use:   "anomaly",
	Short: "List and resolve open anomalies",
}

var anomalyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open anomalies",
	Run: func(cmd *cobra.Command, args []string) {
		_, store, snap := openWorkspace()
		open, err := store.ListOpenForWorkspace(rootCtx, snap.WorkspaceID)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		if jsonOutput {
			outputJSON(open)
			return
		}
		if len(open) == 0 {
			fmt.Println(ui.MutedStyle.Render("No open anomalies."))
			return
		}
		for _, a := range open {
			sev := ui.SeverityStyle(a.Severity).Render(fmt.Sprintf("sev%d", a.Severity))
			fmt.Printf("%s  %s %-18s %s\n",
				ui.MutedStyle.Render(shortID(a.ID)), sev, a.Type, a.Message)
		}
	},
}

var anomalyResolveCmd = &cobra.Command{
	Use:   "resolve <anomaly-id>",
	Short: "Mark an anomaly resolved",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, store, snap := openWorkspace()
		if err := store.ResolveAnomaly(rootCtx, args[0]); err != nil {
			fatalf("Error: %v\n", err)
		}
		saveWorkspace(snap, store)
		fmt.Printf("%s Resolved %s\n", ui.GreenStyle.Render(ui.IconUnlocked), args[0])
	},
}

func moveTitles(store storage.MoveStore, workspaceID string) map[string]string {
	titles := make(map[string]string)
	moves, err := store.ListMoves(rootCtx, workspaceID, storage.MoveFilter{})
	if err != nil {
		return titles
	}
	for _, m := range moves {
		titles[m.ID] = m.Title
	}
	return titles
}

func init() {
	anomalyCmd.AddCommand(anomalyListCmd)
	anomalyCmd.AddCommand(anomalyResolveCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(anomalyCmd)
}
