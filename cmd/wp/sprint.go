package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/warplanhq/warplan/internal/capacity"
	"github.com/warplanhq/warplan/internal/ui"
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Inspect sprint capacity",
}

var sprintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sprints with their capacity state",
	Run: func(cmd *cobra.Command, args []string) {
		o, store, snap := openWorkspace()
		sprints, err := store.ListSprints(rootCtx, snap.WorkspaceID)
		if err != nil {
			fatalf("Error: %v\n", err)
		}
		if jsonOutput {
			summaries := make([]capacity.Summary, len(sprints))
			for i, s := range sprints {
				summaries[i] = o.Ledger().Summarize(s)
			}
			outputJSON(summaries)
			return
		}
		if len(sprints) == 0 {
			fmt.Println(ui.MutedStyle.Render("No sprints."))
			return
		}
		fmt.Println(ui.HeaderStyle.Render("Sprints: " + snap.WorkspaceID))
		for _, s := range sprints {
			sum := o.Ledger().Summarize(s)
			bar := capacityStyle(sum).Render(fmt.Sprintf("%d/%d (%d%%)", sum.Load, sum.Budget, sum.Percentage))
			fmt.Printf("  %-20s %-10s %s", s.Name, s.Status, bar)
			if sum.OverCommitted {
				fmt.Printf(" %s", ui.RedStyle.Render(ui.IconWarn+" over budget"))
			}
			fmt.Println()
		}
	},
}

func capacityStyle(sum capacity.Summary) lipgloss.Style {
	switch {
	case sum.OverCommitted:
		return ui.RedStyle
	case sum.Percentage >= 80:
		return ui.AmberStyle
	}
	return ui.GreenStyle
}

func init() {
	sprintCmd.AddCommand(sprintListCmd)
	rootCmd.AddCommand(sprintCmd)
}
