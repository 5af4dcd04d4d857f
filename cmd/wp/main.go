// wp is the warplan command line: it operates on a workspace snapshot file,
// giving planners the capability tree, move lifecycle, sprint capacity, and
// health evaluation without a hosted backend.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warplanhq/warplan/internal/config"
	"github.com/warplanhq/warplan/internal/debug"
	"github.com/warplanhq/warplan/internal/orchestrator"
	"github.com/warplanhq/warplan/internal/snapshot"
	"github.com/warplanhq/warplan/internal/storage/memory"
	"github.com/warplanhq/warplan/internal/telemetry"
)

var version = "dev"

var (
	snapshotPath string
	configPath   string
	jsonOutput   bool
	asOfRaw      string
	verboseFlag  bool
	quietFlag    bool

	cfg  config.Config
	asOf time.Time

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "wp",
	Short: "Campaign planning from the command line",
	Long: `wp plans marketing campaigns against a workspace snapshot file:
unlock capabilities, launch moves, balance sprint capacity, and run
health evaluation passes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("file") {
			if f := viper.GetString("snapshot"); f != "" {
				snapshotPath = f
			}
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			fatalf("Error loading config: %v\n", err)
		}
		if viper.GetBool("json") {
			jsonOutput = true
		}
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		asOf = time.Now()
		if asOfRaw != "" {
			asOf = parseAsOf(asOfRaw)
		}
		if err := telemetry.Init(rootCtx, "wp", version); err != nil {
			fatalf("Error initializing telemetry: %v\n", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

// parseAsOf accepts natural-language dates ("yesterday", "last monday") as
// well as RFC 3339 and YYYY-MM-DD.
func parseAsOf(raw string) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	if r, err := w.Parse(raw, time.Now()); err == nil && r != nil {
		return r.Time
	}
	fatalf("Error: cannot parse --as-of %q\n", raw)
	return time.Time{}
}

// openWorkspace materializes the snapshot file into an in-memory store and
// wires an orchestrator over it.
func openWorkspace() (*orchestrator.Orchestrator, *memory.Store, *snapshot.Snapshot) {
	store, _, snap, err := snapshot.Open(snapshotPath)
	if err != nil {
		fatalf("Error opening %s: %v\n", snapshotPath, err)
	}
	o := orchestrator.New(cfg, orchestrator.Stores{
		Capabilities: store,
		Moves:        store,
		Sprints:      store,
		Metrics:      store,
		Anomalies:    store,
		Maneuvers:    store,
	})
	return o, store, snap
}

// saveWorkspace writes mutated state back to the snapshot file.
func saveWorkspace(snap *snapshot.Snapshot, store *memory.Store) {
	if err := snapshot.Save(snapshotPath, snap, store); err != nil {
		fatalf("Error saving %s: %v\n", snapshotPath, err)
	}
}

func outputJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("Error encoding JSON: %v\n", err)
	}
	fmt.Println(string(data))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func main() {
	rootCtx, rootCancel = context.WithCancel(context.Background())
	defer rootCancel()

	rootCmd.PersistentFlags().StringVarP(&snapshotPath, "file", "f", "warplan.yaml", "workspace snapshot file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	rootCmd.PersistentFlags().StringVar(&asOfRaw, "as-of", "", "evaluate as of this date (natural language accepted)")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "enable diagnostic output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-essential output")

	viper.SetEnvPrefix("WP")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
