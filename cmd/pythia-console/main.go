package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/pythia-trading/pythia-console/internal/config"
)

const (
	appName = "Pythia Console"
	version = "v1.0.0"
)

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "pythia-console",
		Short:   "Operator console for the Pythia trading engine",
		Version: version,
		Long: `Pythia Console monitors the Pythia automated trading engine and
configures its strategies.

THE INTERACTIVE MENU IS THE PRIMARY INTERFACE
   Run 'pythia-console' in a terminal for the full interactive experience.
   Subcommands and flags cover the same operations for scripting.`,
		Run: runDefaultEntry, // TTY detection and menu routing
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.Flags().Visit(func(f *pflag.Flag) {
				log.Debug().Str("flag", f.Name).Str("value", f.Value.String()).Msg("Flag set")
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/pythia.yaml", "Console config file")

	// Explicit menu command (also the default on a TTY)
	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu interface (canonical UX)",
		Long:  "Start the interactive menu system for full console functionality",
		Run:   runMenu,
	}

	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Render the performance dashboard",
		Long:  "Fetches the current performance report and renders it; --watch keeps refreshing on the poll interval",
		RunE:  runDashboard,
	}
	dashboardCmd.Flags().Bool("watch", false, "Keep refreshing until interrupted")

	strategiesCmd := &cobra.Command{
		Use:   "strategies",
		Short: "Strategy catalog commands",
		Long:  "Inspect the engine's available strategies and their parameter schemas",
	}

	strategiesListCmd := &cobra.Command{
		Use:   "list",
		Short: "List available strategies",
		RunE:  runStrategiesList,
	}

	strategiesShowCmd := &cobra.Command{
		Use:   "show [strategy-id]",
		Short: "Show one strategy's parameter schema",
		Args:  cobra.ExactArgs(1),
		RunE:  runStrategiesShow,
	}

	strategiesCmd.AddCommand(strategiesListCmd)
	strategiesCmd.AddCommand(strategiesShowCmd)

	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Submit a strategy configuration",
		Long:  "Validates parameter values against the strategy schema, then submits them to the engine",
		RunE:  runConfigure,
	}
	configureCmd.Flags().String("strategy", "", "Strategy id to configure (required)")
	configureCmd.Flags().StringArray("param", nil, "Parameter override as name=value (repeatable)")
	configureCmd.Flags().Bool("dry-run", false, "Validate and print the request without submitting")
	configureCmd.MarkFlagRequired("strategy")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent configuration submissions",
		Long:  "Reads the console's own submission journal, newest first",
		RunE:  runHistory,
	}
	historyCmd.Flags().Int("limit", 20, "Maximum entries to show")

	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Serve the web board",
		Long:  "Starts the HTTP server with the live dashboard, websocket feed, /metrics and /healthz",
		RunE:  runBoard,
	}
	boardCmd.Flags().String("listen", "", "Listen address (overrides config)")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long:  "Writes the default configuration to the --config path as a starting point for editing",
		RunE:  runInit,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", appName, version)
		},
	}

	rootCmd.AddCommand(menuCmd)       // Menu first
	rootCmd.AddCommand(dashboardCmd)  // Monitoring
	rootCmd.AddCommand(strategiesCmd) // Catalog
	rootCmd.AddCommand(configureCmd)  // Configuration
	rootCmd.AddCommand(historyCmd)    // Audit trail
	rootCmd.AddCommand(boardCmd)      // Web board
	rootCmd.AddCommand(initCmd)       // Setup
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// runDefaultEntry implements TTY detection and routing to menu or help
func runDefaultEntry(cmd *cobra.Command, args []string) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Non-interactive environment - show guidance
		fmt.Fprintf(os.Stderr, "❌ Interactive menu requires a TTY terminal.\n")
		fmt.Fprintf(os.Stderr, "   Use subcommands and flags for non-interactive automation:\n\n")
		fmt.Fprintf(os.Stderr, "   pythia-console dashboard\n")
		fmt.Fprintf(os.Stderr, "   pythia-console strategies list\n")
		fmt.Fprintf(os.Stderr, "   pythia-console configure --strategy statistical_pattern --param lookback_period=252\n")
		fmt.Fprintf(os.Stderr, "   pythia-console --help\n")
		os.Exit(2)
	}

	runMenu(cmd, args)
}

// runMenu starts the interactive menu interface
func runMenu(cmd *cobra.Command, args []string) {
	ui := NewMenuUI(configPath)
	if err := ui.Run(); err != nil {
		log.Error().Err(err).Msg("menu interface failed")
		os.Exit(1)
	}
}

// runInit writes the default configuration for editing. An existing file is
// never overwritten.
func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists, not overwriting", configPath)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := config.Save(configPath, config.Default()); err != nil {
		return err
	}
	fmt.Printf("✅ Wrote starter config to %s\n", configPath)
	return nil
}
