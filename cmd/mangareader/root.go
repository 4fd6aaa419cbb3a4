package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-freshcache/internal/config"
)

var (
	// Global flags
	configPath  string
	logFile     string
	verbose     bool
	dbPath      string
	sessionPath string
	user        string

	// Loaded in PersistentPreRunE, flags applied
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mangareader",
	Short: "Terminal manga reader with a freshness-aware cache",
	Long: `mangareader browses a local manga catalog in the terminal.

Pages are served from a cache that tolerates stale data for a while and
refreshes it in the background; rows on screen and under the cursor are
prefetched so most navigations are instant.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, &loaded)
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReader(cmd.Context(), cfg)
	},
}

// applyFlags lets explicit flags win over the file and the environment.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-file") {
		c.LogFile = logFile
	}
	if flags.Changed("verbose") {
		c.Verbose = verbose
	}
	if flags.Changed("db") {
		c.DBPath = dbPath
	}
	if flags.Changed("session") {
		c.SessionPath = sessionPath
	}
	if flags.Changed("user") {
		c.User = user
	}
}

// Execute runs the root command.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'mangareader -h' for help")
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/mangareader/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log cache hits, misses and prefetches")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Catalog database path")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "", "SQLite file for the session tier (default in memory)")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "Signed-in user")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newPublishCmd())
	rootCmd.AddCommand(newConfigCmd())
}
