package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"rubyscope"
	"rubyscope/internal/config"
	"rubyscope/internal/slogutil"
)

var (
	flagRoot     string
	flagFormat   string
	flagLogLevel string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "rubyscope",
	Short:         "Static symbol indexing and ancestor-chain resolution for Ruby",
	Long:          "Rubyscope indexes Ruby source with tree-sitter and answers definition, reference, ancestor chain and method resolution queries without executing any Ruby.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "project root to index")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (default from config)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
}

var (
	flagSerial     bool
	flagSnapshot   string
	flagNoSnapshot bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a Ruby project and export a snapshot",
	Long:  "Parses Ruby files with tree-sitter, builds the symbol index, and writes a SQLite snapshot for offline inspection.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagSerial, "serial", false, "disable the parallel extraction pipeline")
	indexCmd.Flags().StringVar(&flagSnapshot, "snapshot", "", "snapshot path (default from config)")
	indexCmd.Flags().BoolVar(&flagNoSnapshot, "no-snapshot", false, "skip the snapshot export")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(targetDir)
	if err != nil {
		return err
	}

	engine, err := buildEngine(targetDir, cfg, !flagSerial)
	if err != nil {
		return err
	}

	if err := engine.IndexDirectory(context.Background(), targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	stats := engine.Stats()
	fmt.Fprintf(os.Stderr, "Indexed %s in %s (%d files, %d entries)\n",
		targetDir, time.Since(start).Round(time.Millisecond), stats.Files, stats.Entries)

	if flagNoSnapshot {
		return nil
	}
	dbPath := flagSnapshot
	if dbPath == "" {
		dbPath = cfg.Snapshot.Path
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(targetDir, dbPath)
	}
	if err := engine.ExportSnapshot(dbPath); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Snapshot: %s\n", dbPath)
	return nil
}

// buildEngine constructs an Engine from config plus CLI overrides.
func buildEngine(root string, cfg *config.Config, parallel bool) (*rubyscope.Engine, error) {
	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger := slogutil.NewLogger(os.Stderr, slogutil.LevelFromString(level), cfg.Logging.Format)

	return rubyscope.New(
		rubyscope.WithLogger(logger),
		rubyscope.WithExcludes(cfg.Exclude...),
		rubyscope.WithParallel(parallel),
		rubyscope.WithParallelism(cfg.Parallelism),
	), nil
}

// resolveTargetDir returns the absolute path of the directory to index,
// from the positional arg or the --root flag.
func resolveTargetDir(args []string) (string, error) {
	dir := flagRoot
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
