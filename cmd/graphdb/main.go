// Package main provides the graphdb admin CLI: initializing a data
// directory, inspecting basic node/edge counts, and running storage
// maintenance. It has no query language surface, network protocol, or
// interactive shell — those are external collaborators per spec.md §1.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fenwickgraph/graphdb/pkg/config"
	"github.com/fenwickgraph/graphdb/pkg/graph"
	"github.com/fenwickgraph/graphdb/pkg/kv"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphdb",
		Short: "graphdb admin CLI",
		Long: `graphdb is an embedded property-graph store built on an ordered
key-value backend.

This binary only opens, initializes, and inspects a data directory. The
query plan and executor are a library surface embedded by a host
process; they have no command here.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("graphdb v%s (%s)\n", version, commit)
		},
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new data directory",
		RunE:  runInit,
	}
	initCmd.Flags().String("data-dir", "./data", "data directory to create")
	rootCmd.AddCommand(initCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print node and edge counts for a data directory",
		RunE:  runStats,
	}
	statsCmd.Flags().String("data-dir", "./data", "data directory to inspect")
	rootCmd.AddCommand(statsCmd)

	gcCmd := &cobra.Command{
		Use:   "gc",
		Short: "Run one pass of value-log garbage collection",
		RunE:  runGC,
	}
	gcCmd.Flags().String("data-dir", "./data", "data directory to compact")
	gcCmd.Flags().Float64("discard-ratio", 0.5, "minimum ratio of reclaimable space to trigger a rewrite")
	rootCmd.AddCommand(gcCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	b, err := kv.Open(kv.Options{Dir: dataDir})
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	if err := b.Close(); err != nil {
		return fmt.Errorf("closing backend: %w", err)
	}

	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = dataDir
	configPath := filepath.Join(dataDir, "graphdb.yaml")
	if err := writeDefaultConfig(configPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("initialized data directory %s\n", dataDir)
	fmt.Printf("config: %s\n", configPath)
	return nil
}

func writeDefaultConfig(path string, cfg *config.Config) error {
	content := fmt.Sprintf(`storage:
  data_dir: %s
  in_memory: false
  sync_writes: false
  block_cache_mb: %d
transaction:
  commit_retries: %d
  pull_budget: %d
logging:
  level: %s
`, cfg.Storage.DataDir, cfg.Storage.BlockCacheMB, cfg.Transaction.CommitRetries, cfg.Transaction.PullBudget, cfg.Logging.Level)
	return os.WriteFile(path, []byte(content), 0644)
}

func runStats(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	b, err := kv.Open(kv.Options{Dir: dataDir})
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	defer b.Close()

	store := graph.NewStore(b)
	tx, err := store.Begin(context.Background())
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	nodeCount, err := countNodes(tx)
	if err != nil {
		return fmt.Errorf("counting nodes: %w", err)
	}
	edgeCount, err := countEdges(tx)
	if err != nil {
		return fmt.Errorf("counting edges: %w", err)
	}

	fmt.Printf("data directory: %s\n", dataDir)
	fmt.Printf("nodes: %d\n", nodeCount)
	fmt.Printf("edges: %d\n", edgeCount)
	return nil
}

func countNodes(tx *graph.Transaction) (int, error) {
	it := tx.IterateNodes()
	defer it.Close()
	n := 0
	for it.Valid() {
		if _, err := it.Item(); err != nil {
			return 0, err
		}
		n++
		it.Next()
	}
	return n, nil
}

func countEdges(tx *graph.Transaction) (int, error) {
	it := tx.IterateEdges()
	defer it.Close()
	n := 0
	for it.Valid() {
		if _, err := it.Item(); err != nil {
			return 0, err
		}
		n++
		it.Next()
	}
	return n, nil
}

func runGC(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	discardRatio, _ := cmd.Flags().GetFloat64("discard-ratio")

	b, err := kv.Open(kv.Options{Dir: dataDir})
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	defer b.Close()

	if err := b.RunValueLogGC(discardRatio); err != nil {
		return fmt.Errorf("running value log gc: %w", err)
	}

	fmt.Println("value log gc pass complete")
	return nil
}
