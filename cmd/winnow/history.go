package main

import (
	"fmt"

	"github.com/jamesainslie/winnow/pkg/winnow/config"
	"github.com/jamesainslie/winnow/pkg/winnow/criteria"
	"github.com/jamesainslie/winnow/pkg/winnow/logging"
	"github.com/jamesainslie/winnow/pkg/winnow/manifest"
	"github.com/jamesainslie/winnow/pkg/winnow/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of clean operations.

The manifest stores a record of every quarantine and delete run, including
which files were acted on and which failed.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific operation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove history entries older than the retention period",
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getManifest returns a manifest instance with the configured directory.
func getManifest() (*manifest.Manifest, error) {
	cfg, err := config.Load()
	if err != nil {
		return manifest.New(config.DefaultManifestDir())
	}
	return manifest.New(cfg.Manifest.Path)
}

// recordManifest persists a manifest entry for a completed execute.
// Manifest failures are logged, never fatal: the files are already gone.
func recordManifest(c *criteria.Criteria, result *types.ScanResult, outcome *types.ExecutionOutcome) {
	if !viper.GetBool("manifest.enabled") {
		return
	}
	logger := logging.Get("cli")

	m, err := getManifest()
	if err != nil {
		logger.Warn("manifest unavailable", "error", err)
		return
	}
	if err := m.EnsureDir(); err != nil {
		logger.Warn("manifest dir creation failed", "error", err)
		return
	}

	op := manifest.OpQuarantine
	if c.Action() == criteria.Delete {
		op = manifest.OpDelete
	}

	failed := make(map[string]string, len(outcome.Failures))
	for _, f := range outcome.Failures {
		failed[f.Path] = f.Reason
	}

	files := make([]manifest.FileRecord, 0, len(result.Hits))
	for _, h := range result.Hits {
		files = append(files, manifest.FileRecord{
			Path:  h.Path,
			Size:  h.Size,
			When:  h.When,
			Error: failed[h.Path],
		})
	}

	_, err = m.Log(op, c.Root(), outcome.QuarantineRoot, files, manifest.Summary{
		TotalFiles: int64(len(result.Hits)),
		TotalBytes: result.BytesMatched,
		Succeeded:  outcome.Succeeded,
		Failed:     outcome.Failed,
	})
	if err != nil {
		logger.Warn("manifest write failed", "error", err)
	}
}

// runHistory lists recent operations.
func runHistory(_ *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	entries, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %-10s  %s  %d files (%s), %d failed\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Operation, e.Root,
			e.Summary.TotalFiles, types.FormatSize(e.Summary.TotalBytes),
			e.Summary.Failed)
		fmt.Printf("  id: %s\n", e.ID)
	}
	return nil
}

// runHistoryShow displays one entry in full.
func runHistoryShow(_ *cobra.Command, args []string) error {
	m, err := getManifest()
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}

	e, err := m.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Operation, e.Root)
	if e.QuarantineRoot != "" {
		fmt.Printf("quarantine: %s\n", e.QuarantineRoot)
	}
	for _, f := range e.Files {
		status := "ok"
		if f.Error != "" {
			status = f.Error
		}
		fmt.Printf("  %s  %s  %s  [%s]\n",
			f.When.Format("2006-01-02 15:04:05"), types.FormatSize(f.Size), f.Path, status)
	}
	return nil
}

// runHistoryClean prunes entries past the retention period.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize manifest: %w", err)
	}
	if err := m.Cleanup(cfg.Manifest.RetentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	fmt.Printf("Removed entries older than %d days.\n", cfg.Manifest.RetentionDays)
	return nil
}
