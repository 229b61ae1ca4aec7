package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/pelago/internal/store"
	"github.com/spf13/cobra"
)

var (
	snapshotDataDir string
	keepLast        int
	olderThanDays   int
	forceClean      bool
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Manage run snapshots",
	Long: `Manage run snapshots including listing, inspecting and cleaning old
snapshots. Snapshots allow resuming long-running optimizations from saved
state.`,
}

var listSnapshotsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available run snapshots",
	Long:  `Display all run snapshots with metadata including run ID, save time, island count, best fitness, and file sizes.`,
	RunE:  runListSnapshots,
}

var showSnapshotCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print one run snapshot as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowSnapshot,
}

var cleanSnapshotsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old run snapshots",
	Long: `Delete old run snapshots based on retention policy.
You can specify how many snapshots to keep or delete snapshots older than N days.`,
	RunE: runCleanSnapshots,
}

func init() {
	// Add snapshots command to root
	rootCmd.AddCommand(snapshotsCmd)

	// Add subcommands
	snapshotsCmd.AddCommand(listSnapshotsCmd)
	snapshotsCmd.AddCommand(showSnapshotCmd)
	snapshotsCmd.AddCommand(cleanSnapshotsCmd)

	// Global flags for snapshots command
	snapshotsCmd.PersistentFlags().StringVar(&snapshotDataDir, "data-dir", "./data", "Base directory for snapshot storage")

	// Clean command flags
	cleanSnapshotsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the last N snapshots (0 = keep all)")
	cleanSnapshotsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete snapshots older than N days (0 = no age limit)")
	cleanSnapshotsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListSnapshots(cmd *cobra.Command, args []string) error {
	snapshotStore, err := store.NewFSStore(snapshotDataDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	infos, err := snapshotStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No snapshots found.")
		return nil
	}

	// Display snapshots in a table
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSAVED AT\tISLANDS\tPROBLEM\tALGORITHM\tBEST F\tSIZE")
	fmt.Fprintln(w, "------\t--------\t-------\t-------\t---------\t------\t----")

	for _, info := range infos {
		// Get snapshot directory size
		runDir := filepath.Join(snapshotDataDir, "runs", info.RunID)
		size, err := getDirSize(runDir)
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		savedAt := info.SavedAt.Format("2006-01-02 15:04:05")

		// Truncate run ID for display
		displayID := info.RunID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%.6g\t%s\n",
			displayID,
			savedAt,
			info.Islands,
			info.Problem,
			info.Algorithm,
			info.BestF,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal snapshots: %d\n", len(infos))
	return nil
}

func runShowSnapshot(cmd *cobra.Command, args []string) error {
	snapshotStore, err := store.NewFSStore(snapshotDataDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	snap, err := snapshotStore.LoadRun(args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runCleanSnapshots(cmd *cobra.Command, args []string) error {
	// Validate flags
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	snapshotStore, err := store.NewFSStore(snapshotDataDir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}

	infos, err := snapshotStore.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No snapshots to clean.")
		return nil
	}

	// Determine which snapshots to delete
	toDelete := selectSnapshotsForDeletion(infos, keepLast, olderThanDays)

	if len(toDelete) == 0 {
		fmt.Println("No snapshots match deletion criteria.")
		return nil
	}

	// Show what will be deleted
	fmt.Printf("Found %d snapshot(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		displayID := info.RunID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}
		fmt.Printf("  - %s (%d islands, %s)\n",
			displayID,
			info.Islands,
			info.SavedAt.Format("2006-01-02 15:04:05"),
		)
	}

	// Ask for confirmation unless --force is set
	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Delete snapshots
	deleted := 0
	failed := 0
	for _, info := range toDelete {
		err := snapshotStore.DeleteRun(info.RunID)
		if err != nil {
			slog.Error("Failed to delete snapshot", "run_id", info.RunID, "error", err)
			failed++
		} else {
			slog.Info("Deleted snapshot", "run_id", info.RunID)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d snapshot(s), %d failed.\n", deleted, failed)
	return nil
}

// selectSnapshotsForDeletion determines which snapshots should be deleted based on retention policy
func selectSnapshotsForDeletion(infos []store.RunInfo, keepLast int, olderThanDays int) []store.RunInfo {
	var toDelete []store.RunInfo

	// Apply age-based deletion
	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.SavedAt.Before(cutoff) {
				toDelete = append(toDelete, info)
			}
		}
	}

	// Apply count-based deletion (keep the most recent N overall)
	if keepLast > 0 && len(infos) > keepLast {
		// Sort by save time (oldest first)
		sorted := make([]store.RunInfo, len(infos))
		copy(sorted, infos)
		for i := 0; i < len(sorted)-1; i++ {
			for j := 0; j < len(sorted)-i-1; j++ {
				if sorted[j].SavedAt.After(sorted[j+1].SavedAt) {
					sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
				}
			}
		}

		// Delete oldest snapshots beyond keepLast
		numToDelete := len(sorted) - keepLast
		for i := 0; i < numToDelete; i++ {
			// Check if not already in toDelete list
			found := false
			for _, existing := range toDelete {
				if existing.RunID == sorted[i].RunID {
					found = true
					break
				}
			}
			if !found {
				toDelete = append(toDelete, sorted[i])
			}
		}
	}

	return toDelete
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
