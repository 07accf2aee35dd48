package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wintarget/wintarget/internal/driver"
)

// Snapshot management commands
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage volume snapshots",
	Long: `Manage point in time snapshots of volumes.

Snapshots are taken by the iSCSI target service on the storage host and
can be materialized as new volumes with "wintarget volume restore".`,
}

func init() {
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create <volume-name> <snapshot-name>",
	Short: "Create a snapshot",
	Long: `Take a point in time snapshot of a volume.

Example:
  wintarget snapshot create volume-1 snapshot-1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		volumeName := args[0]
		snapshotName := args[1]

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Creating snapshot %s of volume %s...\n", snapshotName, volumeName)

		snapshot := &driver.Snapshot{Name: snapshotName, VolumeName: volumeName}
		if err := rt.driver.CreateSnapshot(snapshot); err != nil {
			return fmt.Errorf("failed to create snapshot: %w", err)
		}

		fmt.Printf("✓ Snapshot %s created successfully\n", snapshotName)
		return nil
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <snapshot-name>",
	Short: "Delete a snapshot",
	Long: `Delete a snapshot from the storage host.

Example:
  wintarget snapshot delete snapshot-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshotName := args[0]

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Deleting snapshot %s...\n", snapshotName)

		snapshot := &driver.Snapshot{Name: snapshotName}
		if err := rt.driver.DeleteSnapshot(snapshot); err != nil {
			return fmt.Errorf("failed to delete snapshot: %w", err)
		}

		fmt.Printf("✓ Snapshot %s deleted successfully\n", snapshotName)
		return nil
	},
}
