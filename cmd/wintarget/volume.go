package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wintarget/wintarget/internal/driver"
)

// Volume management commands
var volumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Manage volumes",
	Long: `Manage VHD backed volumes on the storage host.

Each volume is a dynamically expanding VHD file under the configured
disk root, registered with the iSCSI target service as a virtual disk.`,
}

func init() {
	volumeCmd.AddCommand(volumeCreateCmd)
	volumeCmd.AddCommand(volumeDeleteCmd)
	volumeCmd.AddCommand(volumeExtendCmd)
	volumeCmd.AddCommand(volumeCloneCmd)
	volumeCmd.AddCommand(volumeRestoreCmd)
	volumeCmd.AddCommand(volumePathCmd)
}

var volumeCreateCmd = &cobra.Command{
	Use:   "create <name> <size-gb>",
	Short: "Create a volume",
	Long: `Create a new VHD backed volume on the storage host.

The size is the provisioned capacity in gigabytes. The backing file
grows on demand up to that size.

Example:
  wintarget volume create volume-1 10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		sizeGB, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", args[1], err)
		}

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Creating volume %s (%d GB)...\n", name, sizeGB)

		volume := &driver.Volume{ID: uuid.NewString(), Name: name, SizeGB: sizeGB}
		if err := rt.driver.CreateVolume(volume); err != nil {
			return fmt.Errorf("failed to create volume: %w", err)
		}

		fmt.Printf("✓ Volume %s created successfully\n", name)
		return nil
	},
}

var volumeDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a volume",
	Long: `Delete a volume and its backing file from the storage host.

The volume must exist as a virtual disk; a missing backing file is
tolerated.

Example:
  wintarget volume delete volume-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Deleting volume %s...\n", name)

		volume := &driver.Volume{Name: name}
		if err := rt.driver.DeleteVolume(volume); err != nil {
			return fmt.Errorf("failed to delete volume: %w", err)
		}

		fmt.Printf("✓ Volume %s deleted successfully\n", name)
		return nil
	},
}

var volumeExtendCmd = &cobra.Command{
	Use:   "extend <name> <current-gb> <new-gb>",
	Short: "Extend a volume",
	Long: `Grow a volume from its current provisioned size to a new size.

The current size must be given because the target service only accepts
the additional amount, not an absolute size.

Example:
  wintarget volume extend volume-1 10 20`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		currentGB, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid current size %q: %w", args[1], err)
		}
		newGB, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid new size %q: %w", args[2], err)
		}
		if newGB <= currentGB {
			return fmt.Errorf("new size %d GB must be larger than current size %d GB", newGB, currentGB)
		}

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Extending volume %s from %d GB to %d GB...\n", name, currentGB, newGB)

		volume := &driver.Volume{Name: name, SizeGB: currentGB}
		if err := rt.driver.ExtendVolume(volume, newGB); err != nil {
			return fmt.Errorf("failed to extend volume: %w", err)
		}

		fmt.Printf("✓ Volume %s extended successfully\n", name)
		return nil
	},
}

var volumeCloneCmd = &cobra.Command{
	Use:   "clone <source-name> <new-name> <size-gb>",
	Short: "Clone a volume",
	Long: `Create a new volume carrying a copy of the source volume's content.

The source volume should not be attached while it is cloned, otherwise
the copy may observe in-flight writes.

Example:
  wintarget volume clone volume-1 volume-2 10`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceName := args[0]
		newName := args[1]
		sizeGB, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", args[2], err)
		}

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Cloning volume %s to %s...\n", sourceName, newName)

		src := &driver.Volume{Name: sourceName}
		clone := &driver.Volume{ID: uuid.NewString(), Name: newName, SizeGB: sizeGB}
		if err := rt.driver.CreateClonedVolume(clone, src); err != nil {
			return fmt.Errorf("failed to clone volume: %w", err)
		}

		fmt.Printf("✓ Volume %s cloned to %s successfully\n", sourceName, newName)
		return nil
	},
}

var volumeRestoreCmd = &cobra.Command{
	Use:   "restore <snapshot-name> <new-volume-name>",
	Short: "Create a volume from a snapshot",
	Long: `Materialize a snapshot as a new volume.

The new volume carries the snapshot's content at the time it was taken.

Example:
  wintarget volume restore snapshot-1 volume-2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshotName := args[0]
		volumeName := args[1]

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Creating volume %s from snapshot %s...\n", volumeName, snapshotName)

		volume := &driver.Volume{ID: uuid.NewString(), Name: volumeName}
		snapshot := &driver.Snapshot{Name: snapshotName}
		if err := rt.driver.CreateVolumeFromSnapshot(volume, snapshot); err != nil {
			return fmt.Errorf("failed to create volume from snapshot: %w", err)
		}

		fmt.Printf("✓ Volume %s created from snapshot %s\n", volumeName, snapshotName)
		return nil
	},
}

var volumePathCmd = &cobra.Command{
	Use:   "path <name>",
	Short: "Show a volume's backing file path",
	Long: `Print the path of the VHD file backing a volume.

Example:
  wintarget volume path volume-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		path, err := rt.driver.LocalPath(&driver.Volume{Name: name})
		if err != nil {
			return fmt.Errorf("failed to resolve volume path: %w", err)
		}

		fmt.Println(path)
		return nil
	},
}
