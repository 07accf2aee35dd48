package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wintarget/wintarget/internal/driver"
	"github.com/wintarget/wintarget/internal/output"
)

// Export management commands
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Manage iSCSI exports",
	Long: `Manage the iSCSI targets that expose volumes to initiators.

Each exported volume gets its own target named <prefix><volume-name>,
with the volume's virtual disk attached as LUN 0.`,
}

func init() {
	exportCmd.AddCommand(exportCreateCmd)
	exportCmd.AddCommand(exportEnsureCmd)
	exportCmd.AddCommand(exportRemoveCmd)
}

var exportCreateCmd = &cobra.Command{
	Use:   "create <volume-name>",
	Short: "Export a volume",
	Long: `Create an iSCSI target for a volume and attach its disk.

Prints the export location that initiators use as the target name.

Example:
  wintarget export create volume-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		volumeName := args[0]

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Exporting volume %s...\n", volumeName)

		volume := &driver.Volume{Name: volumeName}
		export, err := rt.driver.CreateExport(context.Background(), volume)
		if err != nil {
			return fmt.Errorf("failed to create export: %w", err)
		}

		fmt.Printf("✓ Volume %s exported at %s\n", volumeName, export.ProviderLocation)
		return nil
	},
}

var exportEnsureCmd = &cobra.Command{
	Use:   "ensure <volume-name>",
	Short: "Ensure a volume is exported",
	Long: `Re-establish a volume's iSCSI target, for example after the target
service restarted. An export that already exists is left alone.

Example:
  wintarget export ensure volume-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		volumeName := args[0]

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		volume := &driver.Volume{Name: volumeName}
		if err := rt.driver.EnsureExport(context.Background(), volume); err != nil {
			return fmt.Errorf("failed to ensure export: %w", err)
		}

		fmt.Printf("✓ Export for volume %s is in place\n", volumeName)
		return nil
	},
}

var exportRemoveCmd = &cobra.Command{
	Use:   "remove <volume-name>",
	Short: "Remove a volume's export",
	Long: `Tear down a volume's iSCSI target, detaching all disks first.

Removing an export that is already gone is not an error.

Example:
  wintarget export remove volume-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		volumeName := args[0]

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Removing export for volume %s...\n", volumeName)

		volume := &driver.Volume{Name: volumeName}
		if err := rt.driver.RemoveExport(context.Background(), volume); err != nil {
			return fmt.Errorf("failed to remove export: %w", err)
		}

		fmt.Printf("✓ Export for volume %s removed\n", volumeName)
		return nil
	},
}

// Connection management commands
var connectionCmd = &cobra.Command{
	Use:   "conn",
	Short: "Manage initiator connections",
	Long: `Grant and revoke initiator access to exported volumes.

Access is controlled per target through IQN identification entries on
the storage host.`,
}

func init() {
	connectionCmd.AddCommand(connectionInitCmd)
	connectionCmd.AddCommand(connectionTermCmd)

	connectionInitCmd.Flags().String("location", "", "Export location (defaults to the derived target name)")
	connectionInitCmd.Flags().String("volume-id", "", "Volume identifier to report (defaults to the volume name)")
	connectionInitCmd.Flags().String("auth", "", `CHAP credentials as "<method> <username> <password>"`)
	connectionTermCmd.Flags().String("location", "", "Export location (defaults to the derived target name)")
}

var connectionInitCmd = &cobra.Command{
	Use:   "init <volume-name> <initiator-iqn>",
	Short: "Initialize a connection",
	Long: `Grant an initiator access to a volume's target and print the
connection properties it needs to log in.

The table output omits the CHAP password; use -o yaml or -o json when
the credentials are needed.

Example:
  wintarget conn init volume-1 iqn.1991-05.com.microsoft:host-5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		volumeName := args[0]
		initiatorIQN := args[1]

		if err := output.ValidateFormat(outputFormat); err != nil {
			return err
		}

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		location, _ := cmd.Flags().GetString("location")
		if location == "" {
			location = rt.cfg.TargetName(volumeName)
		}
		volumeID, _ := cmd.Flags().GetString("volume-id")
		if volumeID == "" {
			volumeID = volumeName
		}
		providerAuth, _ := cmd.Flags().GetString("auth")

		volume := &driver.Volume{
			ID:               volumeID,
			Name:             volumeName,
			ProviderLocation: location,
			ProviderAuth:     providerAuth,
		}
		connector := &driver.Connector{InitiatorIQN: initiatorIQN}

		info, err := rt.driver.InitializeConnection(volume, connector)
		if err != nil {
			return fmt.Errorf("failed to initialize connection: %w", err)
		}

		formatter, err := output.NewFormatter(output.Options{
			Format:    output.Format(outputFormat),
			NoHeaders: noHeaders,
		})
		if err != nil {
			return err
		}

		result, err := formatter.FormatConnectionInfo(&info)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}

var connectionTermCmd = &cobra.Command{
	Use:   "term <volume-name> <initiator-iqn>",
	Short: "Terminate a connection",
	Long: `Revoke an initiator's access to a volume's target.

Example:
  wintarget conn term volume-1 iqn.1991-05.com.microsoft:host-5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		volumeName := args[0]
		initiatorIQN := args[1]

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		location, _ := cmd.Flags().GetString("location")
		if location == "" {
			location = rt.cfg.TargetName(volumeName)
		}

		volume := &driver.Volume{Name: volumeName, ProviderLocation: location}
		connector := &driver.Connector{InitiatorIQN: initiatorIQN}

		if err := rt.driver.TerminateConnection(volume, connector); err != nil {
			return fmt.Errorf("failed to terminate connection: %w", err)
		}

		fmt.Printf("✓ Connection for initiator %s terminated\n", initiatorIQN)
		return nil
	},
}
