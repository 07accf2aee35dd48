package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/wintarget/wintarget/internal/config"
	"github.com/wintarget/wintarget/internal/driver"
	"github.com/wintarget/wintarget/internal/glance"
	"github.com/wintarget/wintarget/internal/image"
	"github.com/wintarget/wintarget/internal/iscsi"
	"github.com/wintarget/wintarget/internal/output"
	"github.com/wintarget/wintarget/internal/wt/wtfake"
	"github.com/wintarget/wintarget/internal/wt/wtwmi"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	configPath   string
	outputFormat string
	noHeaders    bool
)

func main() {
	klog.InitFlags(nil)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wintarget",
	Short: "Wintarget - Windows iSCSI target volume tool",
	Long: `Wintarget manages VHD backed volumes exported over iSCSI by the
Microsoft iSCSI Software Target.

It provides commands to provision volumes and snapshots, manage their
iSCSI exports and initiator access, and move image service content in
and out of volumes.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the driver configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, yaml, json)")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false, "Omit headers in table output")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(connectionCmd)
	rootCmd.AddCommand(imageCmd)
}

// runtime bundles everything a command needs to run driver operations.
type runtime struct {
	cfg     *config.Config
	manager *iscsi.Manager
	driver  *driver.Driver
	cleanup func()
}

// loadConfig reads the configuration file named by --config, falling
// back to built in defaults when the flag is unset.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(configPath)
}

// newBackend opens the target backend selected by the configuration.
// The returned cleanup releases it.
func newBackend(cfg *config.Config) (iscsi.Backend, func(), error) {
	if cfg.Backend == config.BackendFake {
		return wtfake.New(), func() {}, nil
	}

	backend, err := wtwmi.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to the WMI service: %w", err)
	}
	return backend, backend.Close, nil
}

// newRuntime loads the configuration and wires the driver. With
// withImages set it also authenticates against the image service so
// the image transfer operations are available.
func newRuntime(ctx context.Context, withImages bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	backend, cleanup, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	manager := iscsi.NewManager(backend)

	var images driver.ImagePipeline
	if withImages {
		if cfg.ImageService == nil {
			cleanup()
			return nil, fmt.Errorf("image_service is not configured; add it to the config file")
		}

		svc, err := glance.New(ctx, glance.Options{
			AuthURL:    cfg.ImageService.AuthURL,
			Username:   cfg.ImageService.Username,
			Password:   cfg.ImageService.Password,
			TenantName: cfg.ImageService.TenantName,
			DomainName: cfg.ImageService.DomainName,
			Region:     cfg.ImageService.Region,
			Insecure:   cfg.ImageService.Insecure,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to connect to the image service: %w", err)
		}

		images = image.NewPipeline(svc, image.NewQemu(cfg.QemuImgCmd), manager, cfg.ScratchDir)
	}

	return &runtime{
		cfg:     cfg,
		manager: manager,
		driver:  driver.New(cfg, manager, images),
		cleanup: cleanup,
	}, nil
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the storage host setup",
	Long:  `Verify that the iSCSI target service is reachable and its portal is accepting connections.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Checking storage host setup...")

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		if err := rt.driver.CheckForSetupError(); err != nil {
			return fmt.Errorf("setup check failed: %w", err)
		}

		fmt.Println("✓ iSCSI target portal is listening")
		fmt.Println("\nSetup check successful!")
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show backend stats",
	Long: `Display the capability and capacity information the driver reports
to the volume scheduler.

Output formats:
  -o table  Human-readable table (default)
  -o yaml   Full YAML document
  -o json   Full JSON document`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := output.ValidateFormat(outputFormat); err != nil {
			return err
		}

		rt, err := newRuntime(context.Background(), false)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		stats := rt.driver.GetVolumeStats(true)

		formatter, err := output.NewFormatter(output.Options{
			Format:    output.Format(outputFormat),
			NoHeaders: noHeaders,
		})
		if err != nil {
			return err
		}

		result, err := formatter.FormatStats(&stats)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}
