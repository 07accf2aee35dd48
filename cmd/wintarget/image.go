package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wintarget/wintarget/internal/driver"
	"github.com/wintarget/wintarget/internal/image"
)

// Image transfer commands
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Move image service content",
	Long: `Move image service content in and out of volumes.

Downloads convert the image to VHD when needed before it lands in the
volume's backing file. Uploads convert the volume content to the image
record's disk format. Both require the image_service section in the
configuration file.`,
}

func init() {
	imageCmd.AddCommand(imageToVolumeCmd)
	imageCmd.AddCommand(imageFromVolumeCmd)

	imageFromVolumeCmd.Flags().String("image-name", "", "New name for the image record")
	imageFromVolumeCmd.Flags().String("disk-format", image.FormatVHD, "Disk format recorded on the image")
	imageFromVolumeCmd.Flags().String("container-format", "bare", "Container format recorded on the image")
}

var imageToVolumeCmd = &cobra.Command{
	Use:   "to-volume <image-id> <volume-name>",
	Short: "Copy an image into a volume",
	Long: `Download an image and write it into a volume's backing file as VHD.

The volume's previous content is replaced. Images that are not already
VHD are converted with qemu-img.

Example:
  wintarget image to-volume 8a9f3c1e volume-1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		imageID := args[0]
		volumeName := args[1]

		ctx := context.Background()
		rt, err := newRuntime(ctx, true)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Copying image %s into volume %s...\n", imageID, volumeName)

		volume := &driver.Volume{Name: volumeName}
		if err := rt.driver.CopyImageToVolume(ctx, volume, imageID); err != nil {
			return fmt.Errorf("failed to copy image to volume: %w", err)
		}

		fmt.Printf("✓ Image %s copied into volume %s\n", imageID, volumeName)
		return nil
	},
}

var imageFromVolumeCmd = &cobra.Command{
	Use:   "from-volume <volume-name> <image-id>",
	Short: "Upload a volume to an image",
	Long: `Upload a volume's content to an existing image record.

With the default vhd disk format the backing file is streamed as is.
Other formats are converted with qemu-img first, and the image record
is patched with the given name and formats.

Example:
  wintarget image from-volume volume-1 8a9f3c1e --disk-format qcow2`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		volumeName := args[0]
		imageID := args[1]

		imageName, _ := cmd.Flags().GetString("image-name")
		diskFormat, _ := cmd.Flags().GetString("disk-format")
		containerFormat, _ := cmd.Flags().GetString("container-format")

		ctx := context.Background()
		rt, err := newRuntime(ctx, true)
		if err != nil {
			return err
		}
		defer rt.cleanup()

		fmt.Printf("Uploading volume %s to image %s...\n", volumeName, imageID)

		volume := &driver.Volume{Name: volumeName}
		meta := image.Meta{
			ID:              imageID,
			Name:            imageName,
			DiskFormat:      diskFormat,
			ContainerFormat: containerFormat,
		}
		if err := rt.driver.CopyVolumeToImage(ctx, volume, meta); err != nil {
			return fmt.Errorf("failed to upload volume to image: %w", err)
		}

		fmt.Printf("✓ Volume %s uploaded to image %s\n", volumeName, imageID)
		return nil
	},
}
