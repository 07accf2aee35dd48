// Package naming provides the naming conventions that tie volumes,
// iSCSI targets and disk files together. Target names derive from
// volume names and disk files live under a single VHD root.
//
// These rules are load bearing: disks are addressed by volume name
// and targets by target name, so every component must derive them the
// same way.
package naming

import (
	"fmt"
	"path/filepath"
)

// TargetName returns the iSCSI target name for a volume.
// Format: {prefix}{volumeName}
//
// Example: prefix "iqn.2010-10.org.openstack:" and volume "volume-1"
// give "iqn.2010-10.org.openstack:volume-1"
func TargetName(prefix, volumeName string) string {
	return prefix + volumeName
}

// DiskFileName returns the VHD file name for a volume.
// Format: {volumeName}.vhd
func DiskFileName(volumeName string) string {
	return fmt.Sprintf("%s.vhd", volumeName)
}

// DiskPath returns the path of a volume's VHD file under root.
func DiskPath(root, volumeName string) string {
	return filepath.Join(root, DiskFileName(volumeName))
}

// ScratchImageName returns the staging copy name used when a volume
// is exported to the image identified by imageID.
// Format: {imageID}.vhd
func ScratchImageName(imageID string) string {
	return fmt.Sprintf("%s.vhd", imageID)
}
