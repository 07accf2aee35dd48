// Package driver implements the volume driver contract for the
// Microsoft iSCSI Software Target.
//
// Volumes are VHD files under a configured root directory, exported as
// WT_Disk objects through per volume iSCSI targets. The driver wires
// three collaborators together:
//
//   - a ManagementClient (internal/iscsi) for targets, disks and
//     snapshots on the storage host
//   - an ImagePipeline (internal/image) for moving image service
//     content in and out of volume files
//   - the configuration (internal/config) for paths and naming
//
// The operation set mirrors what a block storage service expects from
// a volume driver: volume and snapshot lifecycle, export management,
// connection hand out, image transfer, cloning, stats and resize.
// Export locations are target names derived as <prefix><volume-name>
// and are recorded by the caller as the volume's provider location;
// connection handout trusts that recorded location rather than
// re-deriving it.
package driver
