package driver

import (
	"context"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/wintarget/wintarget/internal/config"
	"github.com/wintarget/wintarget/internal/image"
	"github.com/wintarget/wintarget/internal/iscsi"
	"github.com/wintarget/wintarget/internal/metrics"
)

// driverVersion is reported in volume stats.
const driverVersion = "1.0"

// ManagementClient is the slice of the iSCSI target manager the driver
// needs.
// This allows for dependency injection and testing.
type ManagementClient interface {
	CheckReachable() error
	HostConnectionInfo(targetName, volumeID, providerAuth string) (iscsi.ConnectionProperties, error)
	CreateTarget(targetName string, ensure bool) error
	RemoveTarget(targetName string) error
	BindInitiator(targetName, initiatorIQN string) error
	UnbindInitiator(targetName, initiatorIQN string) error
	CreateDisk(devicePath, name string, sizeGB int) error
	DeleteDisk(name, devicePath string) error
	AttachDisk(name, targetName string) error
	ExtendDisk(name string, additionalMB int64) error
	CopyDiskFile(src, dst string) error
	CreateSnapshot(volumeName, snapshotName string) error
	DeleteSnapshot(snapshotName string) error
	CreateVolumeFromSnapshot(volumeName, snapshotName string) error
}

// ImagePipeline moves image service content in and out of volume disk
// files.
// This allows for dependency injection and testing.
type ImagePipeline interface {
	ImportImage(ctx context.Context, imageID, destPath string) error
	ExportVolume(ctx context.Context, sourcePath string, meta image.Meta) error
}

// Driver serves volume driver operations against a Windows iSCSI
// target host.
type Driver struct {
	cfg    *config.Config
	mgmt   ManagementClient
	images ImagePipeline

	// stats holds the last refreshed backend stats. Zero valued until
	// GetVolumeStats is called with refresh.
	stats Stats
}

// New creates a driver using the given configuration, target manager
// and image pipeline.
func New(cfg *config.Config, mgmt ManagementClient, images ImagePipeline) *Driver {
	return &Driver{
		cfg:    cfg,
		mgmt:   mgmt,
		images: images,
	}
}

// CheckForSetupError verifies the iSCSI target service is up and
// accepting connections.
func (d *Driver) CheckForSetupError() error {
	return d.mgmt.CheckReachable()
}

// LocalPath returns the backing file path for a volume, creating the
// VHD root directory the first time it is needed. The returned path
// depends only on the configuration and the volume name.
func (d *Driver) LocalPath(volume *Volume) (string, error) {
	if _, err := os.Stat(d.cfg.VHDRoot); os.IsNotExist(err) {
		klog.V(2).Infof("Creating folder %s", d.cfg.VHDRoot)
		if err := os.MkdirAll(d.cfg.VHDRoot, 0755); err != nil {
			return "", fmt.Errorf("failed to create VHD root %s: %w", d.cfg.VHDRoot, err)
		}
	}
	return d.cfg.DiskPath(volume.Name), nil
}

// CreateVolume provisions a VHD backed virtual disk for the volume.
func (d *Driver) CreateVolume(volume *Volume) error {
	vhdPath, err := d.LocalPath(volume)
	if err != nil {
		return err
	}
	return d.mgmt.CreateDisk(vhdPath, volume.Name, volume.SizeGB)
}

// DeleteVolume removes the volume's virtual disk and its backing file.
func (d *Driver) DeleteVolume(volume *Volume) error {
	vhdPath, err := d.LocalPath(volume)
	if err != nil {
		return err
	}
	return d.mgmt.DeleteDisk(volume.Name, vhdPath)
}

// CreateSnapshot takes a point in time snapshot of the volume's disk.
func (d *Driver) CreateSnapshot(snapshot *Snapshot) error {
	return d.mgmt.CreateSnapshot(snapshot.VolumeName, snapshot.Name)
}

// DeleteSnapshot removes a snapshot from the storage host.
func (d *Driver) DeleteSnapshot(snapshot *Snapshot) error {
	return d.mgmt.DeleteSnapshot(snapshot.Name)
}

// CreateVolumeFromSnapshot materializes a snapshot as a new volume.
// The caller is expected to have chosen a fresh volume name.
func (d *Driver) CreateVolumeFromSnapshot(volume *Volume, snapshot *Snapshot) error {
	return d.mgmt.CreateVolumeFromSnapshot(volume.Name, snapshot.Name)
}

// doExport creates the volume's target and attaches its disk,
// returning the target name as the export location.
func (d *Driver) doExport(volume *Volume, ensure bool) (string, error) {
	targetName := d.cfg.TargetName(volume.Name)
	if err := d.mgmt.CreateTarget(targetName, ensure); err != nil {
		return "", err
	}
	if err := d.mgmt.AttachDisk(volume.Name, targetName); err != nil {
		return "", err
	}
	return targetName, nil
}

// CreateExport exposes the volume through a new iSCSI target and
// returns the location the caller should record on the volume.
func (d *Driver) CreateExport(ctx context.Context, volume *Volume) (Export, error) {
	loc, err := d.doExport(volume, false)
	if err != nil {
		return Export{}, err
	}
	return Export{ProviderLocation: loc}, nil
}

// EnsureExport re-establishes the volume's target after a service
// restart. An export that already exists is left alone.
func (d *Driver) EnsureExport(ctx context.Context, volume *Volume) error {
	_, err := d.doExport(volume, true)
	return err
}

// RemoveExport tears down the volume's target. Removing an export
// that is already gone is not an error.
func (d *Driver) RemoveExport(ctx context.Context, volume *Volume) error {
	return d.mgmt.RemoveTarget(d.cfg.TargetName(volume.Name))
}

// InitializeConnection grants the connector's initiator access to the
// volume's target and hands back everything needed to log in. The
// target is taken from the volume's recorded provider location.
func (d *Driver) InitializeConnection(volume *Volume, connector *Connector) (ConnectionInfo, error) {
	targetName := volume.ProviderLocation
	if err := d.mgmt.BindInitiator(targetName, connector.InitiatorIQN); err != nil {
		return ConnectionInfo{}, err
	}

	props, err := d.mgmt.HostConnectionInfo(targetName, volume.ID, volume.ProviderAuth)
	if err != nil {
		return ConnectionInfo{}, err
	}
	return ConnectionInfo{
		DriverVolumeType: "iscsi",
		Data:             connectionData(props),
	}, nil
}

// TerminateConnection revokes the connector's access to the volume's
// target.
func (d *Driver) TerminateConnection(volume *Volume, connector *Connector) error {
	return d.mgmt.UnbindInitiator(volume.ProviderLocation, connector.InitiatorIQN)
}

// CopyImageToVolume replaces the volume's backing file with the
// content of an image.
func (d *Driver) CopyImageToVolume(ctx context.Context, volume *Volume, imageID string) error {
	vhdPath, err := d.LocalPath(volume)
	if err != nil {
		return err
	}
	if err := d.images.ImportImage(ctx, imageID, vhdPath); err != nil {
		metrics.OperationErrorsCount.WithLabelValues("copy-image-to-volume").Inc()
		return err
	}
	return nil
}

// CopyVolumeToImage uploads the volume's content to an existing image
// record.
func (d *Driver) CopyVolumeToImage(ctx context.Context, volume *Volume, meta image.Meta) error {
	vhdPath, err := d.LocalPath(volume)
	if err != nil {
		return err
	}
	if err := d.images.ExportVolume(ctx, vhdPath, meta); err != nil {
		metrics.OperationErrorsCount.WithLabelValues("copy-volume-to-image").Inc()
		return err
	}
	return nil
}

// CreateClonedVolume provisions a new volume and fills it with a copy
// of the source volume's backing file.
func (d *Driver) CreateClonedVolume(volume, src *Volume) error {
	if err := d.CreateVolume(volume); err != nil {
		return err
	}

	srcPath, err := d.LocalPath(src)
	if err != nil {
		return err
	}
	dstPath, err := d.LocalPath(volume)
	if err != nil {
		return err
	}
	return d.mgmt.CopyDiskFile(srcPath, dstPath)
}

// GetVolumeStats returns the backend stats, refreshing them first when
// asked. Until the first refresh the returned stats are zero valued.
func (d *Driver) GetVolumeStats(refresh bool) Stats {
	if refresh {
		d.updateVolumeStats()
	}
	return d.stats
}

func (d *Driver) updateVolumeStats() {
	klog.V(2).Info("Updating volume stats")
	d.stats = Stats{
		VolumeBackendName:  d.cfg.BackendName,
		VendorName:         "Microsoft",
		DriverVersion:      driverVersion,
		StorageProtocol:    "iSCSI",
		TotalCapacityGB:    "infinite",
		FreeCapacityGB:     "infinite",
		ReservedPercentage: 100,
		QoSSupport:         false,
	}
}

// ExtendVolume grows the volume from its current size to newSizeGB.
func (d *Driver) ExtendVolume(volume *Volume, newSizeGB int) error {
	additionalMB := int64(newSizeGB-volume.SizeGB) * 1024
	if err := d.mgmt.ExtendDisk(volume.Name, additionalMB); err != nil {
		klog.Errorf("Error extending volume %s: %v", volume.Name, err)
		metrics.OperationErrorsCount.WithLabelValues("extend-volume").Inc()
		return &BackendAPIError{Volume: volume.Name, Err: err}
	}
	klog.V(2).Infof("Extended volume %s from %d GB to %d GB", volume.Name, volume.SizeGB, newSizeGB)
	return nil
}

func connectionData(props iscsi.ConnectionProperties) ConnectionData {
	return ConnectionData{
		TargetDiscovered: props.TargetDiscovered,
		TargetPortal:     props.TargetPortal,
		TargetIQN:        props.TargetIQN,
		TargetLun:        props.TargetLun,
		VolumeID:         props.VolumeID,
		AuthMethod:       props.AuthMethod,
		AuthUsername:     props.AuthUsername,
		AuthPassword:     props.AuthPassword,
	}
}
