package driver

import (
	"fmt"
)

// Volume describes a volume as the block storage service hands it to
// the driver.
type Volume struct {
	// ID is the service assigned volume identifier.
	ID string `json:"id" yaml:"id"`

	// Name is the display independent volume name used for disk files
	// and target names.
	//
	// Example: volume-5f1e2c
	Name string `json:"name" yaml:"name"`

	// SizeGB is the provisioned size in gigabytes.
	SizeGB int `json:"size_gb" yaml:"size_gb"`

	// ProviderLocation is the export location recorded when the volume
	// was exported, the iSCSI target name.
	ProviderLocation string `json:"provider_location,omitempty" yaml:"provider_location,omitempty"`

	// ProviderAuth carries "<method> <username> <password>" when CHAP
	// credentials were assigned to the volume, empty otherwise.
	ProviderAuth string `json:"provider_auth,omitempty" yaml:"provider_auth,omitempty"`
}

// Snapshot describes a point in time copy of a volume.
type Snapshot struct {
	// Name identifies the snapshot on the storage host.
	Name string `json:"name" yaml:"name"`

	// VolumeName names the volume the snapshot was taken from.
	VolumeName string `json:"volume_name" yaml:"volume_name"`
}

// Connector identifies the host that wants to attach a volume.
type Connector struct {
	// InitiatorIQN is the iSCSI qualified name of the connecting host.
	InitiatorIQN string `json:"initiator" yaml:"initiator"`
}

// Export is returned by CreateExport so the caller can record where
// the volume is reachable.
type Export struct {
	ProviderLocation string `json:"provider_location" yaml:"provider_location"`
}

// ConnectionData carries everything an initiator needs to log in to an
// exported volume.
type ConnectionData struct {
	TargetDiscovered bool   `json:"target_discovered" yaml:"target_discovered"`
	TargetPortal     string `json:"target_portal" yaml:"target_portal"`
	TargetIQN        string `json:"target_iqn" yaml:"target_iqn"`
	TargetLun        int    `json:"target_lun" yaml:"target_lun"`
	VolumeID         string `json:"volume_id" yaml:"volume_id"`
	AuthMethod       string `json:"auth_method,omitempty" yaml:"auth_method,omitempty"`
	AuthUsername     string `json:"auth_username,omitempty" yaml:"auth_username,omitempty"`
	AuthPassword     string `json:"auth_password,omitempty" yaml:"auth_password,omitempty"`
}

// ConnectionInfo is the driver's answer to an attach request.
type ConnectionInfo struct {
	DriverVolumeType string         `json:"driver_volume_type" yaml:"driver_volume_type"`
	Data             ConnectionData `json:"data" yaml:"data"`
}

// Stats reports backend capability and capacity information. The
// target exports file backed disks from a plain NTFS volume, so
// capacity is reported as infinite and the scheduler is expected to
// weigh other factors.
type Stats struct {
	VolumeBackendName  string `json:"volume_backend_name" yaml:"volume_backend_name"`
	VendorName         string `json:"vendor_name" yaml:"vendor_name"`
	DriverVersion      string `json:"driver_version" yaml:"driver_version"`
	StorageProtocol    string `json:"storage_protocol" yaml:"storage_protocol"`
	TotalCapacityGB    string `json:"total_capacity_gb" yaml:"total_capacity_gb"`
	FreeCapacityGB     string `json:"free_capacity_gb" yaml:"free_capacity_gb"`
	ReservedPercentage int    `json:"reserved_percentage" yaml:"reserved_percentage"`
	QoSSupport         bool   `json:"QoS_support" yaml:"qos_support"`
}

// BackendAPIError reports a storage host failure while operating on a
// named volume.
type BackendAPIError struct {
	Volume string
	Err    error
}

func (e *BackendAPIError) Error() string {
	return fmt.Sprintf("backend operation on volume %s failed: %v", e.Volume, e.Err)
}

func (e *BackendAPIError) Unwrap() error {
	return e.Err
}
