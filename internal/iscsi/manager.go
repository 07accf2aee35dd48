package iscsi

import (
	"fmt"
	"strings"

	"github.com/wintarget/wintarget/internal/wt"
)

// Backend is the interface for iSCSI software target operations.
// This allows for dependency injection and testing.
type Backend interface {
	QueryPortal() (wt.Portal, error)
	QueryHost(name string) (wt.Host, error)
	CreateHost(name string) error
	DeleteHost(name string) error
	RemoveAllDisks(hostName string) error
	AddDisk(hostName string, wtd int) error
	CreateDisk(devicePath, description string, sizeMB int64) error
	LookupDisks(description string) ([]wt.Disk, error)
	SetDiskDescription(wtd int, description string) error
	DeleteDisk(wtd int) error
	ExtendDisk(wtd int, additionalMB int64) error
	CreateSnapshot(wtd int) (string, error)
	LookupSnapshots(description string) ([]wt.Snapshot, error)
	SetSnapshotDescription(id, description string) error
	DeleteSnapshot(id string) error
	ExportSnapshot(id string) (int, error)
	AddIDMethod(hostName string, method int, value string) error
	DeleteIDMethod(hostName string, method int, value string) error
	CopyFile(src, dst string) error
	DeleteFile(path string) error
}

// Manager coordinates target, disk and snapshot operations.
type Manager struct {
	backend Backend
}

// NewManager creates a new iSCSI target manager.
func NewManager(backend Backend) *Manager {
	return &Manager{
		backend: backend,
	}
}

// CheckReachable verifies that the target portal exists and is
// accepting sessions.
func (m *Manager) CheckReachable() error {
	portal, err := m.backend.QueryPortal()
	if err != nil {
		return fmt.Errorf("failed to query iSCSI target portal: %w", err)
	}
	if !portal.Listening {
		return fmt.Errorf("iSCSI target portal %s:%d is not listening: %w", portal.Address, portal.Port, wt.ErrUnavailable)
	}
	return nil
}

// ConnectionProperties describes how an initiator reaches an exported
// disk. Auth fields are only set when the volume carries provider
// auth.
type ConnectionProperties struct {
	TargetDiscovered bool
	TargetPortal     string
	TargetIQN        string
	TargetLun        int
	VolumeID         string
	AuthMethod       string
	AuthUsername     string
	AuthPassword     string
}

// HostConnectionInfo assembles the portal and target properties an
// initiator needs to log in to targetName. providerAuth, when set,
// carries "<method> <username> <password>" as stored by the volume
// service.
func (m *Manager) HostConnectionInfo(targetName, volumeID, providerAuth string) (ConnectionProperties, error) {
	portal, err := m.backend.QueryPortal()
	if err != nil {
		return ConnectionProperties{}, fmt.Errorf("failed to query iSCSI target portal: %w", err)
	}

	host, err := m.backend.QueryHost(targetName)
	if err != nil {
		return ConnectionProperties{}, fmt.Errorf("failed to query target %s: %w", targetName, err)
	}

	props := ConnectionProperties{
		TargetDiscovered: false,
		TargetPortal:     fmt.Sprintf("%s:%d", portal.Address, portal.Port),
		TargetIQN:        host.TargetIQN,
		TargetLun:        0,
		VolumeID:         volumeID,
	}

	if providerAuth != "" {
		fields := strings.Fields(providerAuth)
		if len(fields) != 3 {
			return ConnectionProperties{}, fmt.Errorf("malformed provider auth %q, want \"<method> <username> <password>\"", providerAuth)
		}
		props.AuthMethod = fields[0]
		props.AuthUsername = fields[1]
		props.AuthPassword = fields[2]
	}

	return props, nil
}
