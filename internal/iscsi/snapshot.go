package iscsi

import (
	"fmt"

	"github.com/wintarget/wintarget/internal/wt"
)

// CreateSnapshot snapshots the virtual disk tagged with volumeName and
// tags the snapshot with snapshotName.
func (m *Manager) CreateSnapshot(volumeName, snapshotName string) error {
	disks, err := m.backend.LookupDisks(volumeName)
	if err != nil {
		return fmt.Errorf("failed to look up virtual disk %s: %w", volumeName, err)
	}
	if len(disks) == 0 {
		return fmt.Errorf("virtual disk %s: %w", volumeName, wt.ErrNotFound)
	}

	id, err := m.backend.CreateSnapshot(disks[0].WTD)
	if err != nil {
		return fmt.Errorf("failed to snapshot disk %s: %w", volumeName, err)
	}

	// The snapshot arrives with a provider assigned description, so
	// tag it with the snapshot name to make it addressable.
	if err := m.backend.SetSnapshotDescription(id, snapshotName); err != nil {
		return fmt.Errorf("failed to tag snapshot %s: %w", snapshotName, err)
	}
	return nil
}

// DeleteSnapshot deletes the snapshot tagged with snapshotName. The
// snapshot must exist.
func (m *Manager) DeleteSnapshot(snapshotName string) error {
	snaps, err := m.backend.LookupSnapshots(snapshotName)
	if err != nil {
		return fmt.Errorf("failed to look up snapshot %s: %w", snapshotName, err)
	}
	if len(snaps) == 0 {
		return fmt.Errorf("snapshot %s: %w", snapshotName, wt.ErrNotFound)
	}

	if err := m.backend.DeleteSnapshot(snaps[0].ID); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", snapshotName, err)
	}
	return nil
}

// CreateVolumeFromSnapshot exports the snapshot tagged with
// snapshotName as a new virtual disk and tags the disk with
// volumeName.
func (m *Manager) CreateVolumeFromSnapshot(volumeName, snapshotName string) error {
	snaps, err := m.backend.LookupSnapshots(snapshotName)
	if err != nil {
		return fmt.Errorf("failed to look up snapshot %s: %w", snapshotName, err)
	}
	if len(snaps) == 0 {
		return fmt.Errorf("snapshot %s: %w", snapshotName, wt.ErrNotFound)
	}

	wtd, err := m.backend.ExportSnapshot(snaps[0].ID)
	if err != nil {
		return fmt.Errorf("failed to export snapshot %s: %w", snapshotName, err)
	}

	// The exported disk arrives with a provider assigned description,
	// so tag it with the volume name to make it addressable.
	if err := m.backend.SetDiskDescription(wtd, volumeName); err != nil {
		return fmt.Errorf("failed to tag exported disk %s: %w", volumeName, err)
	}
	return nil
}
