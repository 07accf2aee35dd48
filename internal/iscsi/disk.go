package iscsi

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/wintarget/wintarget/internal/wt"
)

// CreateDisk creates a VHD backed virtual disk at devicePath and tags
// it with name.
func (m *Manager) CreateDisk(devicePath, name string, sizeGB int) error {
	if err := m.backend.CreateDisk(devicePath, name, int64(sizeGB)*1024); err != nil {
		return fmt.Errorf("failed to create virtual disk %s: %w", name, err)
	}
	return nil
}

// DeleteDisk deletes the virtual disk tagged with name and its backing
// file. The disk object must exist; a backing file that is already
// gone is tolerated.
func (m *Manager) DeleteDisk(name, devicePath string) error {
	disks, err := m.backend.LookupDisks(name)
	if err != nil {
		return fmt.Errorf("failed to look up virtual disk %s: %w", name, err)
	}
	if len(disks) == 0 {
		return fmt.Errorf("virtual disk %s: %w", name, wt.ErrNotFound)
	}

	if err := m.backend.DeleteDisk(disks[0].WTD); err != nil {
		return fmt.Errorf("failed to delete virtual disk %s: %w", name, err)
	}
	if err := m.backend.DeleteFile(devicePath); err != nil {
		return fmt.Errorf("failed to delete disk file %s: %w", devicePath, err)
	}
	return nil
}

// AttachDisk exposes the virtual disk tagged with name through the
// target. A disk that does not exist is skipped.
func (m *Manager) AttachDisk(name, targetName string) error {
	disks, err := m.backend.LookupDisks(name)
	if err != nil {
		return fmt.Errorf("failed to look up virtual disk %s: %w", name, err)
	}
	if len(disks) == 0 {
		klog.V(2).Infof("Skipping attach of disk %s to target %s as it does not exist", name, targetName)
		return nil
	}

	if err := m.backend.AddDisk(targetName, disks[0].WTD); err != nil {
		return fmt.Errorf("failed to attach disk %s to target %s: %w", name, targetName, err)
	}
	return nil
}

// ExtendDisk grows the virtual disk tagged with name by additionalMB.
// A disk that does not exist is skipped.
func (m *Manager) ExtendDisk(name string, additionalMB int64) error {
	disks, err := m.backend.LookupDisks(name)
	if err != nil {
		return fmt.Errorf("failed to look up virtual disk %s: %w", name, err)
	}
	if len(disks) == 0 {
		klog.V(2).Infof("Skipping extend of disk %s as it does not exist", name)
		return nil
	}

	if err := m.backend.ExtendDisk(disks[0].WTD, additionalMB); err != nil {
		return fmt.Errorf("failed to extend disk %s by %d MB: %w", name, additionalMB, err)
	}
	return nil
}

// CopyDiskFile copies a disk file on the storage host. A source that
// does not exist is skipped.
func (m *Manager) CopyDiskFile(src, dst string) error {
	if err := m.backend.CopyFile(src, dst); err != nil {
		return fmt.Errorf("failed to copy disk file %s to %s: %w", src, dst, err)
	}
	return nil
}
