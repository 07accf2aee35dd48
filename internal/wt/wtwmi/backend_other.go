//go:build !windows

package wtwmi

import (
	"fmt"

	"github.com/wintarget/wintarget/internal/wt"
)

// Backend satisfies the target backend contract on platforms without
// the WMI provider so that the rest of the module builds there.
type Backend struct{}

// New always fails off Windows. The type still carries the full
// method set so callers can hold a *Backend regardless of platform.
func New() (*Backend, error) {
	return nil, errUnsupported()
}

func errUnsupported() error {
	return fmt.Errorf("the WMI backend requires Windows: %w", wt.ErrUnavailable)
}

func (b *Backend) Close() {}

func (b *Backend) QueryPortal() (wt.Portal, error) { return wt.Portal{}, errUnsupported() }

func (b *Backend) QueryHost(name string) (wt.Host, error) { return wt.Host{}, errUnsupported() }

func (b *Backend) CreateHost(name string) error { return errUnsupported() }

func (b *Backend) DeleteHost(name string) error { return errUnsupported() }

func (b *Backend) RemoveAllDisks(hostName string) error { return errUnsupported() }

func (b *Backend) AddDisk(hostName string, wtd int) error { return errUnsupported() }

func (b *Backend) CreateDisk(devicePath, description string, sizeMB int64) error {
	return errUnsupported()
}

func (b *Backend) LookupDisks(description string) ([]wt.Disk, error) {
	return nil, errUnsupported()
}

func (b *Backend) SetDiskDescription(wtd int, description string) error { return errUnsupported() }

func (b *Backend) DeleteDisk(wtd int) error { return errUnsupported() }

func (b *Backend) ExtendDisk(wtd int, additionalMB int64) error { return errUnsupported() }

func (b *Backend) CreateSnapshot(wtd int) (string, error) { return "", errUnsupported() }

func (b *Backend) LookupSnapshots(description string) ([]wt.Snapshot, error) {
	return nil, errUnsupported()
}

func (b *Backend) SetSnapshotDescription(id, description string) error { return errUnsupported() }

func (b *Backend) DeleteSnapshot(id string) error { return errUnsupported() }

func (b *Backend) ExportSnapshot(id string) (int, error) { return 0, errUnsupported() }

func (b *Backend) AddIDMethod(hostName string, method int, value string) error {
	return errUnsupported()
}

func (b *Backend) DeleteIDMethod(hostName string, method int, value string) error {
	return errUnsupported()
}

func (b *Backend) CopyFile(src, dst string) error { return errUnsupported() }

func (b *Backend) DeleteFile(path string) error { return errUnsupported() }
