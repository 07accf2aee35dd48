// Package wtfake provides an in-memory implementation of the iSCSI
// software target backend for tests and for running the driver without
// a Windows storage host.
package wtfake

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wintarget/wintarget/internal/wt"
)

// Fake tracks hosts, disks, snapshots and virtual disk files in maps.
// Disk descriptions are unique across live disks so that lookups by
// description behave the way the driver assumes. Not safe for
// concurrent use.
type Fake struct {
	// Portal is returned verbatim by QueryPortal.
	Portal wt.Portal

	// Unreachable makes QueryPortal fail as if the target service
	// could not be contacted.
	Unreachable bool

	hosts map[string]*fakeHost
	disks map[int]*wt.Disk
	snaps map[string]*fakeSnapshot
	files map[string]string

	nextWTD int
}

type fakeHost struct {
	host     wt.Host
	disks    []int
	bindings []Binding
}

// Binding records an identification method bound to a host.
type Binding struct {
	Method int
	Value  string
}

type fakeSnapshot struct {
	snap   wt.Snapshot
	source wt.Disk
}

// New returns a Fake with a listening portal on the default iSCSI
// port.
func New() *Fake {
	return &Fake{
		Portal:  wt.Portal{Address: "127.0.0.1", Port: 3260, Listening: true},
		hosts:   map[string]*fakeHost{},
		disks:   map[int]*wt.Disk{},
		snaps:   map[string]*fakeSnapshot{},
		files:   map[string]string{},
		nextWTD: 1,
	}
}

func (f *Fake) QueryPortal() (wt.Portal, error) {
	if f.Unreachable {
		return wt.Portal{}, fmt.Errorf("failed to query portal: %w", wt.ErrUnavailable)
	}
	return f.Portal, nil
}

func (f *Fake) QueryHost(name string) (wt.Host, error) {
	h, ok := f.hosts[name]
	if !ok {
		return wt.Host{}, fmt.Errorf("host %q: %w", name, wt.ErrNotFound)
	}
	return h.host, nil
}

func (f *Fake) CreateHost(name string) error {
	if _, ok := f.hosts[name]; ok {
		return fmt.Errorf("host %q: %w", name, wt.ErrAlreadyExists)
	}
	f.hosts[name] = &fakeHost{host: wt.Host{Name: name, TargetIQN: name}}
	return nil
}

func (f *Fake) DeleteHost(name string) error {
	if _, ok := f.hosts[name]; !ok {
		return fmt.Errorf("host %q: %w", name, wt.ErrNotFound)
	}
	delete(f.hosts, name)
	return nil
}

func (f *Fake) RemoveAllDisks(hostName string) error {
	h, ok := f.hosts[hostName]
	if !ok {
		return fmt.Errorf("host %q: %w", hostName, wt.ErrNotFound)
	}
	h.disks = nil
	return nil
}

func (f *Fake) AddDisk(hostName string, wtd int) error {
	h, ok := f.hosts[hostName]
	if !ok {
		return fmt.Errorf("host %q: %w", hostName, wt.ErrNotFound)
	}
	if _, ok := f.disks[wtd]; !ok {
		return fmt.Errorf("disk %d: %w", wtd, wt.ErrNotFound)
	}
	h.disks = append(h.disks, wtd)
	return nil
}

func (f *Fake) CreateDisk(devicePath, description string, sizeMB int64) error {
	for _, d := range f.disks {
		if d.Description == description {
			return fmt.Errorf("disk description %q: %w", description, wt.ErrAlreadyExists)
		}
	}
	if _, ok := f.files[devicePath]; ok {
		return fmt.Errorf("disk file %q: %w", devicePath, wt.ErrAlreadyExists)
	}
	wtd := f.nextWTD
	f.nextWTD++
	f.disks[wtd] = &wt.Disk{WTD: wtd, Description: description, DevicePath: devicePath, SizeMB: sizeMB}
	f.files[devicePath] = fmt.Sprintf("vhd-%d", wtd)
	return nil
}

func (f *Fake) LookupDisks(description string) ([]wt.Disk, error) {
	var out []wt.Disk
	for _, d := range f.disks {
		if d.Description == description {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *Fake) SetDiskDescription(wtd int, description string) error {
	d, ok := f.disks[wtd]
	if !ok {
		return fmt.Errorf("disk %d: %w", wtd, wt.ErrNotFound)
	}
	d.Description = description
	return nil
}

func (f *Fake) DeleteDisk(wtd int) error {
	if _, ok := f.disks[wtd]; !ok {
		return fmt.Errorf("disk %d: %w", wtd, wt.ErrNotFound)
	}
	delete(f.disks, wtd)
	for _, h := range f.hosts {
		for i, id := range h.disks {
			if id == wtd {
				h.disks = append(h.disks[:i], h.disks[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (f *Fake) ExtendDisk(wtd int, additionalMB int64) error {
	d, ok := f.disks[wtd]
	if !ok {
		return fmt.Errorf("disk %d: %w", wtd, wt.ErrNotFound)
	}
	d.SizeMB += additionalMB
	return nil
}

func (f *Fake) CreateSnapshot(wtd int) (string, error) {
	d, ok := f.disks[wtd]
	if !ok {
		return "", fmt.Errorf("disk %d: %w", wtd, wt.ErrNotFound)
	}
	id := uuid.New().String()
	f.snaps[id] = &fakeSnapshot{
		snap:   wt.Snapshot{ID: id},
		source: *d,
	}
	return id, nil
}

func (f *Fake) LookupSnapshots(description string) ([]wt.Snapshot, error) {
	var out []wt.Snapshot
	for _, s := range f.snaps {
		if s.snap.Description == description {
			out = append(out, s.snap)
		}
	}
	return out, nil
}

func (f *Fake) SetSnapshotDescription(id, description string) error {
	s, ok := f.snaps[id]
	if !ok {
		return fmt.Errorf("snapshot %q: %w", id, wt.ErrNotFound)
	}
	s.snap.Description = description
	return nil
}

func (f *Fake) DeleteSnapshot(id string) error {
	if _, ok := f.snaps[id]; !ok {
		return fmt.Errorf("snapshot %q: %w", id, wt.ErrNotFound)
	}
	delete(f.snaps, id)
	return nil
}

func (f *Fake) ExportSnapshot(id string) (int, error) {
	s, ok := f.snaps[id]
	if !ok {
		return 0, fmt.Errorf("snapshot %q: %w", id, wt.ErrNotFound)
	}
	wtd := f.nextWTD
	f.nextWTD++
	f.disks[wtd] = &wt.Disk{WTD: wtd, DevicePath: s.source.DevicePath, SizeMB: s.source.SizeMB}
	return wtd, nil
}

func (f *Fake) AddIDMethod(hostName string, method int, value string) error {
	h, ok := f.hosts[hostName]
	if !ok {
		return fmt.Errorf("host %q: %w", hostName, wt.ErrNotFound)
	}
	h.bindings = append(h.bindings, Binding{Method: method, Value: value})
	return nil
}

func (f *Fake) DeleteIDMethod(hostName string, method int, value string) error {
	h, ok := f.hosts[hostName]
	if !ok {
		return fmt.Errorf("host %q: %w", hostName, wt.ErrNotFound)
	}
	for i, b := range h.bindings {
		if b.Method == method && b.Value == value {
			h.bindings = append(h.bindings[:i], h.bindings[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("id method %d=%q on host %q: %w", method, value, hostName, wt.ErrNotFound)
}

func (f *Fake) CopyFile(src, dst string) error {
	data, ok := f.files[src]
	if !ok {
		return nil
	}
	f.files[dst] = data
	return nil
}

func (f *Fake) DeleteFile(path string) error {
	delete(f.files, path)
	return nil
}

// AttachedDisks returns the WTD handles attached to a host in attach
// order.
func (f *Fake) AttachedDisks(hostName string) []int {
	h, ok := f.hosts[hostName]
	if !ok {
		return nil
	}
	return append([]int(nil), h.disks...)
}

// Bindings returns the identification methods bound to a host.
func (f *Fake) Bindings(hostName string) []Binding {
	h, ok := f.hosts[hostName]
	if !ok {
		return nil
	}
	return append([]Binding(nil), h.bindings...)
}

// FileContent returns the content of a virtual disk file.
func (f *Fake) FileContent(path string) (string, bool) {
	data, ok := f.files[path]
	return data, ok
}

// SeedFile places a virtual disk file without creating a disk.
func (f *Fake) SeedFile(path, content string) {
	f.files[path] = content
}
