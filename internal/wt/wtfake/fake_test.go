package wtfake

import (
	"errors"
	"testing"

	"github.com/wintarget/wintarget/internal/wt"
)

func TestFake_CreateHost(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *Fake)
		host    string
		wantErr error
	}{
		{
			name: "new host",
			host: "iqn.2010-10.org.openstack:volume-1",
		},
		{
			name: "duplicate host",
			setup: func(f *Fake) {
				f.CreateHost("iqn.2010-10.org.openstack:volume-1")
			},
			host:    "iqn.2010-10.org.openstack:volume-1",
			wantErr: wt.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			if tt.setup != nil {
				tt.setup(f)
			}

			err := f.CreateHost(tt.host)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CreateHost() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateHost() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFake_CreateDiskUniqueDescription(t *testing.T) {
	f := New()
	if err := f.CreateDisk(`C:\disks\volume-1.vhd`, "volume-1", 1024); err != nil {
		t.Fatalf("CreateDisk() error = %v", err)
	}

	err := f.CreateDisk(`C:\disks\other.vhd`, "volume-1", 1024)
	if !errors.Is(err, wt.ErrAlreadyExists) {
		t.Errorf("CreateDisk() error = %v, want %v", err, wt.ErrAlreadyExists)
	}
}

func TestFake_DeleteIDMethod(t *testing.T) {
	f := New()
	if err := f.CreateHost("target"); err != nil {
		t.Fatalf("CreateHost() error = %v", err)
	}

	err := f.DeleteIDMethod("target", wt.IDMethodIQN, "iqn.1991-05.com.microsoft:client")
	if !errors.Is(err, wt.ErrNotFound) {
		t.Fatalf("DeleteIDMethod() error = %v, want %v", err, wt.ErrNotFound)
	}

	if err := f.AddIDMethod("target", wt.IDMethodIQN, "iqn.1991-05.com.microsoft:client"); err != nil {
		t.Fatalf("AddIDMethod() error = %v", err)
	}
	if err := f.DeleteIDMethod("target", wt.IDMethodIQN, "iqn.1991-05.com.microsoft:client"); err != nil {
		t.Fatalf("DeleteIDMethod() error = %v", err)
	}
	if got := f.Bindings("target"); len(got) != 0 {
		t.Errorf("Bindings() = %v, want empty", got)
	}
}

func TestFake_FileOperations(t *testing.T) {
	f := New()

	// Copying a missing source and deleting a missing path are both
	// silent no-ops.
	if err := f.CopyFile(`C:\disks\missing.vhd`, `C:\disks\copy.vhd`); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	if _, ok := f.FileContent(`C:\disks\copy.vhd`); ok {
		t.Error("CopyFile() created destination from missing source")
	}
	if err := f.DeleteFile(`C:\disks\missing.vhd`); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}

	f.SeedFile(`C:\disks\src.vhd`, "payload")
	if err := f.CopyFile(`C:\disks\src.vhd`, `C:\disks\dst.vhd`); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	got, ok := f.FileContent(`C:\disks\dst.vhd`)
	if !ok || got != "payload" {
		t.Errorf("FileContent() = %q, %v, want %q, true", got, ok, "payload")
	}
}

func TestFake_ExportSnapshot(t *testing.T) {
	f := New()
	if err := f.CreateDisk(`C:\disks\volume-1.vhd`, "volume-1", 2048); err != nil {
		t.Fatalf("CreateDisk() error = %v", err)
	}
	disks, err := f.LookupDisks("volume-1")
	if err != nil || len(disks) != 1 {
		t.Fatalf("LookupDisks() = %v, %v, want one disk", disks, err)
	}

	id, err := f.CreateSnapshot(disks[0].WTD)
	if err != nil {
		t.Fatalf("CreateSnapshot() error = %v", err)
	}

	wtd, err := f.ExportSnapshot(id)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if wtd == disks[0].WTD {
		t.Error("ExportSnapshot() reused the source WTD handle")
	}
	if err := f.SetDiskDescription(wtd, "volume-2"); err != nil {
		t.Fatalf("SetDiskDescription() error = %v", err)
	}
	exported, err := f.LookupDisks("volume-2")
	if err != nil || len(exported) != 1 {
		t.Fatalf("LookupDisks() = %v, %v, want one disk", exported, err)
	}
	if exported[0].DevicePath != disks[0].DevicePath {
		t.Errorf("exported DevicePath = %q, want %q", exported[0].DevicePath, disks[0].DevicePath)
	}
	if exported[0].SizeMB != 2048 {
		t.Errorf("exported SizeMB = %d, want 2048", exported[0].SizeMB)
	}
}
