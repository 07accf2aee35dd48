package iscsi

import (
	"testing"

	"github.com/wintarget/wintarget/internal/wt/wtfake"
)

func TestManager_CreateSnapshot(t *testing.T) {
	t.Run("existing volume", func(t *testing.T) {
		f := wtfake.New()
		m := NewManager(f)
		if err := m.CreateDisk(`C:\disks\volume-1.vhd`, "volume-1", 1); err != nil {
			t.Fatalf("CreateDisk() error = %v", err)
		}

		if err := m.CreateSnapshot("volume-1", "snapshot-1"); err != nil {
			t.Fatalf("CreateSnapshot() error = %v", err)
		}
		snaps, err := f.LookupSnapshots("snapshot-1")
		if err != nil || len(snaps) != 1 {
			t.Fatalf("LookupSnapshots() = %v, %v, want one snapshot", snaps, err)
		}
		if snaps[0].ID == "" {
			t.Error("snapshot has no id")
		}
	})

	t.Run("missing volume", func(t *testing.T) {
		f := wtfake.New()
		m := NewManager(f)

		if err := m.CreateSnapshot("volume-1", "snapshot-1"); err == nil {
			t.Error("CreateSnapshot() error = nil, want error for missing volume")
		}
	})
}

func TestManager_DeleteSnapshot(t *testing.T) {
	t.Run("existing snapshot", func(t *testing.T) {
		f := wtfake.New()
		m := NewManager(f)
		if err := m.CreateDisk(`C:\disks\volume-1.vhd`, "volume-1", 1); err != nil {
			t.Fatalf("CreateDisk() error = %v", err)
		}
		if err := m.CreateSnapshot("volume-1", "snapshot-1"); err != nil {
			t.Fatalf("CreateSnapshot() error = %v", err)
		}

		if err := m.DeleteSnapshot("snapshot-1"); err != nil {
			t.Fatalf("DeleteSnapshot() error = %v", err)
		}
		if snaps, _ := f.LookupSnapshots("snapshot-1"); len(snaps) != 0 {
			t.Errorf("LookupSnapshots() = %v, want empty after delete", snaps)
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		f := wtfake.New()
		m := NewManager(f)

		if err := m.DeleteSnapshot("snapshot-1"); err == nil {
			t.Error("DeleteSnapshot() error = nil, want error for missing snapshot")
		}
	})
}

func TestManager_CreateVolumeFromSnapshot(t *testing.T) {
	t.Run("existing snapshot", func(t *testing.T) {
		f := wtfake.New()
		m := NewManager(f)
		if err := m.CreateDisk(`C:\disks\volume-1.vhd`, "volume-1", 2); err != nil {
			t.Fatalf("CreateDisk() error = %v", err)
		}
		if err := m.CreateSnapshot("volume-1", "snapshot-1"); err != nil {
			t.Fatalf("CreateSnapshot() error = %v", err)
		}

		if err := m.CreateVolumeFromSnapshot("volume-2", "snapshot-1"); err != nil {
			t.Fatalf("CreateVolumeFromSnapshot() error = %v", err)
		}

		disks, err := f.LookupDisks("volume-2")
		if err != nil || len(disks) != 1 {
			t.Fatalf("LookupDisks() = %v, %v, want one disk", disks, err)
		}
		src, _ := f.LookupDisks("volume-1")
		if len(src) != 1 {
			t.Fatalf("source disk disappeared")
		}
		if disks[0].WTD == src[0].WTD {
			t.Error("exported disk reused the source WTD handle")
		}
		if disks[0].SizeMB != src[0].SizeMB {
			t.Errorf("exported SizeMB = %d, want %d", disks[0].SizeMB, src[0].SizeMB)
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		f := wtfake.New()
		m := NewManager(f)

		if err := m.CreateVolumeFromSnapshot("volume-2", "snapshot-1"); err == nil {
			t.Error("CreateVolumeFromSnapshot() error = nil, want error for missing snapshot")
		}
	})
}
