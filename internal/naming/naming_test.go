package naming

import (
	"path/filepath"
	"testing"
)

func TestTargetName(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		volumeName string
		want       string
	}{
		{
			name:       "default prefix",
			prefix:     "iqn.2010-10.org.openstack:",
			volumeName: "volume-1",
			want:       "iqn.2010-10.org.openstack:volume-1",
		},
		{
			name:       "custom prefix",
			prefix:     "iqn.2004-04.example:storage:",
			volumeName: "volume-2f2c7b9d",
			want:       "iqn.2004-04.example:storage:volume-2f2c7b9d",
		},
		{
			name:       "empty prefix",
			prefix:     "",
			volumeName: "volume-1",
			want:       "volume-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetName(tt.prefix, tt.volumeName); got != tt.want {
				t.Errorf("TargetName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiskFileName(t *testing.T) {
	if got := DiskFileName("volume-1"); got != "volume-1.vhd" {
		t.Errorf("DiskFileName() = %q, want %q", got, "volume-1.vhd")
	}
}

func TestDiskPath(t *testing.T) {
	want := filepath.Join(`C:\iSCSIVirtualDisks`, "volume-1.vhd")
	if got := DiskPath(`C:\iSCSIVirtualDisks`, "volume-1"); got != want {
		t.Errorf("DiskPath() = %q, want %q", got, want)
	}
}

func TestScratchImageName(t *testing.T) {
	if got := ScratchImageName("7b1e1b7f"); got != "7b1e1b7f.vhd" {
		t.Errorf("ScratchImageName() = %q, want %q", got, "7b1e1b7f.vhd")
	}
}
