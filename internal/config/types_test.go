package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wintarget.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		path := writeConfig(t, "backend: fake\n")

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.VHDRoot != DefaultVHDRoot {
			t.Errorf("VHDRoot = %q, want %q", cfg.VHDRoot, DefaultVHDRoot)
		}
		if want := filepath.Join(DefaultVHDRoot, "conversion"); cfg.ScratchDir != want {
			t.Errorf("ScratchDir = %q, want %q", cfg.ScratchDir, want)
		}
		if cfg.QemuImgCmd != DefaultQemuImgCmd {
			t.Errorf("QemuImgCmd = %q, want %q", cfg.QemuImgCmd, DefaultQemuImgCmd)
		}
		if cfg.TargetPrefix != DefaultTargetPrefix {
			t.Errorf("TargetPrefix = %q, want %q", cfg.TargetPrefix, DefaultTargetPrefix)
		}
		if cfg.BackendName != DefaultBackendName {
			t.Errorf("BackendName = %q, want %q", cfg.BackendName, DefaultBackendName)
		}
	})

	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
vhd_root: 'D:\disks'
qemu_img_cmd: 'C:\qemu\qemu-img.exe'
target_prefix: 'iqn.2004-04.example:'
backend_name: winstore-1
backend: wmi
image_service:
  auth_url: https://keystone.example:5000/v3
  username: cinder
  password: secret
  tenant_name: services
  region: RegionOne
`)

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.VHDRoot != `D:\disks` {
			t.Errorf("VHDRoot = %q, want %q", cfg.VHDRoot, `D:\disks`)
		}
		// The scratch directory follows the VHD root.
		if want := filepath.Join(`D:\disks`, "conversion"); cfg.ScratchDir != want {
			t.Errorf("ScratchDir = %q, want %q", cfg.ScratchDir, want)
		}
		if cfg.ImageService == nil || cfg.ImageService.Region != "RegionOne" {
			t.Errorf("ImageService = %+v, want region RegionOne", cfg.ImageService)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("LoadFromFile() error = nil, want error")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "vhd_root: [unterminated\n")
		if _, err := LoadFromFile(path); err == nil {
			t.Error("LoadFromFile() error = nil, want error")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name: "unknown backend",
			mutate: func(c *Config) {
				c.Backend = "powershell"
			},
			wantErr: true,
		},
		{
			name: "target prefix without iqn",
			mutate: func(c *Config) {
				c.TargetPrefix = "eui.02004567A425678D:"
			},
			wantErr: true,
		},
		{
			name: "image service missing password",
			mutate: func(c *Config) {
				c.ImageService = &ImageServiceConfig{
					AuthURL:    "https://keystone.example:5000/v3",
					Username:   "cinder",
					TenantName: "services",
				}
			},
			wantErr: true,
		},
		{
			name: "complete image service",
			mutate: func(c *Config) {
				c.ImageService = &ImageServiceConfig{
					AuthURL:    "https://keystone.example:5000/v3",
					Username:   "cinder",
					Password:   "secret",
					TenantName: "services",
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_PathHelpers(t *testing.T) {
	cfg := Default()

	if want := filepath.Join(DefaultVHDRoot, "volume-1.vhd"); cfg.DiskPath("volume-1") != want {
		t.Errorf("DiskPath() = %q, want %q", cfg.DiskPath("volume-1"), want)
	}
	if want := "iqn.2010-10.org.openstack:volume-1"; cfg.TargetName("volume-1") != want {
		t.Errorf("TargetName() = %q, want %q", cfg.TargetName("volume-1"), want)
	}
}
