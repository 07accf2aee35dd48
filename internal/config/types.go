package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wintarget/wintarget/internal/naming"
)

// Backend selection values.
const (
	// BackendWMI drives the Microsoft iSCSI Software Target through
	// its WMI provider. Requires Windows.
	BackendWMI = "wmi"

	// BackendFake keeps all state in memory. Useful for development
	// and tests.
	BackendFake = "fake"
)

// Defaults applied by Normalize.
const (
	DefaultVHDRoot      = `C:\iSCSIVirtualDisks`
	DefaultQemuImgCmd   = "qemu-img.exe"
	DefaultTargetPrefix = "iqn.2010-10.org.openstack:"
	DefaultBackendName  = "Windows"
)

// Config is the driver configuration.
type Config struct {
	// VHDRoot is the directory on the storage host where volume VHD
	// files live.
	VHDRoot string `yaml:"vhd_root,omitempty"`

	// ScratchDir is the staging directory for image downloads and
	// conversions. Defaults to <vhd_root>\conversion.
	ScratchDir string `yaml:"scratch_dir,omitempty"`

	// QemuImgCmd is the qemu-img binary used for image conversion.
	QemuImgCmd string `yaml:"qemu_img_cmd,omitempty"`

	// TargetPrefix is prepended to volume names to form target names.
	TargetPrefix string `yaml:"target_prefix,omitempty"`

	// BackendName is the backend name reported in volume stats.
	BackendName string `yaml:"backend_name,omitempty"`

	// Backend selects the target backend, "wmi" or "fake".
	Backend string `yaml:"backend,omitempty"`

	// ImageService configures the Glance connection. Image transfer
	// commands fail when it is absent.
	ImageService *ImageServiceConfig `yaml:"image_service,omitempty"`
}

// ImageServiceConfig carries the Glance authentication settings.
type ImageServiceConfig struct {
	AuthURL    string `yaml:"auth_url"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	TenantName string `yaml:"tenant_name"`
	DomainName string `yaml:"domain_name,omitempty"`
	Region     string `yaml:"region,omitempty"`
	Insecure   bool   `yaml:"insecure,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills unset fields with their defaults.
// This is called automatically by LoadFromFile before validation.
func (c *Config) Normalize() {
	c.VHDRoot = strings.TrimSpace(c.VHDRoot)
	if c.VHDRoot == "" {
		c.VHDRoot = DefaultVHDRoot
	}

	c.ScratchDir = strings.TrimSpace(c.ScratchDir)
	if c.ScratchDir == "" {
		c.ScratchDir = filepath.Join(c.VHDRoot, "conversion")
	}

	c.QemuImgCmd = strings.TrimSpace(c.QemuImgCmd)
	if c.QemuImgCmd == "" {
		c.QemuImgCmd = DefaultQemuImgCmd
	}

	c.TargetPrefix = strings.TrimSpace(c.TargetPrefix)
	if c.TargetPrefix == "" {
		c.TargetPrefix = DefaultTargetPrefix
	}

	c.BackendName = strings.TrimSpace(c.BackendName)
	if c.BackendName == "" {
		c.BackendName = DefaultBackendName
	}

	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = BackendWMI
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Backend != BackendWMI && c.Backend != BackendFake {
		return fmt.Errorf("backend must be %q or %q, got %q", BackendWMI, BackendFake, c.Backend)
	}

	// Targets are addressed by IQN, so derived names must be IQNs.
	if !strings.HasPrefix(c.TargetPrefix, "iqn.") {
		return fmt.Errorf("target_prefix must start with \"iqn.\", got %q", c.TargetPrefix)
	}

	if c.ImageService != nil {
		if err := c.ImageService.Validate(); err != nil {
			return fmt.Errorf("image_service: %w", err)
		}
	}

	return nil
}

// Validate checks the image service settings.
func (i *ImageServiceConfig) Validate() error {
	if i.AuthURL == "" {
		return fmt.Errorf("auth_url is required")
	}
	if i.Username == "" {
		return fmt.Errorf("username is required")
	}
	if i.Password == "" {
		return fmt.Errorf("password is required")
	}
	if i.TenantName == "" {
		return fmt.Errorf("tenant_name is required")
	}
	return nil
}

// DiskPath returns the VHD file path for a volume name.
// Format: <vhd_root>\<volume-name>.vhd
func (c *Config) DiskPath(volumeName string) string {
	return naming.DiskPath(c.VHDRoot, volumeName)
}

// TargetName returns the iSCSI target name for a volume name.
// Format: <target_prefix><volume-name>
func (c *Config) TargetName(volumeName string) string {
	return naming.TargetName(c.TargetPrefix, volumeName)
}

// LoadFromFile loads a driver configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Normalize user input before validation
	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
