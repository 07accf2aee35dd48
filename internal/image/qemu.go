package image

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// DefaultCommand is the qemu-img binary used when the configuration
// does not name one.
const DefaultCommand = "qemu-img.exe"

// Info describes a disk image as reported by qemu-img.
type Info struct {
	Format          string `json:"format"`
	BackingFilename string `json:"backing-filename"`
	VirtualSize     int64  `json:"virtual-size"`
	ActualSize      int64  `json:"actual-size"`
}

// Converter probes and converts disk images.
// This allows for dependency injection and testing.
type Converter interface {
	Info(ctx context.Context, path string) (Info, error)
	Convert(ctx context.Context, srcPath, dstPath, dstFormat string) error
}

// Qemu runs the qemu-img command line tool.
type Qemu struct {
	cmd string
}

// NewQemu creates a converter around the given qemu-img command. An
// empty cmd falls back to DefaultCommand.
func NewQemu(cmd string) *Qemu {
	if cmd == "" {
		cmd = DefaultCommand
	}
	return &Qemu{cmd: cmd}
}

// Info probes a disk image.
func (q *Qemu) Info(ctx context.Context, path string) (Info, error) {
	out, err := exec.CommandContext(ctx, q.cmd, "info", "--output=json", path).Output()
	if err != nil {
		return Info{}, fmt.Errorf("failed to probe image %s: %w", path, err)
	}
	return parseInfo(out)
}

// Convert rewrites a disk image into dstFormat.
func (q *Qemu) Convert(ctx context.Context, srcPath, dstPath, dstFormat string) error {
	cmd := exec.CommandContext(ctx, q.cmd, "convert", "-O", dstFormat, srcPath, dstPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to convert %s to %s: %w\nOutput: %s", srcPath, dstPath, err, string(output))
	}
	return nil
}

func parseInfo(out []byte) (Info, error) {
	var info Info
	if err := json.Unmarshal(out, &info); err != nil {
		return Info{}, fmt.Errorf("failed to parse qemu-img info output: %w", err)
	}
	return info, nil
}
