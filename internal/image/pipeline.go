// Package image moves disk image content between an image service and
// the VHD files backing iSCSI volumes.
package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wintarget/wintarget/internal/metrics"
	"github.com/wintarget/wintarget/internal/naming"
)

// Disk image format names as used by qemu-img and the image service.
// qemu-img calls the VHD family "vpc".
const (
	FormatVPC = "vpc"
	FormatVHD = "vhd"
)

// ErrUnacceptable is returned when fetched or converted image content
// cannot back a volume.
var ErrUnacceptable = errors.New("image content unacceptable")

// Meta identifies the image record an export updates.
type Meta struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name,omitempty" yaml:"name,omitempty"`
	DiskFormat      string `json:"disk_format" yaml:"disk_format"`
	ContainerFormat string `json:"container_format" yaml:"container_format"`
}

// Service fetches and stores image content.
// This allows for dependency injection and testing.
type Service interface {
	Download(ctx context.Context, imageID string, w io.Writer) error
	Upload(ctx context.Context, imageID string, meta Meta, r io.Reader) error
}

// FileCopier copies disk files on the storage host.
type FileCopier interface {
	CopyDiskFile(src, dst string) error
}

// Pipeline fetches images into VHD files and uploads volumes back as
// images, converting formats with qemu-img where needed.
type Pipeline struct {
	svc        Service
	conv       Converter
	copier     FileCopier
	scratchDir string
}

// NewPipeline creates an image pipeline that stages downloads and
// conversions under scratchDir.
func NewPipeline(svc Service, conv Converter, copier FileCopier, scratchDir string) *Pipeline {
	return &Pipeline{
		svc:        svc,
		conv:       conv,
		copier:     copier,
		scratchDir: scratchDir,
	}
}

// ImportImage fetches an image and lands it at destPath as a VHD.
// Images without a recognizable format or with a backing file are
// rejected with ErrUnacceptable.
func (p *Pipeline) ImportImage(ctx context.Context, imageID, destPath string) error {
	if err := os.MkdirAll(p.scratchDir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory %s: %w", p.scratchDir, err)
	}

	tmp, err := os.CreateTemp(p.scratchDir, "fetch-*.img")
	if err != nil {
		return fmt.Errorf("failed to create temporary image file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := p.svc.Download(ctx, imageID, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to download image %s: %w", imageID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to finish writing image %s: %w", imageID, err)
	}

	info, err := p.conv.Info(ctx, tmpPath)
	if err != nil {
		return err
	}
	if info.Format == "" {
		return fmt.Errorf("image %s: probe reported no format: %w", imageID, ErrUnacceptable)
	}
	if info.BackingFilename != "" {
		return fmt.Errorf("image %s has backing file %s: %w", imageID, info.BackingFilename, ErrUnacceptable)
	}

	if !strings.Contains(info.Format, FormatVPC) {
		start := time.Now()
		if err := p.conv.Convert(ctx, tmpPath, destPath, FormatVPC); err != nil {
			return err
		}
		metrics.ConversionDuration.WithLabelValues("import").Observe(time.Since(start).Seconds())
	} else {
		// Already a VHD, copy it through the storage host untouched.
		if err := p.copier.CopyDiskFile(tmpPath, destPath); err != nil {
			return err
		}
	}

	check, err := p.conv.Info(ctx, destPath)
	if err != nil {
		return err
	}
	if check.Format != FormatVPC {
		return fmt.Errorf("image %s converted to %s but the result is %s: %w", imageID, FormatVPC, check.Format, ErrUnacceptable)
	}
	return nil
}

// ExportVolume uploads the volume file at sourcePath to the image
// record described by meta. A VHD upload streams the file as is and
// leaves the image record untouched; other formats are converted first
// and the record is updated to match.
func (p *Pipeline) ExportVolume(ctx context.Context, sourcePath string, meta Meta) error {
	if meta.DiskFormat == FormatVHD {
		f, err := os.Open(sourcePath)
		if err != nil {
			return fmt.Errorf("failed to open volume file %s: %w", sourcePath, err)
		}
		defer f.Close()
		if err := p.svc.Upload(ctx, meta.ID, Meta{}, f); err != nil {
			return fmt.Errorf("failed to upload volume %s: %w", sourcePath, err)
		}
		return nil
	}

	if err := os.MkdirAll(p.scratchDir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory %s: %w", p.scratchDir, err)
	}

	// Copy through the storage host first so the conversion reads a
	// consistent file rather than the exported disk.
	scratch := filepath.Join(p.scratchDir, naming.ScratchImageName(meta.ID))
	if err := p.copier.CopyDiskFile(sourcePath, scratch); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(p.scratchDir, "convert-*."+meta.DiskFormat)
	if err != nil {
		return fmt.Errorf("failed to create temporary image file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	start := time.Now()
	if err := p.conv.Convert(ctx, scratch, tmpPath, meta.DiskFormat); err != nil {
		return err
	}
	metrics.ConversionDuration.WithLabelValues("export").Observe(time.Since(start).Seconds())

	check, err := p.conv.Info(ctx, tmpPath)
	if err != nil {
		return err
	}
	if check.Format != meta.DiskFormat {
		return fmt.Errorf("volume converted to %s but the result is %s: %w", meta.DiskFormat, check.Format, ErrUnacceptable)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to open converted image %s: %w", tmpPath, err)
	}
	defer f.Close()
	if err := p.svc.Upload(ctx, meta.ID, meta, f); err != nil {
		return fmt.Errorf("failed to upload volume %s: %w", sourcePath, err)
	}
	return nil
}
