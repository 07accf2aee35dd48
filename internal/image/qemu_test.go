package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInfo(t *testing.T) {
	out := []byte(`{
    "virtual-size": 1073741824,
    "filename": "volume-1.vhd",
    "cluster-size": 2097152,
    "format": "vpc",
    "actual-size": 8192,
    "dirty-flag": false
}`)

	info, err := parseInfo(out)
	require.NoError(t, err)
	assert.Equal(t, "vpc", info.Format)
	assert.Equal(t, int64(1073741824), info.VirtualSize)
	assert.Equal(t, int64(8192), info.ActualSize)
	assert.Empty(t, info.BackingFilename)
}

func TestParseInfoBackingFile(t *testing.T) {
	out := []byte(`{"format": "qcow2", "backing-filename": "base.img", "virtual-size": 42}`)

	info, err := parseInfo(out)
	require.NoError(t, err)
	assert.Equal(t, "qcow2", info.Format)
	assert.Equal(t, "base.img", info.BackingFilename)
}

func TestParseInfoGarbage(t *testing.T) {
	_, err := parseInfo([]byte("qemu-img: command not found"))
	assert.Error(t, err)
}

func TestNewQemuDefaultCommand(t *testing.T) {
	assert.Equal(t, DefaultCommand, NewQemu("").cmd)
	assert.Equal(t, `C:\qemu\qemu-img.exe`, NewQemu(`C:\qemu\qemu-img.exe`).cmd)
}
