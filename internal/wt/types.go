package wt

// IDMethodIQN is the identification method code for IQN (name based)
// entries in WT_IDMethod records.
const IDMethodIQN = 4

// Portal describes the target service's listen endpoint. The service
// exposes exactly one portal object.
type Portal struct {
	Address   string // listen address
	Port      int    // listen port
	Listening bool   // false when the service is not accepting sessions
}

// Host is an iSCSI target.
type Host struct {
	Name      string // target name, prefix + volume name by convention
	TargetIQN string // qualified name initiators connect to
}

// Disk is a file-backed virtual disk managed by the target service.
type Disk struct {
	WTD         int    // internal disk handle assigned by the service
	Description string // volume name; unique addressing key among live disks
	DevicePath  string // backing VHD file path
	SizeMB      int64  // provisioned size in MiB
}

// Snapshot is a point-in-time copy of a disk.
type Snapshot struct {
	ID          string // identifier assigned by the service at creation
	Description string // snapshot name; unique addressing key once re-tagged
}
