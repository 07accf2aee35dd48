// Package iscsi manages iSCSI targets and the VHD backed virtual
// disks they export.
//
// The package wraps a Backend, which is the narrow surface of the
// Microsoft iSCSI Software Target object model the driver needs:
// portal and host queries, disk and snapshot lifecycle, initiator
// bindings and disk file management. The production backend lives in
// internal/wt/wtwmi and talks WMI; internal/wt/wtfake provides an in
// memory backend for tests and development.
//
// Targets are WT_Host objects addressed by host name, which the driver
// sets to the full target IQN. Disks are WT_Disk objects addressed by
// description, which the driver sets to the volume name. Manager
// methods rely on those descriptions being unique; the driver
// guarantees that by deriving them from volume names.
package iscsi
