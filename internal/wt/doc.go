// Package wt models the object schema exposed by the Microsoft iSCSI
// Software Target WMI provider (the root\wmi namespace) plus the small
// slice of root\cimv2 used for virtual disk files.
//
// Object model:
//   - Portal: the singleton listen endpoint of the target service.
//   - Host: an iSCSI target. Initiators reach disks through a host, and
//     identification entries bound to the host decide who may connect.
//   - Disk: a file-backed virtual disk. The WTD handle is the service's
//     internal identifier; the Description field carries the volume name
//     and is the addressing key for every lookup, so it must stay unique
//     among live disks.
//   - Snapshot: a point-in-time copy of a disk. The service assigns the
//     Id at creation; callers re-tag the Description immediately after,
//     and the Description is the addressing key from then on.
//
// Implementations of the management surface live in the subpackages:
// wtwmi speaks to the real provider through OLE automation, wtfake keeps
// everything in memory for tests and for running without a Windows host.
package wt
