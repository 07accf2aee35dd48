// Package wtwmi implements the iSCSI software target backend on top of
// the WMI provider shipped with Microsoft iSCSI Software Target 3.3.
//
// Target objects (WT_Portal, WT_Host, WT_Disk, WT_Snapshot,
// WT_IDMethod) live in the root\wmi namespace. Virtual disk files are
// managed through CIM_DataFile in root\cimv2 so that copies and
// deletions happen on the storage host rather than through a network
// share.
//
// The backend is only functional on Windows. On other platforms the
// same type compiles but every operation reports wt.ErrUnavailable,
// which keeps the command line tooling buildable everywhere.
package wtwmi
