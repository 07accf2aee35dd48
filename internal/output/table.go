package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/wintarget/wintarget/internal/driver"
)

// TableFormatter formats resources as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatStats formats backend stats as a single table row.
func (f *TableFormatter) FormatStats(stats *driver.Stats) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "BACKEND\tVENDOR\tVERSION\tPROTOCOL\tTOTAL\tFREE\tRESERVED\tQOS")
	}

	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d%%\t%t\n",
		stats.VolumeBackendName,
		stats.VendorName,
		stats.DriverVersion,
		stats.StorageProtocol,
		stats.TotalCapacityGB,
		stats.FreeCapacityGB,
		stats.ReservedPercentage,
		stats.QoSSupport)

	_ = w.Flush()
	return buf.String(), nil
}

// FormatConnectionInfo formats connection properties as a single table
// row. The CHAP password is not a column; use yaml or json output when
// the credentials are needed.
func (f *TableFormatter) FormatConnectionInfo(info *driver.ConnectionInfo) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "TYPE\tTARGET\tPORTAL\tLUN\tVOLUME\tAUTH")
	}

	auth := info.Data.AuthMethod
	if auth == "" {
		auth = "-"
	}

	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
		info.DriverVolumeType,
		info.Data.TargetIQN,
		info.Data.TargetPortal,
		info.Data.TargetLun,
		info.Data.VolumeID,
		auth)

	_ = w.Flush()
	return buf.String(), nil
}
