package output

import (
	"encoding/json"
	"fmt"

	"github.com/wintarget/wintarget/internal/driver"
)

// JSONFormatter formats resources as JSON.
type JSONFormatter struct{}

// FormatStats formats backend stats as JSON.
func (f *JSONFormatter) FormatStats(stats *driver.Stats) (string, error) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatConnectionInfo formats connection properties as JSON.
func (f *JSONFormatter) FormatConnectionInfo(info *driver.ConnectionInfo) (string, error) {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal connection info to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
