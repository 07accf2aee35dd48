package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wintarget/wintarget/internal/driver"
)

// YAMLFormatter formats resources as YAML.
type YAMLFormatter struct{}

// FormatStats formats backend stats as YAML.
func (f *YAMLFormatter) FormatStats(stats *driver.Stats) (string, error) {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats to YAML: %w", err)
	}

	return string(data), nil
}

// FormatConnectionInfo formats connection properties as YAML.
func (f *YAMLFormatter) FormatConnectionInfo(info *driver.ConnectionInfo) (string, error) {
	data, err := yaml.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to marshal connection info to YAML: %w", err)
	}

	return string(data), nil
}
