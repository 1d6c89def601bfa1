package primitives

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseChartYAML decodes and validates a YAML chart definition.
func ParseChartYAML(data []byte) (*ChartConfig, error) {
	var cfg ChartConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chart %q: %w", cfg.Name, err)
	}
	return &cfg, nil
}

// ParseChartJSON decodes and validates a JSON chart definition.
func ParseChartJSON(data []byte) (*ChartConfig, error) {
	var cfg ChartConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chart %q: %w", cfg.Name, err)
	}
	return &cfg, nil
}

// LoadChartFile reads a chart from disk, choosing the decoder by extension
// (.json, otherwise YAML).
func LoadChartFile(path string) (*ChartConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseChartJSON(data)
	}
	return ParseChartYAML(data)
}

// EncodeYAML encodes the chart as YAML.
func (c *ChartConfig) EncodeYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("yaml marshal: %w", err)
	}
	return data, nil
}
