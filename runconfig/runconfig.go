// Package runconfig loads the test run configuration the report summarizes
package runconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

const DefaultReportFilename = "result.json"

// Load reads a run configuration file. The format is picked by extension:
// .toml is TOML, anything else is YAML.
func Load(path string) (types.RunConfig, error) {
	var cfg types.RunConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read run config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse run config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse run config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// ReportFilename returns the JSON report file name, defaulting it and
// adding the .json suffix when missing
func ReportFilename(name string) string {
	if name == "" {
		return DefaultReportFilename
	}
	if !strings.HasSuffix(name, ".json") {
		return name + ".json"
	}
	return name
}
