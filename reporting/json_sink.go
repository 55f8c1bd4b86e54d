package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum-optimism/infra/op-testreport/runconfig"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// JSONSink writes the report document
type JSONSink struct {
	dir      string
	filename string
}

func NewJSONSink(dir, filename string) *JSONSink {
	return &JSONSink{dir: dir, filename: runconfig.ReportFilename(filename)}
}

func (s *JSONSink) Name() string {
	return "json"
}

// Path is where the report is written
func (s *JSONSink) Path() string {
	return filepath.Join(s.dir, s.filename)
}

func (s *JSONSink) Write(_ context.Context, result *types.OverallResult) error {
	if s.dir == "" {
		return ErrNoOutputDir
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
