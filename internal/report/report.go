package report

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sheerbytes/thrubench/internal/stats"
)

// WorkloadResult is the persisted outcome of one workload.
type WorkloadResult struct {
	Workload string        `yaml:"workload"`
	Workers  int           `yaml:"workers"`
	Ops      int           `yaml:"ops_per_worker"`
	Failed   int64         `yaml:"failed_ops"`
	Summary  stats.Summary `yaml:",inline"`
}

// Run collects every workload result of one benchmark invocation.
type Run struct {
	ID        string           `yaml:"run_id"`
	StartedAt time.Time        `yaml:"started_at"`
	Results   []WorkloadResult `yaml:"results"`
}

// NewRun returns an empty run tagged with a fresh identifier.
func NewRun(startedAt time.Time) Run {
	return Run{
		ID:        uuid.NewString(),
		StartedAt: startedAt,
	}
}

// Write persists the run as YAML. An empty path skips persistence.
func (r Run) Write(path string) error {
	if path == "" {
		return nil
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
