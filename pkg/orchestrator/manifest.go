package orchestrator

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunManifest records the complete metadata of a model run. Written as
// run.yaml after the run completes or fails.
type RunManifest struct {
	RunID     string        `yaml:"run_id"`
	Program   string        `yaml:"program"`
	StartedAt string        `yaml:"started_at"`
	EndedAt   string        `yaml:"ended_at"`
	Outcome   string        `yaml:"outcome"` // completed, failed
	Stages    []StageRecord `yaml:"stages"`
}

// StageRecord summarizes one stage of the run.
type StageRecord struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"` // passed, failed
	Error  string `yaml:"error,omitempty"`
}

func newManifest(runID, programPath string) *RunManifest {
	return &RunManifest{
		RunID:     runID,
		Program:   programPath,
		StartedAt: time.Now().Format(time.RFC3339),
	}
}

func (m *RunManifest) record(stage string, err error) {
	rec := StageRecord{Name: stage, Status: "passed"}
	if err != nil {
		rec.Status = "failed"
		rec.Error = err.Error()
	}
	m.Stages = append(m.Stages, rec)
}

func (m *RunManifest) save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
