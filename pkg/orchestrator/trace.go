package orchestrator

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StageEvent is one JSONL trace record for a run stage.
type StageEvent struct {
	Type      string    `json:"type"` // stage_result
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"` // passed, failed
	Duration  string    `json:"duration"`
	Error     string    `json:"error,omitempty"`
}

// StageTrace writes stage events to a JSONL trace file.
type StageTrace struct {
	runID  string
	file   *os.File
	writer *bufio.Writer
	enc    *json.Encoder
}

// NewStageTrace creates a trace writer appending to the given file.
func NewStageTrace(path, runID string) (*StageTrace, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	w := bufio.NewWriter(f)
	return &StageTrace{runID: runID, file: f, writer: w, enc: json.NewEncoder(w)}, nil
}

// Write appends one stage result and flushes at the stage boundary.
func (t *StageTrace) Write(stage string, stageErr error, d time.Duration) {
	event := StageEvent{
		Type:      "stage_result",
		Timestamp: time.Now(),
		RunID:     t.runID,
		Stage:     stage,
		Status:    "passed",
		Duration:  d.String(),
	}
	if stageErr != nil {
		event.Status = "failed"
		event.Error = stageErr.Error()
	}
	if err := t.enc.Encode(event); err != nil {
		return
	}
	t.writer.Flush()
	t.file.Sync()
}

// Close flushes and closes the trace file.
func (t *StageTrace) Close() error {
	if err := t.writer.Flush(); err != nil {
		return err
	}
	return t.file.Close()
}
