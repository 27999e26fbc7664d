// Package trace writes a per-invocation JSON record of a resolved plan and
// its outcome for observability. No part of resolution or execution
// depends on it — a trace write failure is logged and swallowed, never
// fatal to the run it's describing.
//
// Grounded on the teacher's internal/logs session metadata (GenerateSessionID,
// WriteSessionMetadata, the "latest" symlink), adapted from a long-lived
// daemon's session log into a one-shot execution trace.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/runsheet/runsheet/internal/executor"
)

// StepRecord is one step's entry in a Trace.
type StepRecord struct {
	TaskName   string `json:"task_name"`
	Command    string `json:"command"`
	Cwd        string `json:"cwd"`
	ExitCode   int    `json:"exit_code"`
	Skipped    bool   `json:"skipped"`
	DurationMS int64  `json:"duration_ms"`
}

// Trace is the full JSON record for one top-level invocation.
type Trace struct {
	SessionID string       `json:"session_id"`
	TaskName  string       `json:"task_name"`
	Args      []string     `json:"args,omitempty"`
	DryRun    bool         `json:"dry_run"`
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	ExitCode  int          `json:"exit_code"`
	Steps     []StepRecord `json:"steps"`
}

// New builds a Trace from a completed run. results and code are what
// executor.Run or executor.RunInvocation returned (for a dry run, the
// caller's own list of skipped steps and 0); start is the time the caller
// recorded before the invocation began.
func New(taskName string, args []string, dryRun bool, start time.Time, results []executor.StepResult, code int) *Trace {
	steps := make([]StepRecord, 0, len(results))
	for _, r := range results {
		steps = append(steps, StepRecord{
			TaskName:   r.Step.TaskName,
			Command:    r.Step.Command,
			Cwd:        r.Step.Cwd,
			ExitCode:   r.ExitCode,
			Skipped:    r.Skipped,
			DurationMS: r.Duration.Milliseconds(),
		})
	}
	return &Trace{
		SessionID: uuid.New().String(),
		TaskName:  taskName,
		Args:      args,
		DryRun:    dryRun,
		StartTime: start,
		EndTime:   time.Now(),
		ExitCode:  code,
		Steps:     steps,
	}
}

// Write serializes t under <root>/.runsheet/trace/<session id>.json and
// refreshes .runsheet/trace/latest/<task name>.json to point at it. Any
// failure is returned but is always non-fatal to the caller's own exit
// status — see Best.
func (t *Trace) Write(root string) error {
	dir := filepath.Join(root, ".runsheet", "trace")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create trace dir: %w", err)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}

	path := filepath.Join(dir, t.SessionID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}

	latestDir := filepath.Join(dir, "latest")
	if err := os.MkdirAll(latestDir, 0o755); err != nil {
		return fmt.Errorf("create latest dir: %w", err)
	}
	link := filepath.Join(latestDir, t.TaskName+".json")
	_ = os.Remove(link)
	if err := os.Symlink(path, link); err != nil {
		return fmt.Errorf("symlink latest: %w", err)
	}

	return nil
}

// Best writes t and reports any failure to stderr instead of returning it,
// since a trace write must never fail the run it describes.
func Best(t *Trace, root string) {
	if err := t.Write(root); err != nil {
		fmt.Fprintf(os.Stderr, "runsheet: trace not written: %v\n", err)
	}
}
