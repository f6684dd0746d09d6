package pipeline

import "time"

// Report summarizes one pipeline run.
type Report struct {
	RunID     string
	OutputDir string
	// Files are the paths written, in write order.
	Files []string
	// Skipped are the chunks left out because they are ignored.
	Skipped  []string
	Duration time.Duration
}

// Empty reports whether the run wrote no files.
func (r *Report) Empty() bool { return r == nil || len(r.Files) == 0 }
