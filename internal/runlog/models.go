package runlog

import "time"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunStart describes a run as it begins.
type RunStart struct {
	DumpPath        string
	Outputs         []string
	Namespace       int
	Workers         int
	WriterInterlock string
}

// RunResult carries the counters recorded when a run stops.
type RunResult struct {
	PagesSeen    int64
	PagesEmitted int64
	Redirects    int64
	Invalid      int64
	Written      int64
	Lost         int64
	BytesRead    int64
}

// Run is one row of the ledger.
type Run struct {
	ID              string
	DumpPath        string
	Outputs         []string
	Namespace       int
	Workers         int
	WriterInterlock string
	Status          Status
	StartedAt       time.Time
	FinishedAt      *time.Time
	Result          RunResult
	ErrorMessage    string
}

// Duration is the wall time of a finished run, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
