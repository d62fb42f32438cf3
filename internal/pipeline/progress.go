package pipeline

import (
	"sync"
	"time"
)

// Progress is the live view of a run, safe for concurrent readers.
type Progress struct {
	mu     sync.Mutex
	status Status
}

// Status is a point-in-time copy of a run's progress.
type Status struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FilesTotal int       `json:"files_total"`
	FilesDone  int       `json:"files_done"`
	LastFile   string    `json:"last_file,omitempty"`
	Running    bool      `json:"running"`
	Stats      Stats     `json:"stats"`
}

func NewProgress() *Progress {
	return &Progress{}
}

// Snapshot returns the current status.
func (p *Progress) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Progress) start(runID string, files int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = Status{
		RunID:      runID,
		StartedAt:  time.Now().UTC(),
		FilesTotal: files,
		Running:    true,
	}
}

func (p *Progress) fileDone(path string, st Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.FilesDone++
	p.status.LastFile = path
	p.status.Stats = p.status.Stats.Merge(st)
}

func (p *Progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Running = false
}
