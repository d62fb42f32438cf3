package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
)

// State tracks progress for resumable runs. A State without a path is kept in
// memory only.
type State struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	LastProcessedAt time.Time `json:"last_processed_at"`
	FilesProcessed  []string  `json:"files_processed"`
	FilesRemaining  int       `json:"files_remaining"`
	Stats           Stats     `json:"stats"`
	PublishOffset   int       `json:"publish_offset"`
	Errors          []string  `json:"errors"`

	path string // not serialized
}

// LoadState loads the state file at path, or starts a new run if it does not
// exist. An empty path gives a fresh in-memory state.
func LoadState(path string) (*State, error) {
	if path == "" {
		return newState(""), nil
	}
	p := expandHome(path)

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return newState(p), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if s.RunID == "" {
		s.RunID = uuid.NewString()
	}
	s.path = p
	return &s, nil
}

func newState(path string) *State {
	return &State{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		path:      path,
	}
}

// Reset discards everything recorded so far and starts a new run at the same path.
func (s *State) Reset() {
	*s = *newState(s.path)
}

// Path is where Save writes, or "" for an in-memory state.
func (s *State) Path() string { return s.path }

// Save persists the state to disk.
func (s *State) Save() error {
	s.LastProcessedAt = time.Now().UTC()
	if s.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	// Write-then-rename so an interrupted save leaves the previous state intact.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// IsProcessed returns true if the given file has already been processed.
func (s *State) IsProcessed(path string) bool {
	return slices.Contains(s.FilesProcessed, path)
}

// MarkProcessed records a file as processed.
func (s *State) MarkProcessed(path string) {
	s.FilesProcessed = append(s.FilesProcessed, path)
}

// AddError records a processing error.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
