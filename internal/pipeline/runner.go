package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/ircarchive/internal/chunk"
	"github.com/MikeSquared-Agency/ircarchive/internal/store"
	"github.com/MikeSquared-Agency/ircarchive/internal/transcript"
)

const (
	DefaultMinMessages = 2
	DefaultWorkers     = 4
)

// Config holds the run configuration.
type Config struct {
	Input            string // directory searched recursively for *.log, or a single file
	SessionsPath     string
	ChunksPath       string // empty skips the chunk stage
	MinMessages      int
	MinChunkMessages int
	Segmenter        chunk.Segmenter
	Workers          int
	Limit            int  // process at most this many files (0 = all)
	Resume           bool // skip files recorded in state and append to outputs
}

// Runner parses a transcript tree into session and chunk records.
type Runner struct {
	cfg      Config
	parser   *transcript.Parser
	sink     store.Sink
	state    *State
	progress *Progress
	logger   *slog.Logger
}

// NewRunner creates a runner. A nil sink discards and a nil state is kept in
// memory only.
func NewRunner(cfg Config, p *transcript.Parser, sink store.Sink, state *State, logger *slog.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if sink == nil {
		sink = store.Nop{}
	}
	if state == nil {
		state = newState("")
	}
	return &Runner{
		cfg:      cfg,
		parser:   p,
		sink:     sink,
		state:    state,
		progress: NewProgress(),
		logger:   logger,
	}
}

// Progress exposes live run status.
func (r *Runner) Progress() *Progress { return r.progress }

// State is the run's resumable state.
func (r *Runner) State() *State { return r.state }

type fileResult struct {
	path     string
	sessions []transcript.Session
	stats    Stats
	err      error
	done     chan struct{}
}

// Run discovers, parses and writes every pending file. Files are parsed in
// parallel but written in sorted path order. A file that cannot be read or
// decoded is recorded and skipped; failures writing outputs or the sink stop
// the run. Without Resume the state starts over, since the outputs are rewritten.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	if !r.cfg.Resume {
		r.state.Reset()
	}

	files, err := discoverFiles(r.cfg.Input)
	if err != nil {
		return Stats{}, fmt.Errorf("discover files: %w", err)
	}

	var pending []string
	for _, path := range files {
		if r.cfg.Resume && r.state.IsProcessed(path) {
			continue
		}
		pending = append(pending, path)
	}
	if r.cfg.Limit > 0 && len(pending) > r.cfg.Limit {
		pending = pending[:r.cfg.Limit]
	}

	r.logger.Info("files discovered",
		"total", len(files),
		"pending", len(pending),
		"workers", r.cfg.Workers,
		"run_id", r.state.RunID,
	)
	r.state.FilesRemaining = len(pending)
	r.progress.start(r.state.RunID, len(pending))
	defer r.progress.finish()

	sessOut, err := openOutput(r.cfg.SessionsPath, r.cfg.Resume)
	if err != nil {
		return Stats{}, err
	}
	defer sessOut.Close()

	var chunkOut io.Writer
	if r.cfg.ChunksPath != "" {
		f, err := openOutput(r.cfg.ChunksPath, r.cfg.Resume)
		if err != nil {
			return Stats{}, err
		}
		defer f.Close()
		chunkOut = f
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*fileResult, len(pending))
	for i, path := range pending {
		results[i] = &fileResult{path: path, done: make(chan struct{})}
	}

	// Parsed files wait in memory until the writer reaches them; window caps
	// how far parsing may run ahead.
	window := make(chan struct{}, 2*r.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for _, res := range results {
			select {
			case window <- struct{}{}:
			case <-gctx.Done():
				return
			}
			g.Go(func() error {
				defer close(res.done)
				r.parseFile(gctx, res)
				return nil
			})
		}
	}()
	wait := func() {
		cancel()
		<-launched
		_ = g.Wait()
	}

	var total Stats
	for i, res := range results {
		select {
		case <-res.done:
		case <-ctx.Done():
			wait()
			return total, r.interrupted(ctx)
		}
		if ctx.Err() != nil {
			wait()
			return total, r.interrupted(ctx)
		}

		if res.err != nil {
			r.logger.Warn("failed to parse file", "path", res.path, "error", res.err)
			r.state.AddError(fmt.Sprintf("parse %s: %v", res.path, res.err))
			st := Stats{Errors: 1}
			total = total.Merge(st)
			r.state.FilesRemaining--
			r.progress.fileDone(res.path, st)
			<-window
			continue
		}

		st, err := r.writeFile(ctx, res, sessOut, chunkOut)
		if err != nil {
			r.state.AddError(fmt.Sprintf("write %s: %v", res.path, err))
			_ = r.state.Save()
			wait()
			return total, fmt.Errorf("write %s: %w", res.path, err)
		}
		total = total.Merge(st)
		res.sessions = nil
		<-window

		r.state.MarkProcessed(res.path)
		r.state.FilesRemaining--
		r.state.Stats = r.state.Stats.Merge(st)
		if err := r.state.Save(); err != nil {
			r.logger.Warn("failed to save state", "error", err)
		}
		r.progress.fileDone(res.path, st)

		r.logger.Debug("file processed", "path", res.path, "sessions", st.Sessions, "chunks", st.Chunks)
		if (i+1)%100 == 0 {
			r.logger.Info("progress", "files_done", i+1, "files_total", len(pending), "sessions", total.Sessions)
		}
	}

	cancel()
	<-launched
	_ = g.Wait()

	if err := r.state.Save(); err != nil {
		r.logger.Warn("failed to save state", "error", err)
	}

	r.logger.Info("run complete",
		"files_processed", total.Files,
		"sessions", total.Sessions,
		"messages", total.Messages,
		"skipped_short", total.SkippedShort,
		"chunks", total.Chunks,
		"errors", total.Errors,
	)
	return total, nil
}

func (r *Runner) interrupted(ctx context.Context) error {
	r.logger.Info("run interrupted, saving state")
	_ = r.state.Save()
	return ctx.Err()
}

// parseFile fills res with the file's sessions that meet the minimum size.
func (r *Runner) parseFile(ctx context.Context, res *fileResult) {
	if ctx.Err() != nil {
		res.err = ctx.Err()
		return
	}
	seq, err := r.parser.ParseFile(res.path)
	if err != nil {
		res.err = err
		return
	}
	for s := range seq {
		if len(s.Messages) < r.cfg.MinMessages {
			res.stats.SkippedShort++
			continue
		}
		res.sessions = append(res.sessions, s)
		res.stats.Sessions++
		res.stats.Messages += len(s.Messages)
	}
	res.stats.Files = 1
}

// writeFile sends a parsed file's records to the sink and then appends them to
// the outputs, so a failed sink write leaves no partial file in the outputs.
func (r *Runner) writeFile(ctx context.Context, res *fileResult, sessOut io.Writer, chunkOut io.Writer) (Stats, error) {
	st := res.stats

	var sessBuf, chunkBuf bytes.Buffer
	sw := NewRecordWriter(&sessBuf)
	var cw *ChunkWriter
	if chunkOut != nil {
		cw = NewChunkWriter(&chunkBuf, r.cfg.Segmenter, r.cfg.MinChunkMessages, r.sink)
	}

	for _, s := range res.sessions {
		if err := sw.Write(s); err != nil {
			return st, err
		}
		if err := r.sink.WriteSession(ctx, s); err != nil {
			return st, fmt.Errorf("sink session %s: %w", s.SessionID, err)
		}
		if cw != nil {
			cst, err := cw.WriteSession(ctx, s)
			st = st.Merge(cst)
			if err != nil {
				return st, fmt.Errorf("chunk session %s: %w", s.SessionID, err)
			}
		}
	}

	if err := sw.Flush(); err != nil {
		return st, err
	}
	if _, err := sessOut.Write(sessBuf.Bytes()); err != nil {
		return st, fmt.Errorf("write sessions: %w", err)
	}
	if cw != nil {
		if err := cw.Flush(); err != nil {
			return st, err
		}
		if _, err := chunkOut.Write(chunkBuf.Bytes()); err != nil {
			return st, fmt.Errorf("write chunks: %w", err)
		}
	}
	return st, nil
}

func discoverFiles(input string) ([]string, error) {
	path := expandHome(input)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input not found: %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".log") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func openOutput(path string, appendTo bool) (*os.File, error) {
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendTo {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return f, nil
}
