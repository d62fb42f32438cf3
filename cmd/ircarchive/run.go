package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/ircarchive/internal/api"
	"github.com/MikeSquared-Agency/ircarchive/internal/chunk"
	"github.com/MikeSquared-Agency/ircarchive/internal/config"
	"github.com/MikeSquared-Agency/ircarchive/internal/pipeline"
)

func runCmd(cfg *config.Config) *cobra.Command {
	var (
		sessionsOut string
		chunksOut   string
		sample      int
		resume      bool
		seg         chunk.Segmenter
	)
	cmd := &cobra.Command{
		Use:   "run <log_dir>",
		Short: "Parse and chunk in one pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := newParser(cfg)
			if err != nil {
				return err
			}
			sink, err := openSink(ctx, cfg)
			if err != nil {
				return err
			}
			defer sink.Close()

			state, err := pipeline.LoadState(cfg.StateFile)
			if err != nil {
				return fmt.Errorf("load state: %w", err)
			}

			r := pipeline.NewRunner(pipeline.Config{
				Input:            args[0],
				SessionsPath:     sessionsOut,
				ChunksPath:       chunksOut,
				MinMessages:      cfg.MinMessages,
				MinChunkMessages: cfg.MinChunkMessages,
				Segmenter:        seg,
				Workers:          cfg.Workers,
				Limit:            sample,
				Resume:           resume,
			}, p, sink, state, slog.Default())

			if cfg.StatusPort > 0 {
				srv := api.NewServer(cfg.StatusPort, r.Progress())
				go func() {
					if err := srv.Start(); err != nil {
						slog.Error("status server error", "error", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			st, err := r.Run(ctx)
			pipeline.WriteSummary(os.Stdout, "Run", st)
			if state.Path() != "" {
				fmt.Printf("State file: %s\n", state.Path())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&sessionsOut, "sessions", "parsed_logs.jsonl", "session JSONL output")
	cmd.Flags().StringVar(&chunksOut, "chunks", "chunks.jsonl", "chunk JSONL output")
	cmd.Flags().IntVar(&cfg.MinChunkMessages, "min-chunk-messages", cfg.MinChunkMessages, "minimum messages per chunk")
	cmd.Flags().IntVarP(&sample, "sample", "s", 0, "only process N files (for testing)")
	cmd.Flags().BoolVar(&resume, "resume", false, "skip files already recorded in the state file and append to the outputs")
	cmd.Flags().IntVar(&cfg.StatusPort, "status-port", cfg.StatusPort, "serve run status on this port (0 disables)")
	addParseFlags(cmd, cfg)
	addSegmentFlags(cmd, &seg)
	addSinkFlags(cmd, cfg)
	return cmd
}
