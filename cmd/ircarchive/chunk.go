package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/ircarchive/internal/chunk"
	"github.com/MikeSquared-Agency/ircarchive/internal/config"
	"github.com/MikeSquared-Agency/ircarchive/internal/pipeline"
)

// addSegmentFlags registers the chunk size limits on cmd.
func addSegmentFlags(cmd *cobra.Command, seg *chunk.Segmenter) {
	cmd.Flags().IntVar(&seg.MaxMessages, "max-messages", chunk.DefaultMaxMessages, "maximum messages per chunk")
	cmd.Flags().IntVar(&seg.MaxChars, "max-chars", chunk.DefaultMaxChars, "maximum characters per chunk")
	cmd.Flags().DurationVar(&seg.MaxGap, "max-gap", chunk.DefaultMaxGap, "silence that starts a new chunk")
}

func chunkCmd(cfg *config.Config) *cobra.Command {
	var (
		output string
		seg    chunk.Segmenter
	)
	cmd := &cobra.Command{
		Use:   "chunk <sessions.jsonl>",
		Short: "Split session records into chunks for indexing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open sessions: %w", err)
			}
			defer in.Close()

			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()

			// The chunk file is rewritten, so publishing starts from its first line again.
			state, err := pipeline.LoadState(cfg.StateFile)
			if err != nil {
				return fmt.Errorf("load state: %w", err)
			}
			state.PublishOffset = 0
			if err := state.Save(); err != nil {
				return fmt.Errorf("save state: %w", err)
			}

			sink, err := openSink(ctx, cfg)
			if err != nil {
				return err
			}
			defer sink.Close()

			start := time.Now()
			cw := pipeline.NewChunkWriter(out, seg, cfg.MinChunkMessages, sink)
			st, err := pipeline.ChunkSessions(ctx, in, cw)
			if err != nil {
				slog.Error("chunking stopped", "sessions_read", st.Sessions, "error", err)
				return err
			}
			slog.Info("chunking complete", "sessions", st.Sessions, "chunks", st.Chunks, "elapsed", time.Since(start))

			pipeline.WriteSummary(os.Stdout, "Chunk", st)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "chunks.jsonl", "output JSONL file")
	cmd.Flags().IntVarP(&cfg.MinChunkMessages, "min-messages", "m", cfg.MinChunkMessages, "minimum messages per chunk")
	addSegmentFlags(cmd, &seg)
	addSinkFlags(cmd, cfg)
	cmd.Flags().StringVar(&cfg.StateFile, "state", cfg.StateFile, "state file holding the publish offset")
	return cmd
}
