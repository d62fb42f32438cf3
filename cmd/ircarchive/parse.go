package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/ircarchive/internal/config"
	"github.com/MikeSquared-Agency/ircarchive/internal/pipeline"
)

func parseCmd(cfg *config.Config) *cobra.Command {
	var (
		output string
		sample int
		resume bool
	)
	cmd := &cobra.Command{
		Use:   "parse <log_dir>",
		Short: "Parse mIRC log files into session records",
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
				Input:        args[0],
				SessionsPath: output,
				MinMessages:  cfg.MinMessages,
				Workers:      cfg.Workers,
				Limit:        sample,
				Resume:       resume,
			}, p, sink, state, slog.Default())

			st, err := r.Run(ctx)
			pipeline.WriteSummary(os.Stdout, "Parse", st)
			if state.Path() != "" {
				fmt.Printf("State file: %s\n", state.Path())
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "parsed_logs.jsonl", "output JSONL file")
	cmd.Flags().IntVarP(&sample, "sample", "s", 0, "only process N files (for testing)")
	cmd.Flags().BoolVar(&resume, "resume", false, "skip files already recorded in the state file and append to the output")
	addParseFlags(cmd, cfg)
	addSinkFlags(cmd, cfg)
	return cmd
}
