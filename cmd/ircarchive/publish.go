package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/ircarchive/internal/config"
	"github.com/MikeSquared-Agency/ircarchive/internal/hermes"
	"github.com/MikeSquared-Agency/ircarchive/internal/pipeline"
)

func publishCmd(cfg *config.Config) *cobra.Command {
	var resumeFrom int
	cmd := &cobra.Command{
		Use:   "publish <chunks.jsonl>",
		Short: "Publish chunk records to NATS in batches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			state, err := pipeline.LoadState(cfg.StateFile)
			if err != nil {
				return fmt.Errorf("load state: %w", err)
			}
			from := state.PublishOffset
			if cmd.Flags().Changed("resume-from") {
				from = resumeFrom
			}

			client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
			if err != nil {
				return err
			}
			defer client.Close()
			slog.Info("NATS connected", "url", cfg.NatsURL)

			pub := hermes.NewBatchPublisher(client, state.RunID, cfg.BatchSize, slog.Default())
			n, err := pub.PublishFile(ctx, args[0], from, func(next int) error {
				state.PublishOffset = next
				return state.Save()
			})
			fmt.Printf("\n=== Publish Summary ===\n")
			fmt.Printf("Chunks published: %d\n", n)
			fmt.Printf("Resume offset: %d\n", state.PublishOffset)
			if err != nil {
				return fmt.Errorf("%w (resume with --resume-from %d)", err, state.PublishOffset)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&resumeFrom, "resume-from", 0, "skip this many lines of the chunk file (default: offset saved in the state file)")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "chunks per published batch")
	cmd.Flags().StringVar(&cfg.NatsURL, "nats-url", cfg.NatsURL, "NATS server URL")
	cmd.Flags().StringVar(&cfg.StateFile, "state", cfg.StateFile, "state file holding the publish offset")
	return cmd
}
