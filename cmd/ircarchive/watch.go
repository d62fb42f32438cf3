package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/ircarchive/internal/config"
	"github.com/MikeSquared-Agency/ircarchive/internal/hermes"
)

func watchCmd(cfg *config.Config) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print chunk batches as they are published to NATS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			client, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
			if err != nil {
				return err
			}
			defer client.Close()
			slog.Info("watching chunk batches", "url", cfg.NatsURL, "subject", hermes.SubjectChunkBatch)

			var mu sync.Mutex
			batches, chunks := 0, 0
			err = hermes.WatchBatches(ctx, client, func(b hermes.Batch) {
				mu.Lock()
				defer mu.Unlock()
				batches++
				chunks += len(b.Chunks)
				fmt.Printf("run=%s offset=%d chunks=%d\n", b.RunID, b.Offset, len(b.Chunks))
				if count > 0 && batches >= count {
					cancel()
				}
			}, func(err error) {
				slog.Warn("invalid chunk batch", "error", err)
			})
			mu.Lock()
			defer mu.Unlock()
			fmt.Printf("\n=== Watch Summary ===\n")
			fmt.Printf("Batches received: %d\n", batches)
			fmt.Printf("Chunks received: %d\n", chunks)
			return err
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after this many batches (0 runs until interrupted)")
	cmd.Flags().StringVar(&cfg.NatsURL, "nats-url", cfg.NatsURL, "NATS server URL")
	return cmd
}
