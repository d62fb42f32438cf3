package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/ircarchive/internal/config"
	"github.com/MikeSquared-Agency/ircarchive/internal/store"
	"github.com/MikeSquared-Agency/ircarchive/internal/transcript"
)

var version = "dev"

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:     "ircarchive",
		Short:   "Turn mIRC transcripts into session and chunk records",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cfg.LogLevel)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(parseCmd(&cfg))
	rootCmd.AddCommand(chunkCmd(&cfg))
	rootCmd.AddCommand(runCmd(&cfg))
	rootCmd.AddCommand(publishCmd(&cfg))
	rootCmd.AddCommand(watchCmd(&cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// stdout carries the summary; logs go to stderr.
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// newParser builds the transcript parser from the rules file and encoding list.
func newParser(cfg *config.Config) (*transcript.Parser, error) {
	if err := transcript.ValidateEncodings(cfg.Encodings); err != nil {
		return nil, err
	}
	rules := transcript.DefaultRules()
	if cfg.RulesFile != "" {
		var err error
		rules, err = transcript.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		slog.Info("noise rules loaded", "file", cfg.RulesFile, "rules", rules.Len())
	}
	return transcript.NewParser(transcript.NewClassifier(rules), cfg.Encodings, slog.Default()), nil
}

func openSink(ctx context.Context, cfg *config.Config) (store.Sink, error) {
	sink, err := store.Open(ctx, cfg.Sink, store.Options{
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}
	if cfg.Sink != "" && cfg.Sink != store.KindNone {
		slog.Info("sink ready", "kind", cfg.Sink)
	}
	return sink, nil
}

// addSinkFlags registers the flags shared by commands that can write to a sink.
func addSinkFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.Sink, "sink", cfg.Sink, "also write records to a sink: none, postgres or sqlite")
	cmd.Flags().StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "database file for the sqlite sink")
}

// addParseFlags registers the flags shared by commands that read transcripts.
func addParseFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().IntVarP(&cfg.MinMessages, "min-messages", "m", cfg.MinMessages, "minimum messages per session to include")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "files parsed in parallel")
	cmd.Flags().StringVar(&cfg.RulesFile, "rules", cfg.RulesFile, "YAML file of noise rules")
	cmd.Flags().StringSliceVar(&cfg.Encodings, "encodings", cfg.Encodings, "encodings tried in order")
	cmd.Flags().StringVar(&cfg.StateFile, "state", cfg.StateFile, "state file for resumable runs")
}
