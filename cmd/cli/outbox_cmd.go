package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	postgresRepo "github.com/iho/orgconf/internal/adapter/repository/postgres"
	"github.com/iho/orgconf/internal/infrastructure/config"
	"github.com/iho/orgconf/internal/infrastructure/eventpublisher"
	"github.com/iho/orgconf/internal/infrastructure/logging"
	"github.com/iho/orgconf/internal/infrastructure/postgres"
)

func newOutboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and drain the event outbox",
	}
	cmd.AddCommand(newOutboxFlushCmd())
	return cmd
}

func newOutboxFlushCmd() *cobra.Command {
	var maxBatches int

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Publish pending outbox events until none remain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

			pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
				DatabaseURL:    cfg.DatabaseURL,
				MaxConns:       2,
				MinConns:       1,
				ConnectTimeout: cfg.DatabaseTimeout,
			})
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()

			var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(log.Component("events").Logger)
			if len(cfg.KafkaBrokers) > 0 {
				kafka, err := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
				if err != nil {
					return fmt.Errorf("create kafka publisher: %w", err)
				}
				defer kafka.Close()
				publisher = kafka
			}

			ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
				OutboxRepo: postgresRepo.NewOutboxRepository(pool, nil),
				Publisher:  publisher,
				Logger:     log.Component("outbox").Logger,
				BatchSize:  cfg.OutboxBatchSize,
				Retention:  cfg.OutboxRetention,
			})

			published, err := drainOutbox(ctx, ep, maxBatches)
			fmt.Fprintf(cmd.OutOrStdout(), "published %d events\n", published)
			return err
		},
	}

	cmd.Flags().IntVar(&maxBatches, "max-batches", 100, "Stop after this many batches")
	return cmd
}

type batchRunner interface {
	RunOnce(ctx context.Context) (int, error)
}

// drainOutbox runs batches until one publishes nothing.
func drainOutbox(ctx context.Context, runner batchRunner, maxBatches int) (int, error) {
	total := 0
	for i := 0; i < maxBatches; i++ {
		n, err := runner.RunOnce(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
