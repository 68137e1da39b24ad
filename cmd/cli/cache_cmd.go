package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	redisRepo "github.com/iho/orgconf/internal/adapter/repository/redis"
	"github.com/iho/orgconf/internal/infrastructure/config"
	"github.com/iho/orgconf/internal/infrastructure/redis"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached location oracle responses",
	}
	cmd.AddCommand(newCacheFlushCmd())
	return cmd
}

func newCacheFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Drop cached oracle responses so the next lookups hit the oracle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			client, err := redis.NewClientWithConfig(ctx, redis.ClientConfig{URL: cfg.RedisURL})
			if err != nil {
				return fmt.Errorf("connect to redis: %w", err)
			}
			defer client.Close()

			return flushCache(ctx, cmd, redisRepo.NewCache(client, redisRepo.OracleNamespace, nil))
		},
	}
}

type cacheFlusher interface {
	Flush(ctx context.Context) (int64, error)
}

func flushCache(ctx context.Context, cmd *cobra.Command, cache cacheFlusher) error {
	deleted, err := cache.Flush(ctx)
	if err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached entries\n", deleted)
	return nil
}
