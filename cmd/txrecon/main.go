package main

import (
	"context"
	"fmt"
	"os"

	"github.com/luminapay/txrecon/internal/config"
	"github.com/luminapay/txrecon/internal/handlers/cli"
	"github.com/luminapay/txrecon/internal/identity"
	"github.com/luminapay/txrecon/internal/infra/blockchain/ethereum"
	natsinfra "github.com/luminapay/txrecon/internal/infra/messaging/nats"
	redisinfra "github.com/luminapay/txrecon/internal/infra/storage/redis"
	"github.com/luminapay/txrecon/internal/pkg/logger"
	"github.com/luminapay/txrecon/internal/pkg/scheduler"
	"github.com/luminapay/txrecon/internal/pkg/telemetry"
	transporthttp "github.com/luminapay/txrecon/internal/pkg/transport/http"
	"github.com/luminapay/txrecon/internal/pkg/transport/jsonrpc"
	"github.com/luminapay/txrecon/internal/reconcile"
)

const serviceName = "txrecon"

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		defer shutdown(context.WithoutCancel(ctx))
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	storage, err := redisinfra.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer storage.Close()

	// One chain reader per configured network, all sharing the retrying
	// HTTP client.
	httpClient := transporthttp.NewClient().StandardClient()
	readers := make(map[string]reconcile.ChainReader, len(cfg.RPCEndpoints))
	for network, endpoint := range cfg.RPCEndpoints {
		readers[network] = ethereum.NewClient(jsonrpc.NewClient(httpClient, endpoint))
	}

	opts := []reconcile.Option{
		reconcile.WithPollInterval(cfg.PollInterval),
		reconcile.WithDiscoveryMaxAttempts(cfg.DiscoveryMaxAttempts),
		reconcile.WithConfirmationMaxAttempts(cfg.ConfirmationMaxAttempts),
		reconcile.WithConfirmationThreshold(cfg.ConfirmationThreshold),
	}

	if cfg.NATSURL != "" {
		notifier, err := natsinfra.NewNotifier(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		defer notifier.Close()

		opts = append(opts, reconcile.WithTransitionNotifier(notifier))
	}

	sched := scheduler.New()
	rc := reconcile.New(readers, storage, storage, sched, opts...)
	id := identity.New(storage)

	return cli.Run(ctx, rc, id, sched.Wait)
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
