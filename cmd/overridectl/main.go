// Command overridectl gerencia limites temporários por cliente no store compartilhado.
//
// Uso:
//
//	overridectl set 203.0.113.10 --limit 300 --duration 1h
//	overridectl get 203.0.113.10
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/bootstrap"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/config"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/services"
)

type CLI struct {
	Set SetCmd `cmd:"" help:"Set a temporary rate limit for a client address."`
	Get GetCmd `cmd:"" help:"Show the active override for a client address."`

	Timeout time.Duration `help:"Timeout for store operations." default:"5s"`
}

type SetCmd struct {
	Client   string        `arg:"" help:"Client IP address."`
	Limit    int           `required:"" help:"Maximum requests per window."`
	Duration time.Duration `required:"" help:"How long the override stays active (e.g. 1h)."`
}

func (c *SetCmd) Run(cli *CLI, resolver *services.OverrideResolver) error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()

	if err := resolver.SetTemporaryRateLimit(ctx, c.Client, c.Limit, c.Duration); err != nil {
		return err
	}
	fmt.Printf("override set: client=%s limit=%d expires_in=%s\n", c.Client, c.Limit, c.Duration)
	return nil
}

type GetCmd struct {
	Client string `arg:"" help:"Client IP address."`
}

func (c *GetCmd) Run(cli *CLI, resolver *services.OverrideResolver) error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()

	status, found, err := resolver.Lookup(ctx, c.Client)
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("no override for client %s\n", c.Client)
		return nil
	}
	fmt.Printf("client=%s limit=%d expires_in=%s\n", status.Client, status.Limit, status.ExpiresIn.Round(time.Second))
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("overridectl"),
		kong.Description("Manage temporary per-client rate limit overrides."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Type != "redis" {
		fmt.Fprintln(os.Stderr, "overrides require STORAGE_TYPE=redis to be visible to the server")
		os.Exit(1)
	}

	logger, closeLogger := bootstrap.NewLogger(cfg.Log)
	storage, closeStorage, err := bootstrap.NewStorage(cfg.Storage, logger)
	if err != nil {
		closeLogger()
		fmt.Fprintf(os.Stderr, "failed to init storage: %v\n", err)
		os.Exit(1)
	}

	resolver, err := services.NewOverrideResolver(storage, services.WithLogger(logger))
	if err == nil {
		err = kctx.Run(&cli, resolver)
	}
	closeStorage()
	closeLogger()
	kctx.FatalIfErrorf(err)
}
