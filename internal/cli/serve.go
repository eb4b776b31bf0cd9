package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xecut-space/xecut-bot/internal/backend"
	"github.com/xecut-space/xecut-bot/internal/bot"
	"github.com/xecut-space/xecut-bot/internal/config"
	"github.com/xecut-space/xecut-bot/internal/logging"
	"github.com/xecut-space/xecut-bot/internal/rest"
	"github.com/xecut-space/xecut-bot/internal/status"
	"github.com/xecut-space/xecut-bot/internal/visit"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve config.yaml [more.yaml ...]",
		Short: "Run the bot",
		Long:  "Run the Telegram bot, the retention sweeper, the live-status synchronizer and the REST API until interrupted.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(args)
		},
	}
}

func runServe(configPaths []string) error {
	cfg, err := config.Load(configPaths)
	if err != nil {
		return err
	}

	logging.Setup(cfg.Dev)

	database, err := openDB(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer closeDB(database)

	store := visit.NewStore(database)

	tracker, err := status.NewTracker(database)
	if err != nil {
		return err
	}

	tgBot, err := bot.New(cfg.Telegram, tracker)
	if err != nil {
		return err
	}

	svc := backend.New(store, tgBot)
	tgBot.SetBackend(svc)

	synchronizer := status.NewSynchronizer(tracker, tgBot, tgBot, time.Duration(cfg.Status.PollInterval))
	restServer := rest.NewServer(svc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tgBot.Run(ctx)
	})
	g.Go(func() error {
		store.RunSweeper(ctx)
		return nil
	})
	g.Go(func() error {
		synchronizer.Run(ctx)
		return nil
	})
	if cfg.Rest.BindAddress != "" {
		g.Go(func() error {
			return restServer.Run(ctx, cfg.Rest.BindAddress)
		})
	}

	return g.Wait()
}
