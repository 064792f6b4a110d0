package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeruxbrawl/zeruxbot/internal/config"
	"github.com/zeruxbrawl/zeruxbot/internal/directory"
	"github.com/zeruxbrawl/zeruxbot/internal/engine"
	"github.com/zeruxbrawl/zeruxbot/internal/moderation"
	"github.com/zeruxbrawl/zeruxbot/internal/relay"
	"github.com/zeruxbrawl/zeruxbot/internal/store"
	"github.com/zeruxbrawl/zeruxbot/internal/telegram"
)

func runBot() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	channel, err := telegram.New(cfg.Telegram)
	if err != nil {
		slog.Error("failed to create telegram channel", "error", err)
		os.Exit(1)
	}

	accounts := store.NewAccounts(cfg.Data.AccountsFile, cfg.Data.PlayerDir, cfg.Data.ClubDir)
	dir := directory.New(cfg.Data.UsersFile)
	gate := moderation.New(cfg.Data.BansFile, cfg.Data.InvitesFile, dir, func(ctx context.Context) (string, error) {
		return channel.CreateInvite(ctx, cfg.Support.GroupID)
	})
	ledger := relay.New(cfg.Data.RelayFile)

	eng := engine.New(cfg, accounts, dir, gate, ledger, channel)
	channel.Bind(eng)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := channel.Start(ctx); err != nil {
		slog.Error("failed to start telegram channel", "error", err)
		os.Exit(1)
	}

	slog.Info("zeruxbot running",
		"support_group", cfg.Support.GroupID,
		"admins", len(cfg.Support.AdminIDs),
	)

	<-ctx.Done()

	shutdownCtx := context.Background()
	if err := channel.Stop(shutdownCtx); err != nil {
		slog.Warn("channel stop failed", "error", err)
	}
}
