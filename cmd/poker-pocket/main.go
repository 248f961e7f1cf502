package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/norkator/poker-pocket-backend/internal/config"
	"github.com/norkator/poker-pocket-backend/internal/game"
	"github.com/norkator/poker-pocket-backend/internal/randutil"
	"github.com/norkator/poker-pocket-backend/internal/server"
	"github.com/norkator/poker-pocket-backend/internal/stats"
)

type CLI struct {
	Config   string `short:"c" help:"Path to the HCL configuration file" default:"poker-pocket.hcl"`
	Addr     string `short:"a" help:"Listen address override (host:port)"`
	LogLevel string `help:"Log level override (debug, info, warn, error)"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("poker-pocket"),
		kong.Description("Texas Hold'em game server with house bots"))

	if err := run(cli); err != nil {
		log.Fatal("server exited", "error", err)
	}
	kctx.Exit(0)
}

func run(cli CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.Server.LogLevel = cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Server.LogLevel, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})

	store, err := stats.Open(cfg.Server.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := game.NewEventBus()
	registry := game.NewRegistry()
	rng := randutil.New(time.Now().UnixNano())
	service := server.NewGameService(cfg, registry, store, bus, quartz.NewReal(), rng, logger)
	if err := service.CreateInitialRooms(); err != nil {
		return err
	}

	addr := cfg.ListenAddr()
	if cli.Addr != "" {
		addr = cli.Addr
	}
	srv := server.NewServer(addr, service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	})
	return g.Wait()
}
