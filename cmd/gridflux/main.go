package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridflux/gridflux/pkg/controller"
	"github.com/gridflux/gridflux/pkg/inverter"
	"github.com/gridflux/gridflux/pkg/log"
	"github.com/gridflux/gridflux/pkg/prices"
	"github.com/gridflux/gridflux/pkg/server"
	"github.com/gridflux/gridflux/pkg/storage"
	"github.com/gridflux/gridflux/pkg/telemetry"

	"github.com/joho/godotenv"
	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// flags can come from a local .env file
	_ = godotenv.Load()

	// init packages
	settings := controller.ConfiguredSettings()
	feed := prices.Configured()
	sink, sensors := inverter.Configured()
	db := storage.Configured()
	tele := telemetry.Configured()

	// init server
	srv := server.Configured(db)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer func() {
		if err := db.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	if err := tele.Connect(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "telemetry unavailable, continuing without it", "error", err)
	}
	defer tele.Close(ctx)

	if settings.DryRun {
		sink = inverter.NewDryRunSink(sink)
	}

	o := controller.New(*settings, feed, sink, sensors, db, tele)
	srv.SetController(o)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return o.Run(ctx) })

	if err := g.Wait(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "run failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "exited cleanly")
}
