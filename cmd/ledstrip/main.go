package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ledstrip/internal/app"
	"github.com/coreman2200/ledstrip/internal/config"
	"github.com/coreman2200/ledstrip/internal/ws"
)

func main() {
	// ---- Flags (config.yaml is read first; flags set on the command line win) ----
	var (
		configPath = flag.String("config", "ledstrip.yaml", "path to ledstrip.yaml")
		pixels     = flag.Int("pixels", 0, "strip length in LEDs")
		fps        = flag.Int("fps", 0, "target frames per second")
		brightness = flag.Float64("brightness", 0, "global brightness 0..1")
		driver     = flag.String("driver", "", "driver: spi | sim")
		spiDev     = flag.String("spi-dev", "", "SPI port, e.g. /dev/spidev0.0")
		colorOrder = flag.String("color", "", "LED color order (e.g. GRB, RGB, GRBW)")
		addr       = flag.String("addr", "", "HTTP listen address")
		dbPath     = flag.String("db", "", "sqlite path for the last scene; \"none\" disables it")
		logLevel   = flag.String("log-level", "", "debug | info | warn | error")
		preview    = flag.Bool("preview", false, "draw simulated frames on the terminal")
		writeCfg   = flag.Bool("write-config", false, "write the effective config to -config and exit")
	)
	flag.Parse()

	// ---- Config ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
		}
		cfg = config.Default()
	}
	if *pixels > 0 {
		cfg.Pixels = *pixels
	}
	if *fps > 0 {
		cfg.FPS = *fps
	}
	if *brightness > 0 {
		cfg.Brightness = *brightness
	}
	cfg.Driver = firstNonEmpty(*driver, cfg.Driver)
	cfg.SPI.Dev = firstNonEmpty(*spiDev, cfg.SPI.Dev)
	cfg.ColorOrder = firstNonEmpty(*colorOrder, cfg.ColorOrder)
	cfg.Server.Addr = firstNonEmpty(*addr, cfg.Server.Addr)
	cfg.DBPath = firstNonEmpty(*dbPath, cfg.DBPath)
	if cfg.DBPath == "none" {
		cfg.DBPath = ""
	}
	cfg.Log.Level = firstNonEmpty(*logLevel, cfg.Log.Level)

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.Log.JSON {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.Log.Level).Msg("unknown log level; using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if *writeCfg {
		if err := config.Save(*configPath, cfg); err != nil {
			log.Fatal().Err(err).Msg("write config")
		}
		log.Info().Str("path", *configPath).Msg("config written")
		return
	}

	// ---- Core ----
	var out io.Writer
	if *preview {
		out = os.Stdout
	}
	core, err := app.InitCore(cfg, out)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}

	// ---- HTTP routes ----
	api := ws.NewServer(core.Conductor, ws.Options{FPS: cfg.FPS, Driver: core.DriverName})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      ws.WithCORS(api.Routes()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run render loop & server ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan error, 1)
	go func() { loopDone <- core.Run(ctx) }()
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("driver", core.DriverName).Int("pixels", cfg.Pixels).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
	}
	if err := <-loopDone; err != nil {
		log.Warn().Err(err).Msg("blank on exit")
	}
	if err := core.Close(); err != nil {
		log.Warn().Err(err).Msg("close")
	}
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
