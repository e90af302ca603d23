package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Runbinlin/jbn-daily/internal/catalog"
	"github.com/Runbinlin/jbn-daily/internal/config"
	"github.com/Runbinlin/jbn-daily/internal/rng"
	"github.com/Runbinlin/jbn-daily/internal/server"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	cat, err := loadCatalog(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load catalog")
	}

	bal := config.Default()
	if cfg.BalancePath != "" {
		bal, err = config.LoadBalance(cfg.BalancePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.BalancePath).Msg("load balance")
		}
	}

	newRNG := func() rng.Source { return rng.New() }
	if cfg.RNGSeed != 0 {
		seed := cfg.RNGSeed
		newRNG = func() rng.Source { return rng.NewSeeded(seed) }
		log.Warn().Uint64("seed", seed).Msg("running with a fixed rng seed")
	}

	handler, err := server.NewHandler(server.HandlerOptions{
		Catalog: cat,
		Balance: bal,
		NewRNG:  newRNG,
		Log:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func loadCatalog(cfg config.Server) (*catalog.Catalog, error) {
	if cfg.CatalogDir != "" {
		return catalog.LoadDir(cfg.CatalogDir)
	}
	return catalog.Load()
}
