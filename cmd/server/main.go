package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/moviegraph/internal/catalog"
	"github.com/Clark-Hu/moviegraph/internal/config"
	"github.com/Clark-Hu/moviegraph/internal/graph"
	httpserver "github.com/Clark-Hu/moviegraph/internal/http"
	"github.com/Clark-Hu/moviegraph/internal/ingest"
	"github.com/Clark-Hu/moviegraph/internal/logging"
	"github.com/Clark-Hu/moviegraph/internal/recommend"
	"github.com/Clark-Hu/moviegraph/internal/repository"
	"github.com/Clark-Hu/moviegraph/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(logging.Config{}, "moviegraph-api")
		bootLogger.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stdout}, "moviegraph-api")

	var st *store.Store
	if cfg.DataSource == config.SourcePostgres {
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		st, err = store.New(dbCtx, cfg.DBURL, store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 logger,
		})
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer st.Close()
	}

	g, err := loadGraph(ctx, cfg, st, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build rating graph")
	}

	engine := recommend.NewEngine(g, recommend.Params{
		Neighbors:        cfg.RecommendNeighbors,
		MovieThreshold:   recommend.DefaultMovieThreshold,
		ScoreThreshold:   recommend.DefaultScoreThreshold,
		GenreThreshold:   recommend.DefaultGenreThreshold,
		AdjustmentFactor: recommend.DefaultAdjustmentFactor,
		DefaultLimit:     cfg.RecommendDefaultLimit,
	})

	var cat catalog.Client
	if cfg.CatalogEnabled() {
		client, err := catalog.NewHTTPClient(catalog.Options{
			BaseURL:          cfg.CatalogURL,
			APIKey:           cfg.CatalogAPIKey,
			Host:             cfg.CatalogHost,
			Timeout:          time.Duration(cfg.CatalogTimeoutSecs) * time.Second,
			FailureThreshold: uint32(cfg.CatalogFailureThreshold),
			Cooldown:         time.Duration(cfg.CatalogCooldownSecs) * time.Second,
			Logger:           logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("init catalog client")
		}
		cat = client
	} else {
		logger.Info().Msg("catalog disabled, /movies/{title}/links will return 503")
	}

	server := httpserver.New(cfg, st, engine, cat, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

func loadGraph(ctx context.Context, cfg config.Config, st *store.Store, logger zerolog.Logger) (*graph.Graph, error) {
	if st != nil {
		return ingest.Build(ctx, repository.New(st).Ratings, logger)
	}
	src, closer, err := ingest.OpenCSV(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return ingest.Build(ctx, src, logger)
}
