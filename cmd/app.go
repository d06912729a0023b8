package main

import (
	"context"
	"fmt"
	"time"

	"github.com/NgigiN/smswallet/internal/analytics"
	"github.com/NgigiN/smswallet/internal/category"
	"github.com/NgigiN/smswallet/internal/config"
	"github.com/NgigiN/smswallet/internal/discord"
	"github.com/NgigiN/smswallet/internal/ingest"
	"github.com/NgigiN/smswallet/internal/ledger"
	"github.com/NgigiN/smswallet/internal/logger"
	"github.com/NgigiN/smswallet/internal/sms"
	"github.com/NgigiN/smswallet/internal/storage"
	"github.com/rs/zerolog"
)

// app is the wired application shared by every command.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	services discord.Services
	importer *ingest.Importer
}

// newApp opens the database, seeds the default rules on first run and wires the
// parsing, ingestion and reporting layers.
func newApp(ctx context.Context) (*app, error) {
	cfg := configFrom(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	log := logger.FromContext(ctx)

	db, err := storage.NewDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize the database: %w", err)
	}
	seeded, err := category.SeedDefaults(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if seeded {
		log.Info().Int("rules", len(category.DefaultRules())).Msg("seeded default category rules")
	}

	parser := sms.NewParser(sms.DefaultRegistry(), category.NewCategorizer(db))
	return &app{
		cfg: cfg,
		log: log,
		services: discord.Services{
			DB:       db,
			Pipeline: ingest.NewPipeline(parser, db, log),
			Engine:   analytics.NewEngine(db, time.Local, cfg.WeekStart),
			Ledger:   ledger.NewService(db, log),
		},
		importer: ingest.NewImporter(parser, db, log),
	}, nil
}

func (a *app) Close() {
	if err := a.services.DB.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing database")
	}
}
