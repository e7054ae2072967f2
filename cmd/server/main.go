// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/fleetvault/internal/api"
	"github.com/tomtom215/fleetvault/internal/backup"
	"github.com/tomtom215/fleetvault/internal/collections"
	"github.com/tomtom215/fleetvault/internal/config"
	"github.com/tomtom215/fleetvault/internal/logging"
	"github.com/tomtom215/fleetvault/internal/store"
	"github.com/tomtom215/fleetvault/internal/supervisor"
	"github.com/tomtom215/fleetvault/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("backup_dir", cfg.Backup.Dir).
		Str("database", cfg.Backup.Database).
		Strs("collections", cfg.Backup.Collections).
		Msg("Starting Fleetvault")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Fleetvault stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	db, err := store.Open(storeConfig(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close document store")
		}
	}()

	registry, err := collections.FromStore(db, cfg.Backup.Collections)
	if err != nil {
		return err
	}

	svc, err := backup.NewService(backupConfig(cfg), registry)
	if err != nil {
		return err
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}

	var handlerOpts []api.HandlerOption
	if cfg.Backup.Schedule.Enabled {
		scheduler, err := backup.NewScheduler(svc, schedulerConfig(cfg))
		if err != nil {
			return err
		}
		tree.AddSchedulerService(services.NewSchedulerService(scheduler))
		handlerOpts = append(handlerOpts, api.WithSchedule(scheduler))
	} else {
		logging.Info().Msg("Backup schedule disabled (BACKUP_SCHEDULE_ENABLED=false)")
	}

	if auditLog := newAuditLogger(cfg.Audit); auditLog != nil {
		defer func() { _ = auditLog.Close() }()
		handlerOpts = append(handlerOpts, api.WithAudit(auditLog))
	}

	guard, err := newGuard(cfg.Server)
	if err != nil {
		return err
	}
	if guard == nil {
		logging.Warn().Msg("ADMIN_USERNAME not set, snapshot download, restore, delete and audit routes are unauthenticated")
	}
	limiter := newOperationLimiter(cfg.Server)

	router := api.NewRouter(api.NewHandler(svc, handlerOpts...), routerConfig(cfg.Server, guard, limiter))
	server := newHTTPServer(cfg.Server, router.SetupChi())
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, u := range unstopped {
		logging.Warn().Str("service", u.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
