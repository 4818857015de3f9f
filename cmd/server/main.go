package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/taskforge-io/taskforge/auth"
	"github.com/taskforge-io/taskforge/config"
	"github.com/taskforge-io/taskforge/logging"
	"github.com/taskforge-io/taskforge/mailer"
	"github.com/taskforge-io/taskforge/project"
	"github.com/taskforge-io/taskforge/server"
)

const shutdownTimeout = time.Second * 10

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Debug)

	if cfg.Debug {
		logger.Debug("configuration loaded", "config", print.MaybePrettyJSON(map[string]any{
			"port":              cfg.Port,
			"database_dsn":      cfg.DatabaseDSN,
			"access_token_ttl":  cfg.AccessTokenTTL.String(),
			"refresh_token_ttl": cfg.RefreshTokenTTL.String(),
			"temp_token_ttl":    cfg.TempTokenTTL.String(),
			"cors_origins":      cfg.CORSOrigins,
			"smtp_configured":   cfg.SMTPConfigured(),
		}))
	}

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := createTables(ctx, db); err != nil {
		return err
	}

	var outbound auth.Mailer
	if cfg.SMTPConfigured() {
		if outbound, err = mailer.New(cfg, logger); err != nil {
			return err
		}
	} else {
		logger.Warn("SMTP not configured, outbound mail will only be logged")
		outbound = mailer.NewLogMailer(logger)
	}

	users := auth.NewUsersRepository(db)
	tokens := auth.NewTokenService(cfg, logger)
	authSvc := auth.NewService(users, tokens, outbound, cfg).WithLogger(logger)

	projects := project.NewService(db,
		project.NewProjectsRepository(db),
		project.NewMembersRepository(db),
		users,
	)

	srv := server.New(cfg, authSvc, tokens, users, projects, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		errCh <- srv.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func createTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*auth.User)(nil),
		(*project.Project)(nil),
		(*project.Member)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
