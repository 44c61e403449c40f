// Package daemon wires the database, the key/value storage, the mailer,
// the auth engine and the web service together.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/authconfig"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/dsn"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/logger"
	"github.com/tenantgate/tenantgate/internal/mail"
	"github.com/tenantgate/tenantgate/internal/web"
)

// ErrNilConfig is returned by New without a configuration.
var ErrNilConfig = errors.New("daemon needs a config")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	storage    fiber.Storage
	engine     *auth.Engine
	webService *web.Service
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully and closes
// the storage and the database.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))

	d.Close()

	return err
}

// Close releases the storage and the database connections. It is safe on a
// partly built daemon.
func (d *Daemon) Close() {
	if d.storage != nil {
		if err := d.storage.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close storage")
		}
	}

	if sqlDB, err := d.db.DB(); err == nil {
		if err = sqlDB.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
}

// Engine is the auth engine of the daemon.
func (d *Daemon) Engine() *auth.Engine {
	return d.engine
}

// New creates a new Daemon instance with the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	lang, err := language.Parse(cfg.Mail.Language)
	if err != nil {
		return nil, fmt.Errorf("invalid mail language %q: %w", cfg.Mail.Language, err)
	}

	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	sender, err := mail.New(cfg.Mail, logger.Component("mail"))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	renderer, err := mail.NewRenderer(cfg.Title, lang)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	gormCfg := &gorm.Config{Logger: gormlogger.Discard}
	if cfg.DevMode {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		closeDB(db)

		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	d := &Daemon{cfg: cfg, db: db}

	if err = d.wire(ctx, sender, renderer); err != nil {
		d.Close()

		return nil, err
	}

	return d, nil
}

// wire migrates the database and builds storage, engine and web service on it.
func (d *Daemon) wire(ctx context.Context, sender mail.Sender, renderer *mail.Renderer) error {
	var err error

	if err = d.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if d.storage, err = newStorage(d.cfg, d.db); err != nil {
		return err
	}

	opts := authconfig.New(d.cfg, authconfig.Deps{
		DB:       d.db,
		Mailer:   sender,
		Renderer: renderer,
		Logger:   logger.Component("auth"),
	})

	if d.engine, err = auth.New(d.db, opts, d.storage, authconfig.Providers(ctx, d.cfg, opts)...); err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().
		Str("db", d.cfg.DB.Engine).
		Str("mail", d.cfg.Mail.Driver).
		Strs("providers", d.engine.Providers()).
		Msg("auth engine ready")

	if d.webService, err = web.New(d.cfg, d.engine, d.storage); err != nil {
		return err //nolint:wrapcheck
	}

	return nil
}

// closeDB releases the pool gorm.Open returns next to a failed ping.
func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
