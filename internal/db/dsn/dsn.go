// Package dsn turns the database configuration into gorm dialectors and connection strings.
package dsn

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/config"
)

const (
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
	EngineSQLite   = "sqlite"
)

// Create builds the mysql Data Source Name from the configuration.
func Create(cfg *config.Config) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
		cfg.DB.Extras,
	)

	return out
}

// ConnectionURI returns the url the configured engine connects with.
// For postgres this is DB.URL, for mysql DB.URL if set else the built DSN, for sqlite the file path.
func ConnectionURI(cfg *config.Config) string {
	switch cfg.DB.Engine {
	case EngineMySQL:
		if cfg.DB.URL != "" {
			return cfg.DB.URL
		}

		return Create(cfg)
	case EngineSQLite:
		if cfg.DB.Path == "" {
			return "file::memory:?cache=shared"
		}

		return cfg.DB.Path
	default:
		return cfg.DB.URL
	}
}

// Dialector returns the gorm driver of the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DB.Engine {
	case EnginePostgres:
		return postgres.Open(ConnectionURI(cfg)), nil
	case EngineMySQL:
		return mysql.Open(ConnectionURI(cfg)), nil
	case EngineSQLite:
		return sqlite.Open(ConnectionURI(cfg)), nil
	default:
		return nil, config.ErrUnknownDBEngine
	}
}
