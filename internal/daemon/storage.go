package daemon

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/dsn"
)

// storageTable keeps oauth state and rate limit counters.
const storageTable = "kv_storage"

// newStorage returns the key/value storage next to the configured database.
// sqlite keeps the values in memory.
func newStorage(cfg *config.Config, db *gorm.DB) (fiber.Storage, error) {
	switch cfg.DB.Engine {
	case dsn.EnginePostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.ConnectionURI(cfg),
			Table:         storageTable,
		}), nil
	case dsn.EngineMySQL:
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get mysql connection: %w", err)
		}

		// shares the pool of gorm
		return mysql.New(mysql.Config{
			Db:    sqlDB,
			Table: storageTable,
		}), nil
	default:
		return memory.New(), nil
	}
}
