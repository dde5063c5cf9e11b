package database

import (
	"fmt"
	"log/slog"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/config"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the relational store selected by cfg.DBDriver.
func Connect(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("driver %q has no relational store", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	log.Info("database connected", slog.String("driver", cfg.DBDriver))
	return db, nil
}

// AutoMigrate brings the participants table up to date. Older deployments
// created the table without chat_id, so the column is added before gorm runs.
func AutoMigrate(db *gorm.DB, log *slog.Logger) error {
	if db.Dialector.Name() == "postgres" {
		err := db.Exec(`DO $$
		BEGIN
			IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'participants')
			   AND NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'participants' AND column_name = 'chat_id')
			THEN
				ALTER TABLE participants ADD COLUMN chat_id bigint NULL;
			END IF;
		END $$;`).Error
		if err != nil {
			return fmt.Errorf("backfill chat_id: %w", err)
		}
	}

	if err := db.AutoMigrate(&models.Participant{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info("database migrated")
	return nil
}
