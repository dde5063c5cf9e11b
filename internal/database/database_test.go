package database

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/config"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConnectSQLiteAndMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "contest.db")}

	db, err := Connect(cfg, discardLogger())
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db, discardLogger()))

	assert.True(t, db.Migrator().HasTable(&models.Participant{}))
	assert.True(t, db.Migrator().HasColumn(&models.Participant{}, "chat_id"))
	assert.True(t, db.Migrator().HasIndex(&models.Participant{}, "Email"))

	// idempotent
	require.NoError(t, AutoMigrate(db, discardLogger()))
}

func TestConnectRejectsMemoryDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "memory"}, discardLogger())
	assert.Error(t, err)
}
