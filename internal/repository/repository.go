package repository

import (
	"context"
	"database/sql"
	"time"

	"ttlock-bridge/internal/logger"
	"ttlock-bridge/internal/models"
)

// ConfigStore persists the single configuration record. Load never fails
// from the caller's point of view: unreadable or corrupt content is
// discarded (the cause is logged) and a fully-defaulted record is returned.
type ConfigStore interface {
	Load(ctx context.Context) (models.Config, error)
	Save(ctx context.Context, cfg models.Config) error
}

// EventRepo is the append-only workflow journal.
type EventRepo interface {
	Append(ctx context.Context, e models.BridgeEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.BridgeEvent, error)
}

type Repository struct {
	Config ConfigStore
	Events EventRepo
}

func NewRepository(db *sql.DB, configPath string, log *logger.Logger) *Repository {
	return &Repository{
		Config: NewFileStore(configPath, log),
		Events: NewEventSQLite(db),
	}
}
