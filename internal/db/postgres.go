package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/types"
  "github.com/kyotosound/soundrooms-backend/internal/utils"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
)

type DatabaseService struct {
  db  *gorm.DB
  log *logger.Logger
}

// NewDatabaseService opens the configured database. Postgres is the default;
// DB_DRIVER=sqlite opens a local file (DB_PATH) for development.
func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
  serviceLog := log.With("service", "DatabaseService")

  driver := utils.GetEnv("DB_DRIVER", "postgres", log)
  switch driver {
  case "sqlite":
    path := utils.GetEnv("DB_PATH", "soundrooms.db", log)
    serviceLog.Info("Connecting to sqlite...", "path", path)
    db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
    if err != nil {
      serviceLog.Error("Failed to open sqlite", "error", err)
      return nil, fmt.Errorf("Failed to open sqlite: %w", err)
    }
    return &DatabaseService{db: db, log: serviceLog}, nil
  case "postgres":
  default:
    return nil, fmt.Errorf("Unknown DB_DRIVER %q", driver)
  }

  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "soundrooms", log)

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  serviceLog.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
    TranslateError:                           true,
  })
  if err != nil {
    serviceLog.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  return &DatabaseService{db: db, log: serviceLog}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
  s.log.Info("Auto migrating tables...")
  err := s.db.AutoMigrate(
    &types.User{},
    &types.UserToken{},
    &types.Artist{},
    &types.Track{},
    &types.Room{},
    &types.PlaybackState{},
    &types.RoomTrackHistory{},
    &types.RoomMembership{},
    &types.QueueEntry{},
    &types.ChatMessage{},
    &types.Reaction{},
    &types.RecommendationEvent{},
    &types.Embedding{},
  )
  if err != nil {
    s.log.Error("Auto migration failed", "error", err)
    return err
  }
  return nil
}

func (s *DatabaseService) DB() *gorm.DB {
  return s.db
}
