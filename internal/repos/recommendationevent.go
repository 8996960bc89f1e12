package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type RecommendationEventRepo interface {
  Create(ctx context.Context, tx *gorm.DB, event *types.RecommendationEvent) (*types.RecommendationEvent, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RecommendationEvent, error)
  GetLatestByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (*types.RecommendationEvent, error)
  Save(ctx context.Context, tx *gorm.DB, event *types.RecommendationEvent) error
}

type recommendationEventRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRecommendationEventRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationEventRepo {
  repoLog := baseLog.With("repo", "RecommendationEventRepo")
  return &recommendationEventRepo{db: db, log: repoLog}
}

func (r *recommendationEventRepo) Create(ctx context.Context, tx *gorm.DB, event *types.RecommendationEvent) (*types.RecommendationEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if event.ID == uuid.Nil {
    event.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
    return nil, err
  }
  return event, nil
}

func (r *recommendationEventRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RecommendationEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var event types.RecommendationEvent
  if err := transaction.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
    return nil, err
  }
  return &event, nil
}

func (r *recommendationEventRepo) GetLatestByRoom(ctx context.Context, tx *gorm.DB, roomID uuid.UUID) (*types.RecommendationEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var event types.RecommendationEvent
  if err := transaction.WithContext(ctx).
    Where("room_id = ?", roomID).
    Order("created_at DESC").
    First(&event).Error; err != nil {
    return nil, err
  }
  return &event, nil
}

func (r *recommendationEventRepo) Save(ctx context.Context, tx *gorm.DB, event *types.RecommendationEvent) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  return transaction.WithContext(ctx).Save(event).Error
}
