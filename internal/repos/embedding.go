package repos

import (
  "context"
  "errors"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type EmbeddingRepo interface {
  GetByEntity(ctx context.Context, tx *gorm.DB, entityType types.EntityKind, entityID uuid.UUID) (*types.Embedding, error)
  Upsert(ctx context.Context, tx *gorm.DB, embedding *types.Embedding) (*types.Embedding, error)
}

type embeddingRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) EmbeddingRepo {
  repoLog := baseLog.With("repo", "EmbeddingRepo")
  return &embeddingRepo{db: db, log: repoLog}
}

func (r *embeddingRepo) GetByEntity(ctx context.Context, tx *gorm.DB, entityType types.EntityKind, entityID uuid.UUID) (*types.Embedding, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var embedding types.Embedding
  if err := transaction.WithContext(ctx).
    Where("entity_type = ?", entityType).
    Where("entity_id = ?", entityID).
    First(&embedding).Error; err != nil {
    return nil, err
  }
  return &embedding, nil
}

func (r *embeddingRepo) Upsert(ctx context.Context, tx *gorm.DB, embedding *types.Embedding) (*types.Embedding, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  existing, err := r.GetByEntity(ctx, transaction, embedding.EntityType, embedding.EntityID)
  if err != nil {
    if !errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, err
    }
    if embedding.ID == uuid.Nil {
      embedding.ID = uuid.New()
    }
    if err := transaction.WithContext(ctx).Create(embedding).Error; err != nil {
      return nil, err
    }
    return embedding, nil
  }
  existing.Vector = embedding.Vector
  existing.ModelVersion = embedding.ModelVersion
  existing.Dimensionality = embedding.Dimensionality
  if err := transaction.WithContext(ctx).Save(existing).Error; err != nil {
    return nil, err
  }
  return existing, nil
}
