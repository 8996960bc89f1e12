package services

import (
  "context"
  "errors"
  "fmt"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type UpsertEmbeddingInput struct {
  EntityType   types.EntityKind
  EntityID     uuid.UUID
  Vector       []float64
  ModelVersion string
}

// EmbeddingService stores one content vector per entity; the scorer reads
// these for similarity. Vectors are computed out of process.
type EmbeddingService interface {
  Upsert(ctx context.Context, in UpsertEmbeddingInput) (*types.Embedding, error)
  Get(ctx context.Context, entityType types.EntityKind, entityID uuid.UUID) (*types.Embedding, error)
}

type embeddingService struct {
  db            *gorm.DB
  log           *logger.Logger
  embeddingRepo repos.EmbeddingRepo
}

func NewEmbeddingService(db *gorm.DB, log *logger.Logger, embeddingRepo repos.EmbeddingRepo) EmbeddingService {
  serviceLog := log.With("service", "EmbeddingService")
  return &embeddingService{db: db, log: serviceLog, embeddingRepo: embeddingRepo}
}

func (es *embeddingService) Upsert(ctx context.Context, in UpsertEmbeddingInput) (*types.Embedding, error) {
  if !in.EntityType.Valid() {
    return nil, fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, in.EntityType)
  }
  if in.EntityID == uuid.Nil {
    return nil, fmt.Errorf("%w: entity id required", ErrInvalidInput)
  }
  if len(in.Vector) == 0 {
    return nil, fmt.Errorf("%w: vector required", ErrInvalidInput)
  }

  embedding := &types.Embedding{
    EntityType:     in.EntityType,
    EntityID:       in.EntityID,
    Vector:         types.MustJSON(in.Vector),
    Dimensionality: len(in.Vector),
  }
  if in.ModelVersion != "" {
    embedding.ModelVersion = in.ModelVersion
  }

  var out *types.Embedding
  err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    var err error
    out, err = es.embeddingRepo.Upsert(ctx, tx, embedding)
    return err
  })
  if err != nil {
    return nil, err
  }
  return out, nil
}

func (es *embeddingService) Get(ctx context.Context, entityType types.EntityKind, entityID uuid.UUID) (*types.Embedding, error) {
  embedding, err := es.embeddingRepo.GetByEntity(ctx, nil, entityType, entityID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, ErrEmbeddingNotFound
    }
    return nil, err
  }
  return embedding, nil
}
