package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/kyotosound/soundrooms-backend/internal/services"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type EmbeddingHandler struct {
  embeddingService services.EmbeddingService
}

func NewEmbeddingHandler(embeddingService services.EmbeddingService) *EmbeddingHandler {
  return &EmbeddingHandler{embeddingService: embeddingService}
}

func (eh *EmbeddingHandler) Upsert(c *gin.Context) {
  var req struct {
    EntityType   string    `json:"entity_type"`
    EntityID     uuid.UUID `json:"entity_id"`
    Vector       []float64 `json:"vector"`
    ModelVersion string    `json:"model_version"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  embedding, err := eh.embeddingService.Upsert(c.Request.Context(), services.UpsertEmbeddingInput{
    EntityType:   types.EntityKind(req.EntityType),
    EntityID:     req.EntityID,
    Vector:       req.Vector,
    ModelVersion: req.ModelVersion,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, embedding)
}

func (eh *EmbeddingHandler) Get(c *gin.Context) {
  entityType := types.EntityKind(c.Param("entityType"))
  if !entityType.Valid() {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid entity type"))
    return
  }
  entityID, err := uuid.Parse(c.Param("entityId"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid entity id"))
    return
  }
  embedding, err := eh.embeddingService.Get(c.Request.Context(), entityType, entityID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, embedding)
}
