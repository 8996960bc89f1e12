package handlers

import (
  "fmt"
  "net/http"
  "strconv"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/kyotosound/soundrooms-backend/internal/services"
)

type RecommendationHandler struct {
  recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
  return &RecommendationHandler{recommendationService: recommendationService}
}

func (rh *RecommendationHandler) Rank(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  limit := 0
  if raw := c.Query("limit"); raw != "" {
    limit, err = strconv.Atoi(raw)
    if err != nil || limit < 0 {
      RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid limit"))
      return
    }
  }
  includeRecent := false
  if raw := c.Query("include_recent"); raw != "" {
    includeRecent, err = strconv.ParseBool(raw)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid include_recent flag"))
      return
    }
  }
  result, err := rh.recommendationService.Rank(c.Request.Context(), roomID, limit, includeRecent)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, result)
}

func (rh *RecommendationHandler) Accept(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  var req struct {
    TrackID uuid.UUID  `json:"track_id"`
    EventID *uuid.UUID `json:"event_id"`
    Source  string     `json:"source"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  if req.TrackID == uuid.Nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("track_id required"))
    return
  }
  source := req.Source
  if source == "" {
    source = "manual"
  }
  if err := rh.recommendationService.Accept(c.Request.Context(), roomID, req.TrackID, req.EventID, source); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "recommendation accepted"})
}
