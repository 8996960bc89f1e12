package handlers

import (
  "fmt"
  "net/http"
  "strconv"
  "time"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/kyotosound/soundrooms-backend/internal/requestdata"
  "github.com/kyotosound/soundrooms-backend/internal/services"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type ChatHandler struct {
  chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
  return &ChatHandler{chatService: chatService}
}

func (ch *ChatHandler) PostMessage(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
    return
  }
  var req struct {
    Body            string `json:"body"`
    TrackPositionMS *int64 `json:"track_position_ms"`
    Lang            string `json:"lang"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  message, err := ch.chatService.PostMessage(c.Request.Context(), roomID, rd.UserID, services.PostMessageInput{
    Body:            req.Body,
    TrackPositionMS: req.TrackPositionMS,
    Lang:            req.Lang,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, message)
}

func (ch *ChatHandler) ListMessages(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  var since *time.Time
  if raw := c.Query("since"); raw != "" {
    t, err := time.Parse(time.RFC3339, raw)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid since timestamp"))
      return
    }
    since = &t
  }
  limit := 0
  if raw := c.Query("limit"); raw != "" {
    limit, err = strconv.Atoi(raw)
    if err != nil || limit < 0 {
      RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid limit"))
      return
    }
  }
  messages, err := ch.chatService.ListMessages(c.Request.Context(), roomID, since, limit)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, messages)
}

func (ch *ChatHandler) AddReaction(c *gin.Context) {
  messageID, err := uuid.Parse(c.Param("messageId"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid message id"))
    return
  }
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
    return
  }
  var req struct {
    Type string `json:"type"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  reaction, err := ch.chatService.AddReaction(c.Request.Context(), messageID, rd.UserID, types.ReactionType(req.Type))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, reaction)
}

func (ch *ChatHandler) RemoveReaction(c *gin.Context) {
  reactionID, err := uuid.Parse(c.Param("reactionId"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid reaction id"))
    return
  }
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
    return
  }
  if err := ch.chatService.RemoveReaction(c.Request.Context(), reactionID, rd.UserID); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "reaction removed"})
}
