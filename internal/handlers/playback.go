package handlers

import (
  "fmt"
  "net/http"
  "time"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/kyotosound/soundrooms-backend/internal/services"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type PlaybackHandler struct {
  playbackService services.PlaybackService
}

func NewPlaybackHandler(playbackService services.PlaybackService) *PlaybackHandler {
  return &PlaybackHandler{playbackService: playbackService}
}

// playbackView adds the projected position so clients do not have to do the
// anchor math themselves.
type playbackView struct {
  *types.PlaybackState
  PositionMS int64 `json:"position_ms"`
}

func newPlaybackView(state *types.PlaybackState) playbackView {
  return playbackView{
    PlaybackState: state,
    PositionMS:    services.PlaybackPositionMS(state.AnchorServerTS, state.OffsetMS, state.IsPaused, time.Now().UTC()),
  }
}

func (ph *PlaybackHandler) GetState(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  state, err := ph.playbackService.GetState(c.Request.Context(), roomID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, newPlaybackView(state))
}

func (ph *PlaybackHandler) SetState(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  var req struct {
    TrackID   uuid.UUID  `json:"track_id"`
    StartTS   *time.Time `json:"start_ts"`
    OffsetMS  int64      `json:"offset_ms"`
    IsPaused  bool       `json:"is_paused"`
    Listeners *int       `json:"listeners"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  if req.TrackID == uuid.Nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("track_id required"))
    return
  }
  state, err := ph.playbackService.SetTrack(c.Request.Context(), roomID, req.TrackID, services.SetTrackInput{
    StartTS:   req.StartTS,
    OffsetMS:  req.OffsetMS,
    IsPaused:  req.IsPaused,
    Listeners: req.Listeners,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, newPlaybackView(state))
}

func (ph *PlaybackHandler) Resume(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  var req struct {
    Listeners *int `json:"listeners"`
  }
  _ = c.ShouldBindJSON(&req)
  if err := ph.playbackService.Resume(c.Request.Context(), roomID, req.Listeners); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "resumed"})
}

func (ph *PlaybackHandler) Pause(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  var req struct {
    Listeners *int `json:"listeners"`
  }
  _ = c.ShouldBindJSON(&req)
  if err := ph.playbackService.Pause(c.Request.Context(), roomID, req.Listeners); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "paused"})
}

func (ph *PlaybackHandler) RecomputeListeners(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  count, err := ph.playbackService.RecomputeListeners(c.Request.Context(), roomID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"listeners": count})
}
