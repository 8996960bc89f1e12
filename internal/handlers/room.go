package handlers

import (
  "fmt"
  "net/http"
  "strconv"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/requestdata"
  "github.com/kyotosound/soundrooms-backend/internal/services"
  "github.com/kyotosound/soundrooms-backend/internal/types"
)

type RoomHandler struct {
  roomService services.RoomService
}

func NewRoomHandler(roomService services.RoomService) *RoomHandler {
  return &RoomHandler{roomService: roomService}
}

func (rh *RoomHandler) Create(c *gin.Context) {
  var req struct {
    ArtistID    uuid.UUID `json:"artist_id"`
    Name        string    `json:"name"`
    Description string    `json:"description"`
    Mode        string    `json:"mode"`
    IsFeatured  bool      `json:"is_featured"`
    FocusLevel  *int      `json:"focus_level"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  room, err := rh.roomService.Create(c.Request.Context(), services.CreateRoomInput{
    ArtistID:    req.ArtistID,
    Name:        req.Name,
    Description: req.Description,
    Mode:        types.RoomMode(req.Mode),
    IsFeatured:  req.IsFeatured,
    FocusLevel:  req.FocusLevel,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, room)
}

func (rh *RoomHandler) Get(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  room, err := rh.roomService.Get(c.Request.Context(), roomID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, room)
}

func (rh *RoomHandler) List(c *gin.Context) {
  var filter repos.RoomFilter
  if raw := c.Query("artist_id"); raw != "" {
    id, err := uuid.Parse(raw)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid artist id"))
      return
    }
    filter.ArtistID = &id
  }
  if raw := c.Query("mode"); raw != "" {
    mode := types.RoomMode(raw)
    if !mode.Valid() {
      RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room mode"))
      return
    }
    filter.Mode = &mode
  }
  if raw := c.Query("featured"); raw != "" {
    featured, err := strconv.ParseBool(raw)
    if err != nil {
      RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid featured flag"))
      return
    }
    filter.Featured = &featured
  }
  rooms, err := rh.roomService.List(c.Request.Context(), filter)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, rooms)
}

func (rh *RoomHandler) Update(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  var req struct {
    Name        *string `json:"name"`
    Description *string `json:"description"`
    Mode        *string `json:"mode"`
    IsFeatured  *bool   `json:"is_featured"`
    FocusLevel  *int    `json:"focus_level"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  in := services.UpdateRoomInput{
    Name:        req.Name,
    Description: req.Description,
    IsFeatured:  req.IsFeatured,
    FocusLevel:  req.FocusLevel,
  }
  if req.Mode != nil {
    mode := types.RoomMode(*req.Mode)
    in.Mode = &mode
  }
  room, err := rh.roomService.Update(c.Request.Context(), roomID, in)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, room)
}

func (rh *RoomHandler) Join(c *gin.Context) {
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
  membership, err := rh.roomService.Join(c.Request.Context(), roomID, rd.UserID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, membership)
}

func (rh *RoomHandler) Leave(c *gin.Context) {
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
  if err := rh.roomService.Leave(c.Request.Context(), roomID, rd.UserID); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "left room"})
}

func (rh *RoomHandler) Enqueue(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  var req struct {
    TrackID uuid.UUID `json:"track_id"`
    Note    string    `json:"note"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  in := services.EnqueueInput{TrackID: req.TrackID, Note: req.Note}
  if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
    id := rd.UserID
    in.RequestedByID = &id
  }
  entry, err := rh.roomService.Enqueue(c.Request.Context(), roomID, in)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, entry)
}

func (rh *RoomHandler) ListQueue(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  entries, err := rh.roomService.ListQueue(c.Request.Context(), roomID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, entries)
}

func (rh *RoomHandler) Dequeue(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  entryID, err := uuid.Parse(c.Param("entryId"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid queue entry id"))
    return
  }
  if err := rh.roomService.Dequeue(c.Request.Context(), roomID, entryID); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "queue entry removed"})
}

func (rh *RoomHandler) PopNext(c *gin.Context) {
  roomID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid room id"))
    return
  }
  entry, err := rh.roomService.PopNext(c.Request.Context(), roomID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, entry)
}
