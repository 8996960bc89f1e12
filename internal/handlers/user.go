package handlers

import (
  "fmt"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "github.com/kyotosound/soundrooms-backend/internal/requestdata"
  "github.com/kyotosound/soundrooms-backend/internal/services"
)

type UserHandler struct {
  userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
  return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
    return
  }
  user, err := uh.userService.Get(c.Request.Context(), rd.UserID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, user)
}

func (uh *UserHandler) GetByID(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid user id"))
    return
  }
  user, err := uh.userService.Get(c.Request.Context(), userID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, user)
}

func (uh *UserHandler) List(c *gin.Context) {
  users, err := uh.userService.List(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, users)
}

func (uh *UserHandler) UpdateMe(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("missing request identity"))
    return
  }
  var req struct {
    DisplayName *string        `json:"display_name"`
    Country     *string        `json:"country"`
    Language    *string        `json:"language"`
    Preferences datatypes.JSON `json:"preferences"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body"))
    return
  }
  user, err := uh.userService.Update(c.Request.Context(), rd.UserID, services.UpdateUserInput{
    DisplayName: req.DisplayName,
    Country:     req.Country,
    Language:    req.Language,
    Preferences: req.Preferences,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, user)
}
