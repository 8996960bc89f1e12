package handlers

import (
  "errors"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/kyotosound/soundrooms-backend/internal/services"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service sentinel errors onto HTTP statuses;
// anything unrecognized is a 500.
func RespondServiceError(c *gin.Context, err error) {
  switch {
  case errors.Is(err, services.ErrRoomNotFound),
    errors.Is(err, services.ErrArtistNotFound),
    errors.Is(err, services.ErrTrackNotFound),
    errors.Is(err, services.ErrUserNotFound),
    errors.Is(err, services.ErrMembershipNotFound),
    errors.Is(err, services.ErrMessageNotFound),
    errors.Is(err, services.ErrReactionNotFound),
    errors.Is(err, services.ErrQueueEntryNotFound),
    errors.Is(err, services.ErrEventNotFound),
    errors.Is(err, services.ErrPlaybackNotFound),
    errors.Is(err, services.ErrEmbeddingNotFound):
    RespondError(c, http.StatusNotFound, "not_found", err)
  case errors.Is(err, services.ErrInvalidInput):
    RespondError(c, http.StatusBadRequest, "bad_request", err)
  case errors.Is(err, services.ErrQueueEmpty):
    RespondError(c, http.StatusConflict, "queue_empty", err)
  case errors.Is(err, services.ErrEmailTaken):
    RespondError(c, http.StatusConflict, "email_taken", err)
  case errors.Is(err, services.ErrReactionExists):
    RespondError(c, http.StatusConflict, "reaction_exists", err)
  case errors.Is(err, services.ErrInvalidCredentials):
    RespondError(c, http.StatusUnauthorized, "invalid_credentials", err)
  default:
    RespondError(c, http.StatusInternalServerError, "internal", err)
  }
}
