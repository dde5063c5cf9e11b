package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/middleware"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/services"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// abortWithError maps service errors onto HTTP statuses. Storage details
// stay in the log.
func abortWithError(c *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrLoginDisabled):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	default:
		log.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func callerID(c *gin.Context) int64 {
	id, _ := middleware.AdminID(c)
	return id
}
