package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
	"github.com/allexgorbunov/kingfin-contest-bot/internal/services"
)

// ParticipantHandler exposes the administrator roster operations over HTTP.
// Routes sit behind JWTAuth, so the caller id comes from the token.
type ParticipantHandler struct {
	roster *services.RosterService
	log    *slog.Logger
}

func NewParticipantHandler(roster *services.RosterService, log *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{roster: roster, log: log}
}

type ExportResponse struct {
	Chunks []string `json:"chunks"`
}

type DuplicatePair struct {
	Left  services.RosterEntry `json:"left"`
	Right services.RosterEntry `json:"right"`
	Score float64              `json:"score"`
}

type DuplicatesResponse struct {
	Pairs []DuplicatePair `json:"pairs"`
}

// List handles GET /api/v1/participants.
func (h *ParticipantHandler) List(c *gin.Context) {
	list, err := h.roster.List(c.Request.Context(), callerID(c))
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	if list == nil {
		list = []models.Participant{}
	}
	c.JSON(http.StatusOK, list)
}

// Export handles GET /api/v1/participants/export?format=text|csv.
func (h *ParticipantHandler) Export(c *gin.Context) {
	switch c.DefaultQuery("format", "text") {
	case "text":
		chunks, err := h.roster.Export(c.Request.Context(), callerID(c))
		if err != nil {
			abortWithError(c, h.log, err)
			return
		}
		if chunks == nil {
			chunks = []string{}
		}
		c.JSON(http.StatusOK, ExportResponse{Chunks: chunks})
	case "csv":
		list, err := h.roster.List(c.Request.Context(), callerID(c))
		if err != nil {
			abortWithError(c, h.log, err)
			return
		}
		data, err := gocsv.MarshalBytes(&list)
		if err != nil {
			abortWithError(c, h.log, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="participants.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "format must be text or csv"})
	}
}

// Duplicates handles GET /api/v1/participants/duplicates.
func (h *ParticipantHandler) Duplicates(c *gin.Context) {
	pairs, err := h.roster.CheckDuplicates(c.Request.Context(), callerID(c))
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}

	resp := DuplicatesResponse{Pairs: []DuplicatePair{}}
	for p := range pairs {
		resp.Pairs = append(resp.Pairs, DuplicatePair{
			Left:  services.RosterEntry{Number: p.Left.Number, Email: p.Left.Email},
			Right: services.RosterEntry{Number: p.Right.Number, Email: p.Right.Email},
			Score: p.Score,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Remove handles DELETE /api/v1/participants/:identifier.
func (h *ParticipantHandler) Remove(c *gin.Context) {
	p, err := h.roster.Remove(c.Request.Context(), callerID(c), c.Param("identifier"))
	if err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, services.RosterEntry{Number: p.Number, Email: p.Email})
}

// Reset handles POST /api/v1/participants/reset.
func (h *ParticipantHandler) Reset(c *gin.Context) {
	if err := h.roster.Reset(c.Request.Context(), callerID(c)); err != nil {
		abortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "roster cleared"})
}
