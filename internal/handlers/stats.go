package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Emmanuek5/tictaktoe-discord-activity/internal/services"
)

type StatsHandler struct {
	stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GetStats godoc
// @Summary      Get a user's cumulative game statistics
// @Tags         stats
// @Param        userId path string true "Discord user ID"
// @Success      200 {object} models.UserStats
// @Router       /api/stats/{userId} [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	// nil is a valid answer: the user has no recorded games yet.
	c.JSON(http.StatusOK, stats)
}
