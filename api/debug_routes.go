//go:build debug

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reframe/utils"
)

func registerDebugRoutes(g *gin.RouterGroup, handler *APIHandler) {
	g.POST("/debug/quota/reset", handler.ForceResetHandler)
}

// ForceResetHandler zeroes a user's quota. Debug builds only.
// POST /api/debug/quota/reset
func (h *APIHandler) ForceResetHandler(c *gin.Context) {
	var req OwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	tracker, release, err := h.quotaService.Acquire(req.UserID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Could not load usage quota.", err)
		return
	}
	defer release()
	tracker.ForceReset()
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Quota reset",
		"data":    tracker.Status(),
	})
}
