package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reframe/models"
	"reframe/repository"
	"reframe/services"
	"reframe/utils"
)

// APIHandler holds all dependencies for API handlers.
type APIHandler struct {
	thoughtService services.ThoughtService
	quotaService   services.QuotaService
	modelID        string
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(thoughtService services.ThoughtService, quotaService services.QuotaService, modelID string) *APIHandler {
	return &APIHandler{
		thoughtService: thoughtService,
		quotaService:   quotaService,
		modelID:        modelID,
	}
}

// ThoughtRequest is the body of a new thought or a reply.
type ThoughtRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// TierRequest carries the auth/subscription signal for a user.
type TierRequest struct {
	UserID string `json:"user_id" binding:"required"`
	models.TierSignal
}

// OwnerRequest identifies a user.
type OwnerRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// RegisterRoutes wires every endpoint onto r.
func RegisterRoutes(r *gin.Engine, handler *APIHandler) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/init", handler.InitHandler)
		apiGroup.POST("/thought", handler.ThoughtHandler)
		apiGroup.POST("/tier", handler.TierHandler)
		apiGroup.POST("/signout", handler.SignOutHandler)

		conversationGroup := apiGroup.Group("/conversations")
		{
			conversationGroup.GET("/:conversationID", handler.GetConversationHandler)
			conversationGroup.POST("/:conversationID/reply", handler.ReplyHandler)
		}
		registerDebugRoutes(apiGroup, handler)
	}
}

// InitHandler returns the quota status of a user, minting an anonymous ID
// when none is supplied.
// GET /api/init?user_id=
func (h *APIHandler) InitHandler(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("user_id"))
	isNew := false
	if userID == "" {
		userID = utils.GenerateID()
		isNew = true
		log.Printf("INFO: [API] No user_id provided, generated anonymous ID: %s", userID)
	}

	tracker, release, err := h.quotaService.Acquire(userID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Could not load usage quota.", err)
		return
	}
	defer release()

	// A new day may already have renewed a periodic quota.
	tracker.ResetDailyIfNeeded()

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "OK",
		"data": models.InitResponse{
			UserID:  userID,
			IsNew:   isNew,
			ModelID: h.modelID,
			Quota:   tracker.Status(),
		},
	})
}

// ThoughtHandler processes a new negative thought.
// POST /api/thought
func (h *APIHandler) ThoughtHandler(c *gin.Context) {
	var req ThoughtRequest
	// Bind and validate the request body
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	log.Printf("INFO: [API] Thought received from user '%s'.", req.UserID)

	result, err := h.thoughtService.ProcessThought(c.Request.Context(), req.UserID, req.Message)
	h.respondThought(c, result, err)
}

// ReplyHandler continues an existing conversation.
// POST /api/conversations/:conversationID/reply
func (h *APIHandler) ReplyHandler(c *gin.Context) {
	var req ThoughtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	conversationID := c.Param("conversationID")

	result, err := h.thoughtService.Reply(c.Request.Context(), req.UserID, conversationID, req.Message)
	h.respondThought(c, result, err)
}

// GetConversationHandler lists the turns of a conversation.
// GET /api/conversations/:conversationID?user_id=
func (h *APIHandler) GetConversationHandler(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		utils.SendJSONError(c, http.StatusBadRequest, "user_id query parameter is required.", nil)
		return
	}
	turns, err := h.thoughtService.Conversation(userID, c.Param("conversationID"))
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "OK",
		"data":    turns,
	})
}

// TierHandler applies an authentication/subscription change. The signal is
// trusted as sent, so this route must only be reachable through the auth
// collaborator, never directly from clients.
// POST /api/tier
func (h *APIHandler) TierHandler(c *gin.Context) {
	var req TierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	status, err := h.quotaService.ApplyTierSignal(req.UserID, req.TierSignal)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Could not update usage tier.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Tier updated",
		"data":    status,
	})
}

// SignOutHandler resets a user's usage on sign-out.
// POST /api/signout
func (h *APIHandler) SignOutHandler(c *gin.Context) {
	var req OwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request format.", err)
		return
	}
	status, err := h.quotaService.SignOut(req.UserID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Could not reset usage.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Signed out",
		"data":    status,
	})
}

func (h *APIHandler) respondThought(c *gin.Context, result *services.ThoughtResult, err error) {
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	// Quota exhaustion is reported with the quota so the UI can gate its input.
	if result.LimitReached {
		msg := fmt.Sprintf("You have used all %d responses available on the %s plan.", result.Quota.ResponseLimit, result.Quota.Tier)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"code":  http.StatusTooManyRequests,
			"error": msg,
			"data":  result.Quota,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "OK",
		"data": models.ThoughtResponse{
			ConversationID: result.ConversationID,
			DisplayText:    result.DisplayText,
			UsedFallback:   result.UsedFallback,
			Quota:          result.Quota,
		},
	})
}

// sendServiceError maps service and model errors to HTTP responses.
func (h *APIHandler) sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyThought):
		utils.SendJSONError(c, http.StatusBadRequest, "Please write a thought first.", err)
	case errors.Is(err, services.ErrRequestInFlight):
		utils.SendJSONError(c, http.StatusConflict, "Your previous thought is still being processed.", err)
	case errors.Is(err, repository.ErrConversationNotFound):
		utils.SendJSONError(c, http.StatusNotFound, "Conversation not found.", err)
	case errors.Is(err, services.ErrNotConversationOwner):
		utils.SendJSONError(c, http.StatusForbidden, "This conversation belongs to another user.", err)
	case errors.Is(err, services.ErrMissingCredential):
		utils.SendJSONError(c, http.StatusServiceUnavailable, "The reflection service is not configured right now. Please try again later.", err, services.KindMissingCredential.String())
	case errors.Is(err, services.ErrRateLimited):
		utils.SendJSONError(c, http.StatusTooManyRequests, "The reflection service is busy. Please wait a moment and try again.", err, services.KindRateLimited.String())
	case errors.Is(err, services.ErrNetworkFailure),
		errors.Is(err, services.ErrServerFailure),
		errors.Is(err, services.ErrInvalidResponse),
		errors.Is(err, services.ErrParseFailure):
		utils.SendJSONError(c, http.StatusBadGateway, "We couldn't get a reply right now. Your free responses were not used.", err, services.KindOf(err).String())
	default:
		utils.SendJSONError(c, http.StatusInternalServerError, "", err, services.KindOf(err).String())
	}
}
