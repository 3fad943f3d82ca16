package handlers

import (
	"context"

	"forkhub/internal/metrics"
	"forkhub/internal/middleware"
	"forkhub/internal/services"

	"github.com/gin-gonic/gin"
)

// EngagementHandler serves the favorite, like and follow toggles. Each one
// redirects back to the page the form was posted from.
type EngagementHandler struct {
	engagement *services.EngagementService
}

func NewEngagementHandler(engagement *services.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagement: engagement}
}

type engagementOp func(ctx context.Context, actorID, targetID uint) error

func (h *EngagementHandler) apply(c *gin.Context, op engagementOp, kind, action, fallback string) {
	targetID, err := idParam(c)
	if err != nil {
		handleError(c, err, fallback)
		return
	}

	if err := op(c.Request.Context(), middleware.CurrentActor(c).ID(), targetID); err != nil {
		handleError(c, err, fallback)
		return
	}

	metrics.RecordEngagement(kind, action)
	redirectBack(c, fallback)
}

// AddFavorite POST /users/:id/favorite (:id is a restaurant)
func (h *EngagementHandler) AddFavorite(c *gin.Context) {
	h.apply(c, h.engagement.AddFavorite, "favorite", "add", "/restaurants")
}

func (h *EngagementHandler) RemoveFavorite(c *gin.Context) {
	h.apply(c, h.engagement.RemoveFavorite, "favorite", "remove", "/restaurants")
}

// AddLike POST /users/:id/like (:id is a restaurant)
func (h *EngagementHandler) AddLike(c *gin.Context) {
	h.apply(c, h.engagement.AddLike, "like", "add", "/restaurants")
}

func (h *EngagementHandler) RemoveLike(c *gin.Context) {
	h.apply(c, h.engagement.RemoveLike, "like", "remove", "/restaurants")
}

// Follow POST /users/:id/followship (:id is a user)
func (h *EngagementHandler) Follow(c *gin.Context) {
	h.apply(c, h.engagement.Follow, "follow", "add", "/users/top")
}

func (h *EngagementHandler) Unfollow(c *gin.Context) {
	h.apply(c, h.engagement.Unfollow, "follow", "remove", "/users/top")
}

