package handlers

import (
	"fmt"
	"net/http"

	"forkhub/internal/metrics"
	"forkhub/internal/middleware"
	"forkhub/internal/services"

	"github.com/gin-gonic/gin"
)

type commentForm struct {
	Text string `form:"text" binding:"required"`
}

type CommentHandler struct {
	engagement *services.EngagementService
}

func NewCommentHandler(engagement *services.EngagementService) *CommentHandler {
	return &CommentHandler{engagement: engagement}
}

// Create POST /restaurants/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	restaurantID, err := idParam(c)
	if err != nil {
		handleError(c, err, "/restaurants")
		return
	}
	back := fmt.Sprintf("/restaurants/%d", restaurantID)

	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		handleError(c, &services.Error{Kind: services.ErrValidation, Message: "Comment text is required."}, back)
		return
	}

	actor := middleware.CurrentActor(c)
	rid, err := h.engagement.PostComment(c.Request.Context(), actor.ID(), restaurantID, form.Text)
	if err != nil {
		handleError(c, err, back)
		return
	}

	metrics.RecordEngagement("comment", "add")
	c.Redirect(http.StatusFound, fmt.Sprintf("/restaurants/%d", rid))
}

// Delete DELETE /comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := idParam(c)
	if err != nil {
		handleError(c, err, "/restaurants")
		return
	}

	rid, err := h.engagement.DeleteComment(c.Request.Context(), middleware.CurrentActor(c), commentID)
	if err != nil {
		handleError(c, err, "/restaurants")
		return
	}

	metrics.RecordEngagement("comment", "remove")
	success(c, "Comment deleted.")
	c.Redirect(http.StatusFound, fmt.Sprintf("/restaurants/%d", rid))
}
