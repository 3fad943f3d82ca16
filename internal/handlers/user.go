package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"forkhub/internal/middleware"
	"forkhub/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	identity *services.IdentityService
	feed     *services.FeedService
	uploader *services.ImageUploader
}

func NewUserHandler(identity *services.IdentityService, feed *services.FeedService, uploader *services.ImageUploader) *UserHandler {
	return &UserHandler{identity: identity, feed: feed, uploader: uploader}
}

// Profile GET /users/:id
func (h *UserHandler) Profile(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		renderFailure(c, err)
		return
	}

	profile, err := h.feed.GetUserProfile(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		renderFailure(c, err)
		return
	}

	Render(c, http.StatusOK, "users/profile.html", gin.H{
		"Title":   profile.User.Name,
		"Profile": profile,
	})
}

// ownProfileID rejects attempts to edit someone else's profile.
func ownProfileID(c *gin.Context) (uint, error) {
	if middleware.CurrentActor(c) == nil {
		return 0, services.ErrSignInRequired
	}
	id, err := idParam(c)
	if err != nil {
		return 0, err
	}
	if id != middleware.CurrentActor(c).ID() {
		return 0, &services.Error{Kind: services.ErrForbidden, Message: "You can only edit your own profile."}
	}
	return id, nil
}

// Edit GET /users/:id/edit
func (h *UserHandler) Edit(c *gin.Context) {
	id, err := ownProfileID(c)
	if err != nil {
		handleError(c, err, fmt.Sprintf("/users/%d", middleware.CurrentActor(c).ID()))
		return
	}

	user, err := h.identity.GetUser(c.Request.Context(), id)
	if err != nil {
		renderFailure(c, err)
		return
	}

	Render(c, http.StatusOK, "users/edit.html", gin.H{
		"Title": "Edit profile",
		"User":  user,
	})
}

// Update PUT /users/:id with an optional "image" file.
func (h *UserHandler) Update(c *gin.Context) {
	own := fmt.Sprintf("/users/%d", middleware.CurrentActor(c).ID())
	id, err := ownProfileID(c)
	if err != nil {
		handleError(c, err, own)
		return
	}

	var header *multipart.FileHeader
	header, err = c.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		handleError(c, err, own+"/edit")
		return
	}

	imageURL, err := h.uploader.Upload(c.Request.Context(), header)
	if err != nil {
		handleError(c, err, own+"/edit")
		return
	}

	if _, err := h.identity.UpdateProfile(c.Request.Context(), id, c.PostForm("name"), imageURL); err != nil {
		handleError(c, err, own+"/edit")
		return
	}

	success(c, "Profile updated.")
	c.Redirect(http.StatusFound, own)
}

// Top GET /users/top
func (h *UserHandler) Top(c *gin.Context) {
	users, err := h.feed.GetTopUsers(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		renderFailure(c, err)
		return
	}

	Render(c, http.StatusOK, "users/top.html", gin.H{
		"Title":  "Top users",
		"Active": "users",
		"Users":  users,
	})
}
