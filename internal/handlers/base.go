package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"forkhub/internal/logging"
	"forkhub/internal/middleware"
	"forkhub/internal/services"
	"forkhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// Render injects the current user, path and pending flash messages.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if actor := middleware.CurrentActor(c); actor != nil {
		obj["CurrentUser"] = &actor.User
		obj["Actor"] = actor
	}
	if _, ok := obj["Active"]; !ok {
		obj["Active"] = ""
	}
	obj["CurrentPath"] = c.Request.URL.Path
	obj["SuccessMessages"] = middleware.Flashes(c, middleware.FlashSuccess)
	obj["ErrorMessages"] = middleware.Flashes(c, middleware.FlashError)

	c.HTML(code, name, obj)
}

func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// renderFailure shows an error page for a failed page load.
func renderFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RenderError(c, http.StatusNotFound, message(err))
	case errors.Is(err, services.ErrForbidden):
		RenderError(c, http.StatusForbidden, message(err))
	case errors.Is(err, services.ErrValidation):
		RenderError(c, http.StatusBadRequest, message(err))
	case errors.Is(err, services.ErrConflict):
		RenderError(c, http.StatusConflict, message(err))
	default:
		logging.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		RenderError(c, http.StatusInternalServerError, "Something went wrong. Please try again later.")
	}
}

// handleError turns a failed write into a flash message and a redirect.
// Unknown errors are logged and render the error page.
func handleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		middleware.AddFlash(c, middleware.FlashError, message(err))
		c.Redirect(http.StatusFound, "/signin")
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrForbidden):
		middleware.AddFlash(c, middleware.FlashError, message(err))
		redirectBack(c, fallback)
	default:
		renderFailure(c, err)
	}
}

func message(err error) string {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return err.Error()
}

// redirectBack goes to the same-host Referer, or fallback.
func redirectBack(c *gin.Context, fallback string) {
	if ref := c.Request.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && (u.Host == "" || u.Host == c.Request.Host) && u.Path != "" {
			c.Redirect(http.StatusFound, u.RequestURI())
			return
		}
	}
	c.Redirect(http.StatusFound, fallback)
}

func success(c *gin.Context, msg string) {
	middleware.AddFlash(c, middleware.FlashSuccess, msg)
}

// idParam parses the :id route parameter.
func idParam(c *gin.Context) (uint, error) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		return 0, &services.Error{Kind: services.ErrNotFound, Message: "Invalid id."}
	}
	return id, nil
}
