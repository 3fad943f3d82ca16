package handlers

import (
	"net/http"

	"forkhub/internal/logging"
	"forkhub/internal/metrics"
	"forkhub/internal/middleware"
	"forkhub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

func (h *AuthHandler) ShowSignUp(c *gin.Context) {
	Render(c, http.StatusOK, "auth/signup.html", gin.H{"Title": "Sign up"})
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var in services.SignUpInput
	if err := c.ShouldBind(&in); err != nil {
		handleError(c, &services.Error{Kind: services.ErrValidation, Message: "All fields are required."}, "/signup")
		return
	}

	user, err := h.identity.CreateUser(c.Request.Context(), in)
	if err != nil {
		handleError(c, err, "/signup")
		return
	}

	metrics.SignUps.Inc()
	logging.Info().Uint("user_id", user.ID).Msg("User registered")
	success(c, "Registered successfully.")
	c.Redirect(http.StatusFound, "/signin")
}

func (h *AuthHandler) ShowSignIn(c *gin.Context) {
	Render(c, http.StatusOK, "auth/signin.html", gin.H{"Title": "Sign in"})
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := h.identity.VerifyCredentials(c.Request.Context(), email, password)
	if err != nil {
		handleError(c, err, "/signin")
		return
	}
	if user == nil {
		metrics.RecordSignIn(false)
		middleware.AddFlash(c, middleware.FlashError, "Email or password incorrect.")
		c.Redirect(http.StatusFound, "/signin")
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserID, user.ID)
	session.AddFlash("Sign in successfully.", middleware.FlashSuccess)
	if err := session.Save(); err != nil {
		renderFailure(c, err)
		return
	}

	metrics.RecordSignIn(true)
	c.Redirect(http.StatusFound, "/restaurants")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(middleware.SessionUserID)
	session.AddFlash("Logout successfully.", middleware.FlashSuccess)
	if err := session.Save(); err != nil {
		renderFailure(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/signin")
}
