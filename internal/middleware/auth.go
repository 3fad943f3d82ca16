package middleware

import (
	"context"
	"errors"
	"net/http"

	"forkhub/internal/authz"
	"forkhub/internal/logging"
	"forkhub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	ActorKey      = "actor"
	SessionUserID = "user_id"

	FlashSuccess = "success_messages"
	FlashError   = "error_messages"
)

// AddFlash queues a message for the next rendered page.
func AddFlash(c *gin.Context, key, message string) {
	session := sessions.Default(c)
	session.AddFlash(message, key)
	if err := session.Save(); err != nil {
		logging.Error().Err(err).Msg("Failed to save flash message")
	}
}

// Flashes pops queued messages for key.
func Flashes(c *gin.Context, key string) []string {
	session := sessions.Default(c)
	raw := session.Flashes(key)
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		logging.Error().Err(err).Msg("Failed to save session")
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// CurrentActor returns the signed-in actor, or nil for anonymous requests.
func CurrentActor(c *gin.Context) *services.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(*services.Actor); ok {
			return actor
		}
	}
	return nil
}

// ActorLoader reloads the session user with their engagement sets.
type ActorLoader interface {
	LoadActor(ctx context.Context, userID uint) (*services.Actor, error)
}

// LoadUser resolves the session cookie into an actor. A cookie pointing at a
// deleted user is cleared and the request continues anonymously.
func LoadUser(identity ActorLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserID).(uint)
		if !ok || userID == 0 {
			c.Next()
			return
		}

		actor, err := identity.LoadActor(c.Request.Context(), userID)
		switch {
		case err == nil:
			c.Set(ActorKey, actor)
		case errors.Is(err, services.ErrNotFound):
			session.Delete(SessionUserID)
			if err := session.Save(); err != nil {
				logging.Error().Err(err).Msg("Failed to clear stale session")
			}
		default:
			logging.Error().Err(err).Uint("user_id", userID).Msg("Failed to load session user")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Next()
	}
}

// AuthRequired redirects anonymous requests to the sign-in page.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentActor(c) == nil {
			AddFlash(c, FlashError, "Please sign in first.")
			c.Redirect(http.StatusFound, "/signin")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired checks the actor's role against the route policy. It must run
// after AuthRequired.
func AdminRequired(enforcer *authz.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		allowed, err := enforcer.Enforce(authz.RoleFor(actor.IsAdmin()), c.Request.URL.Path, c.Request.Method)
		if err != nil {
			logging.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Authorization check failed")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if !allowed {
			AddFlash(c, FlashError, "Permission denied.")
			c.Redirect(http.StatusFound, "/restaurants")
			c.Abort()
			return
		}
		c.Next()
	}
}
