package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"forkhub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRedirectBack(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		referer  string
		expected string
	}{
		{"no referer", "", "/restaurants"},
		{"same host", "http://example.com/restaurants/3?page=2", "/restaurants/3?page=2"},
		{"relative", "/users/top", "/users/top"},
		{"other host", "http://evil.test/phish", "/restaurants"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/users/1/favorite", nil)
			if tt.referer != "" {
				c.Request.Header.Set("Referer", tt.referer)
			}

			redirectBack(c, "/restaurants")
			c.Writer.WriteHeaderNow()

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.expected, w.Header().Get("Location"))
		})
	}
}

func TestMessage(t *testing.T) {
	err := &services.Error{Kind: services.ErrConflict, Message: "Email already exists."}
	assert.Equal(t, "Email already exists.", message(err))
	assert.Equal(t, "boom", message(errors.New("boom")))
}

func TestIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Params = gin.Params{{Key: "id", Value: "12"}}
	id, err := idParam(c)
	assert.NoError(t, err)
	assert.Equal(t, uint(12), id)

	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, err = idParam(c)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestHandleErrorUnauthenticatedGoesToSignIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.PUT("/users/:id", func(c *gin.Context) {
		_, err := ownProfileID(c)
		handleError(c, err, "/restaurants")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/3", nil)
	req.Header.Set("Referer", "http://example.com/users/3/edit")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/signin", w.Header().Get("Location"))
	assert.NotEmpty(t, w.Header().Get("Set-Cookie"))
}
