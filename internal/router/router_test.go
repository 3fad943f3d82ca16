package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"forkhub/internal/authz"
	"forkhub/internal/config"
	"forkhub/internal/db"
	"forkhub/internal/middleware"
	"forkhub/internal/models"
	"forkhub/internal/services"
	"forkhub/internal/views"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testApp struct {
	handler http.Handler
	svc     *Services
	db      *gorm.DB
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	return setupAppWithLimiter(t, nil, nil)
}

func setupAppWithLimiter(t *testing.T, limiter *middleware.RateLimiter, trustedProxies []string) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, err := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		sqlDB, _ := conn.DB()
		sqlDB.Close()
	})

	renderer, err := views.Load("../../web/templates")
	require.NoError(t, err)
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)

	r, err := NewEngine(trustedProxies)
	require.NoError(t, err)
	r.Use(sessions.Sessions("forkhub_session", cookie.NewStore([]byte("test-secret"))))
	r.HTMLRender = renderer

	svc := NewServices(conn, config.UploadConfig{LocalDir: t.TempDir(), MaxBytes: 1 << 20})
	RegisterRoutes(r, svc, enforcer, limiter)

	return &testApp{handler: middleware.MethodOverride(r), svc: svc, db: conn}
}

// client keeps cookies between requests like a browser would.
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client() *client {
	return &client{app: a, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, form url.Values, referer string) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.app.handler.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil, "")
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, path, form, "")
}

func (a *testApp) mustUser(t *testing.T, name string, admin bool) *models.User {
	t.Helper()
	user, err := a.svc.Identity.CreateUser(context.Background(), services.SignUpInput{
		Name:                 name,
		Email:                strings.ToLower(name) + "@example.com",
		Password:             "pw123",
		PasswordConfirmation: "pw123",
	})
	require.NoError(t, err)
	if admin {
		require.NoError(t, a.db.Model(user).Update("is_admin", true).Error)
	}
	return user
}

func (a *testApp) mustRestaurant(t *testing.T, name string) *models.Restaurant {
	t.Helper()
	var category models.Category
	require.NoError(t, a.db.FirstOrCreate(&category, models.Category{Name: "Thai"}).Error)
	r := &models.Restaurant{Name: name, Description: "Spicy and sour.", CategoryID: category.ID}
	require.NoError(t, a.db.Create(r).Error)
	return r
}

func (a *testApp) signedIn(t *testing.T, user *models.User) *client {
	t.Helper()
	c := a.client()
	w := c.post("/signin", url.Values{"email": {user.Email}, "password": {"pw123"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/restaurants", w.Header().Get("Location"))
	return c
}

func TestHealthz(t *testing.T) {
	app := setupApp(t)
	w := app.client().get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestAnonymousIsSentToSignIn(t *testing.T) {
	app := setupApp(t)
	c := app.client()

	for _, path := range []string{"/", "/restaurants", "/users/top", "/admin/categories"} {
		w := c.get(path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/signin", w.Header().Get("Location"), path)
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	app := setupApp(t)
	app.mustRestaurant(t, "Baan")
	c := app.client()

	w := c.post("/signup", url.Values{
		"name": {"Alice"}, "email": {"a@x.com"}, "password": {"pw123"}, "passwordCheck": {"pw123"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/signin", w.Header().Get("Location"))

	w = c.get("/signin")
	assert.Contains(t, w.Body.String(), "Registered successfully.")

	w = c.post("/signup", url.Values{
		"name": {"Alice"}, "email": {"a@x.com"}, "password": {"pw123"}, "passwordCheck": {"pw123"},
	})
	assert.Equal(t, http.StatusFound, w.Code)
	w = c.get("/signup")
	assert.Contains(t, w.Body.String(), "Email already exists.")

	w = c.post("/signin", url.Values{"email": {"a@x.com"}, "password": {"wrong"}})
	assert.Equal(t, "/signin", w.Header().Get("Location"))
	w = c.get("/signin")
	assert.Contains(t, w.Body.String(), "Email or password incorrect.")

	w = c.post("/signin", url.Values{"email": {"a@x.com"}, "password": {"pw123"}})
	assert.Equal(t, "/restaurants", w.Header().Get("Location"))

	w = c.get("/restaurants")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Baan")
	assert.Contains(t, w.Body.String(), "Sign in successfully.")

	w = c.get("/logout")
	assert.Equal(t, "/signin", w.Header().Get("Location"))
	w = c.get("/restaurants")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestFavoriteRedirectsBack(t *testing.T) {
	app := setupApp(t)
	user := app.mustUser(t, "Alice", false)
	r := app.mustRestaurant(t, "Baan")
	c := app.signedIn(t, user)
	page := fmt.Sprintf("/restaurants/%d", r.ID)
	favorite := fmt.Sprintf("/users/%d/favorite", r.ID)

	w := c.do(http.MethodPost, favorite, url.Values{}, "http://example.com"+page)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, page, w.Header().Get("Location"))

	w = c.do(http.MethodPost, favorite, url.Values{}, "http://example.com"+page)
	assert.Equal(t, page, w.Header().Get("Location"))
	w = c.get(page)
	assert.Contains(t, w.Body.String(), "You have already favorited this restaurant.")
	assert.Contains(t, w.Body.String(), "Remove favorite")

	w = c.do(http.MethodPost, favorite+"?_method=DELETE", url.Values{}, "")
	assert.Equal(t, "/restaurants", w.Header().Get("Location"))

	var count int64
	app.db.Model(&models.Favorite{}).Count(&count)
	assert.Zero(t, count)
}

func TestFollowSelfIsRejected(t *testing.T) {
	app := setupApp(t)
	alice := app.mustUser(t, "Alice", false)
	bob := app.mustUser(t, "Bob", false)
	c := app.signedIn(t, alice)

	w := c.post(fmt.Sprintf("/users/%d/followship", alice.ID), nil)
	assert.Equal(t, "/users/top", w.Header().Get("Location"))
	w = c.get("/users/top")
	assert.Contains(t, w.Body.String(), "You can&#39;t follow yourself.")

	w = c.post(fmt.Sprintf("/users/%d/followship", bob.ID), nil)
	assert.Equal(t, http.StatusFound, w.Code)
	w = c.get(fmt.Sprintf("/users/%d", bob.ID))
	assert.Contains(t, w.Body.String(), "Unfollow")
}

func TestCommentLifecycle(t *testing.T) {
	app := setupApp(t)
	user := app.mustUser(t, "Alice", false)
	r := app.mustRestaurant(t, "Baan")
	c := app.signedIn(t, user)
	page := fmt.Sprintf("/restaurants/%d", r.ID)

	w := c.post(page+"/comments", url.Values{"text": {"great <b>noodles</b>"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, page, w.Header().Get("Location"))

	w = c.get(page)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "great &lt;b&gt;noodles&lt;/b&gt;")

	var comment models.Comment
	require.NoError(t, app.db.First(&comment).Error)
	w = c.post(fmt.Sprintf("/comments/%d?_method=DELETE", comment.ID), nil)
	assert.Equal(t, page, w.Header().Get("Location"))

	w = c.post(page+"/comments", url.Values{"text": {""}})
	assert.Equal(t, page, w.Header().Get("Location"))
	w = c.get(page)
	assert.Contains(t, w.Body.String(), "Comment text is required.")
}

func TestProfileEditing(t *testing.T) {
	app := setupApp(t)
	alice := app.mustUser(t, "Alice", false)
	bob := app.mustUser(t, "Bob", false)
	c := app.signedIn(t, alice)

	w := c.get(fmt.Sprintf("/users/%d/edit", alice.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.post(fmt.Sprintf("/users/%d?_method=PUT", bob.ID), url.Values{"name": {"Hacked"}})
	assert.Equal(t, fmt.Sprintf("/users/%d", alice.ID), w.Header().Get("Location"))

	w = c.post(fmt.Sprintf("/users/%d?_method=PUT", alice.ID), url.Values{"name": {"Alicia"}})
	assert.Equal(t, fmt.Sprintf("/users/%d", alice.ID), w.Header().Get("Location"))

	var reloaded models.User
	require.NoError(t, app.db.First(&reloaded, bob.ID).Error)
	assert.Equal(t, "Bob", reloaded.Name)
	require.NoError(t, app.db.First(&reloaded, alice.ID).Error)
	assert.Equal(t, "Alicia", reloaded.Name)
}

func TestRestaurantPages(t *testing.T) {
	app := setupApp(t)
	user := app.mustUser(t, "Alice", false)
	r := app.mustRestaurant(t, "Baan")
	c := app.signedIn(t, user)

	for _, path := range []string{
		"/restaurants/feeds",
		"/restaurants/top",
		fmt.Sprintf("/restaurants/%d/dashboard", r.ID),
		fmt.Sprintf("/users/%d", user.ID),
		"/users/top",
	} {
		w := c.get(path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := c.get("/restaurants/9999")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Restaurant didn&#39;t exist.")

	w = c.get("/restaurants/abc")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCategories(t *testing.T) {
	app := setupApp(t)
	user := app.mustUser(t, "Alice", false)
	admin := app.mustUser(t, "Root", true)
	r := app.mustRestaurant(t, "Baan")

	w := app.signedIn(t, user).get("/admin/categories")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/restaurants", w.Header().Get("Location"))

	c := app.signedIn(t, admin)
	w = c.post("/admin/categories", url.Values{"name": {"Ramen"}})
	assert.Equal(t, "/admin/categories", w.Header().Get("Location"))
	w = c.get("/admin/categories")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ramen")
	assert.Contains(t, w.Body.String(), "Category created.")

	w = c.post(fmt.Sprintf("/admin/categories/%d?_method=DELETE", r.CategoryID), nil)
	assert.Equal(t, "/admin/categories", w.Header().Get("Location"))
	w = c.get("/admin/categories")
	assert.Contains(t, w.Body.String(), "still has 1 restaurants")

	var ramen models.Category
	require.NoError(t, app.db.Where("name = ?", "Ramen").First(&ramen).Error)
	w = c.post(fmt.Sprintf("/admin/categories/%d?_method=PUT", ramen.ID), url.Values{"name": {"Noodles"}})
	assert.Equal(t, "/admin/categories", w.Header().Get("Location"))
	w = c.post(fmt.Sprintf("/admin/categories/%d?_method=DELETE", ramen.ID), nil)
	assert.Equal(t, "/admin/categories", w.Header().Get("Location"))

	var count int64
	app.db.Model(&models.Category{}).Where("id = ?", ramen.ID).Count(&count)
	assert.Zero(t, count)
}

func TestSignInIsThrottled(t *testing.T) {
	limiter, err := middleware.NewRateLimiter(2, time.Minute)
	require.NoError(t, err)
	app := setupAppWithLimiter(t, limiter, nil)
	c := app.client()

	form := url.Values{"email": {"nobody@example.com"}, "password": {"wrong"}}
	for i := 0; i < 2; i++ {
		w := c.post("/signin", form)
		assert.Equal(t, "/signin", w.Header().Get("Location"))
	}
	c.get("/signin")

	w := c.post("/signin", form)
	assert.Equal(t, "/signin", w.Header().Get("Location"))
	w = c.get("/signin")
	assert.Contains(t, w.Body.String(), "Too many attempts. Please try again later.")
	assert.NotContains(t, w.Body.String(), "Email or password incorrect.")
}

// postSignInFrom posts a failed sign-in from remoteAddr claiming forwardedFor.
func (a *testApp) postSignInFrom(remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	form := url.Values{"email": {"nobody@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = remoteAddr

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// throttled reports whether w carried the rate-limit flash.
func (a *testApp) throttled(t *testing.T, w *httptest.ResponseRecorder) bool {
	t.Helper()
	c := a.client()
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return strings.Contains(c.get("/signin").Body.String(), "Too many attempts.")
}

func TestThrottleIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	limiter, err := middleware.NewRateLimiter(2, time.Minute)
	require.NoError(t, err)
	app := setupAppWithLimiter(t, limiter, nil)

	throttled := 0
	for i := 0; i < 20; i++ {
		w := app.postSignInFrom("203.0.113.7:4000", fmt.Sprintf("198.51.100.%d", i+1))
		require.Equal(t, http.StatusFound, w.Code)
		if app.throttled(t, w) {
			throttled++
		}
	}
	assert.Equal(t, 18, throttled)
}

func TestThrottleHonorsForwardedForFromTrustedProxy(t *testing.T) {
	limiter, err := middleware.NewRateLimiter(2, time.Minute)
	require.NoError(t, err)
	app := setupAppWithLimiter(t, limiter, []string{"10.0.0.1"})

	for i := 0; i < 2; i++ {
		w := app.postSignInFrom("10.0.0.1:4000", "198.51.100.1")
		assert.False(t, app.throttled(t, w))
	}
	assert.True(t, app.throttled(t, app.postSignInFrom("10.0.0.1:4000", "198.51.100.1")))
	assert.False(t, app.throttled(t, app.postSignInFrom("10.0.0.1:4000", "198.51.100.2")))
}
