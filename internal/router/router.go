package router

import (
	"fmt"
	"net/http"

	"forkhub/internal/authz"
	"forkhub/internal/config"
	"forkhub/internal/handlers"
	"forkhub/internal/metrics"
	"forkhub/internal/middleware"
	"forkhub/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services bundles what the handlers depend on.
type Services struct {
	Identity   *services.IdentityService
	Engagement *services.EngagementService
	Categories *services.CategoryService
	Catalog    *services.CatalogService
	Feed       *services.FeedService
	Uploader   *services.ImageUploader
}

func NewServices(db *gorm.DB, upload config.UploadConfig) *Services {
	identity := services.NewIdentityService(db)
	categories := services.NewCategoryService(db)
	return &Services{
		Identity:   identity,
		Engagement: services.NewEngagementService(db),
		Categories: categories,
		Catalog:    services.NewCatalogService(db, categories),
		Feed:       services.NewFeedService(db, identity),
		Uploader:   services.NewImageUploader(upload),
	}
}

// NewEngine builds a gin engine with recovery, request logging and metrics.
// Only peers in trustedProxies may set the client IP through forwarding
// headers; nil trusts none, so c.ClientIP() is the socket address.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(), metrics.Middleware())
	return r, nil
}

// RegisterRoutes wires middleware and routes. Sessions and the HTML
// renderer must already be installed on r. A nil limiter leaves the
// sign-in and sign-up posts unthrottled.
func RegisterRoutes(r *gin.Engine, svc *Services, enforcer *authz.Enforcer, limiter *middleware.RateLimiter) {
	authHandler := handlers.NewAuthHandler(svc.Identity)
	restaurantHandler := handlers.NewRestaurantHandler(svc.Catalog, svc.Feed)
	commentHandler := handlers.NewCommentHandler(svc.Engagement)
	engagementHandler := handlers.NewEngagementHandler(svc.Engagement)
	userHandler := handlers.NewUserHandler(svc.Identity, svc.Feed, svc.Uploader)
	adminHandler := handlers.NewAdminHandler(svc.Categories)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", metrics.Handler())

	r.Use(middleware.LoadUser(svc.Identity))

	throttle := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		throttle = limiter.Limit()
	}

	// public
	r.GET("/signup", authHandler.ShowSignUp)
	r.POST("/signup", throttle, authHandler.SignUp)
	r.GET("/signin", authHandler.ShowSignIn)
	r.POST("/signin", throttle, authHandler.SignIn)

	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/restaurants") })
		authorized.GET("/logout", authHandler.Logout)

		authorized.GET("/restaurants", restaurantHandler.List)
		authorized.GET("/restaurants/feeds", restaurantHandler.Feeds)
		authorized.GET("/restaurants/top", restaurantHandler.Top)
		authorized.GET("/restaurants/:id", restaurantHandler.Detail)
		authorized.GET("/restaurants/:id/dashboard", restaurantHandler.Dashboard)

		authorized.POST("/restaurants/:id/comments", commentHandler.Create)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		// :id is a restaurant for favorite/like and a user for followship
		authorized.POST("/users/:id/favorite", engagementHandler.AddFavorite)
		authorized.DELETE("/users/:id/favorite", engagementHandler.RemoveFavorite)
		authorized.POST("/users/:id/like", engagementHandler.AddLike)
		authorized.DELETE("/users/:id/like", engagementHandler.RemoveLike)
		authorized.POST("/users/:id/followship", engagementHandler.Follow)
		authorized.DELETE("/users/:id/followship", engagementHandler.Unfollow)

		authorized.GET("/users/top", userHandler.Top)
		authorized.GET("/users/:id", userHandler.Profile)
		authorized.GET("/users/:id/edit", userHandler.Edit)
		authorized.PUT("/users/:id", userHandler.Update)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired(enforcer))
	{
		admin.GET("", func(c *gin.Context) { c.Redirect(http.StatusFound, "/admin/categories") })
		admin.GET("/categories", adminHandler.ListCategories)
		admin.POST("/categories", adminHandler.CreateCategory)
		admin.GET("/categories/:id", adminHandler.EditCategory)
		admin.PUT("/categories/:id", adminHandler.UpdateCategory)
		admin.DELETE("/categories/:id", adminHandler.DeleteCategory)
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.RenderError(c, http.StatusNotFound, "Page not found.")
	})
}
