package handlers

import (
	"net/http"

	"forkhub/internal/middleware"
	"forkhub/internal/services"
	"forkhub/internal/utils"

	"github.com/gin-gonic/gin"
)

type RestaurantHandler struct {
	catalog *services.CatalogService
	feed    *services.FeedService
}

func NewRestaurantHandler(catalog *services.CatalogService, feed *services.FeedService) *RestaurantHandler {
	return &RestaurantHandler{catalog: catalog, feed: feed}
}

// List GET /restaurants?categoryId=&page=&limit=
func (h *RestaurantHandler) List(c *gin.Context) {
	q := services.RestaurantQuery{
		Page:     utils.StringToInt(c.Query("page")),
		PageSize: utils.StringToInt(c.Query("limit")),
	}
	if id, ok := utils.ParseID(c.Query("categoryId")); ok {
		q.CategoryID = id
	}

	page, err := h.catalog.ListRestaurants(c.Request.Context(), q, middleware.CurrentActor(c))
	if err != nil {
		renderFailure(c, err)
		return
	}

	Render(c, http.StatusOK, "restaurants/index.html", gin.H{
		"Title":  "Restaurants",
		"Active": "restaurants",
		"Page":   page,
	})
}

func (h *RestaurantHandler) Detail(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		renderFailure(c, err)
		return
	}

	detail, err := h.catalog.GetRestaurantDetail(c.Request.Context(), id, middleware.CurrentActor(c))
	if err != nil {
		renderFailure(c, err)
		return
	}

	Render(c, http.StatusOK, "restaurants/show.html", gin.H{
		"Title":  detail.Restaurant.Name,
		"Detail": detail,
	})
}

func (h *RestaurantHandler) Dashboard(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		renderFailure(c, err)
		return
	}

	dashboard, err := h.catalog.GetDashboard(c.Request.Context(), id)
	if err != nil {
		renderFailure(c, err)
		return
	}

	Render(c, http.StatusOK, "restaurants/dashboard.html", gin.H{
		"Title":     dashboard.Restaurant.Name,
		"Dashboard": dashboard,
	})
}

func (h *RestaurantHandler) Feeds(c *gin.Context) {
	feed, err := h.feed.GetFeed(c.Request.Context())
	if err != nil {
		renderFailure(c, err)
		return
	}

	Render(c, http.StatusOK, "restaurants/feeds.html", gin.H{
		"Title":  "Latest",
		"Active": "feeds",
		"Feed":   feed,
	})
}

func (h *RestaurantHandler) Top(c *gin.Context) {
	rows, err := h.catalog.GetTopRestaurants(c.Request.Context(), middleware.CurrentActor(c), services.TopRestaurantsLimit)
	if err != nil {
		renderFailure(c, err)
		return
	}

	Render(c, http.StatusOK, "restaurants/top.html", gin.H{
		"Title":       "Top 10 restaurants",
		"Active":      "top",
		"Restaurants": rows,
	})
}
