package services

import (
	"context"
	"errors"
	"html/template"
	"time"

	"forkhub/internal/models"
	"forkhub/internal/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultPageSize          = 9
	DescriptionPreviewLength = 50
	TopRestaurantsLimit      = 10
)

// RestaurantQuery selects one page of restaurants. CategoryID 0 means all.
type RestaurantQuery struct {
	CategoryID uint
	Page       int
	PageSize   int
}

func (q RestaurantQuery) normalize() RestaurantQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// RestaurantSummary is a list row with the description cut to a preview.
type RestaurantSummary struct {
	ID             uint
	Name           string
	Image          string
	Description    string
	CategoryID     uint
	CategoryName   string
	FavoritedCount int64
	IsFavorited    bool
	IsLiked        bool
}

type RestaurantPage struct {
	Rows       []RestaurantSummary
	TotalCount int64
	Offset     int
	CategoryID uint
	Categories []models.Category
	Pagination utils.Pagination
}

type CommentView struct {
	ID        uint
	Text      string
	UserID    uint
	UserName  string
	CreatedAt time.Time
	CanDelete bool
}

type RestaurantDetail struct {
	Restaurant       models.Restaurant
	DescriptionHTML  template.HTML
	Comments         []CommentView
	FavoritedUserIDs []uint
	LikedUserIDs     []uint
	IsFavorited      bool
	IsLiked          bool
}

type Dashboard struct {
	Restaurant    models.Restaurant
	CommentCount  int64
	FavoriteCount int64
}

type CatalogService struct {
	db         *gorm.DB
	categories *CategoryService
}

func NewCatalogService(db *gorm.DB, categories *CategoryService) *CatalogService {
	return &CatalogService{db: db, categories: categories}
}

func byCategory(categoryID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if categoryID == 0 {
			return db
		}
		return db.Where("category_id = ?", categoryID)
	}
}

func (s *CatalogService) ListRestaurants(ctx context.Context, q RestaurantQuery, actor *Actor) (*RestaurantPage, error) {
	q = q.normalize()
	offset := utils.Offset(q.PageSize, q.Page)

	var (
		total       int64
		restaurants []models.Restaurant
		categories  []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Restaurant{}).
			Scopes(byCategory(q.CategoryID)).Count(&total).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Preload("Category").
			Scopes(byCategory(q.CategoryID)).
			Order("id ASC").Limit(q.PageSize).Offset(offset).
			Find(&restaurants).Error
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// an empty page is fine; an empty catalog is not
	if len(restaurants) == 0 && len(categories) == 0 {
		return nil, notFound("Restaurant didn't exist.")
	}

	rows := make([]RestaurantSummary, 0, len(restaurants))
	for _, r := range restaurants {
		rows = append(rows, RestaurantSummary{
			ID:           r.ID,
			Name:         r.Name,
			Image:        r.Image,
			Description:  utils.Truncate(r.Description, DescriptionPreviewLength),
			CategoryID:   r.CategoryID,
			CategoryName: r.Category.Name,
			IsFavorited:  actor.HasFavorited(r.ID),
			IsLiked:      actor.HasLiked(r.ID),
		})
	}

	return &RestaurantPage{
		Rows:       rows,
		TotalCount: total,
		Offset:     offset,
		CategoryID: q.CategoryID,
		Categories: categories,
		Pagination: utils.NewPagination(q.PageSize, q.Page, total),
	}, nil
}

func (s *CatalogService) findRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.WithContext(ctx).Preload("Category").First(&restaurant, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Restaurant didn't exist.")
	}
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// GetRestaurantDetail loads a restaurant page and counts the visit.
func (s *CatalogService) GetRestaurantDetail(ctx context.Context, id uint, actor *Actor) (*RestaurantDetail, error) {
	restaurant, err := s.findRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("id = ?", id).
		UpdateColumn("view_counts", gorm.Expr("view_counts + ?", 1)).Error; err != nil {
		return nil, err
	}
	restaurant.ViewCounts++

	var (
		comments  []models.Comment
		favorited []uint
		liked     []uint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
			Where("restaurant_id = ?", id).
			Order("created_at DESC, id DESC").
			Find(&comments).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Favorite{}).
			Where("restaurant_id = ?", id).Pluck("user_id", &favorited).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Like{}).
			Where("restaurant_id = ?", id).Pluck("user_id", &liked).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, CommentView{
			ID:        c.ID,
			Text:      c.Text,
			UserID:    c.UserID,
			UserName:  c.User.Name,
			CreatedAt: c.CreatedAt,
			CanDelete: actor.IsAdmin() || (actor != nil && c.UserID == actor.ID()),
		})
	}

	return &RestaurantDetail{
		Restaurant:       *restaurant,
		DescriptionHTML:  utils.RenderMarkdown(restaurant.Description),
		Comments:         views,
		FavoritedUserIDs: favorited,
		LikedUserIDs:     liked,
		IsFavorited:      actor.HasFavorited(id),
		IsLiked:          actor.HasLiked(id),
	}, nil
}

func (s *CatalogService) GetDashboard(ctx context.Context, id uint) (*Dashboard, error) {
	restaurant, err := s.findRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Restaurant: *restaurant}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Comment{}).
			Where("restaurant_id = ?", id).Count(&d.CommentCount).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Favorite{}).
			Where("restaurant_id = ?", id).Count(&d.FavoriteCount).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

type rankedRestaurant struct {
	ID             uint
	Name           string
	Image          string
	Description    string
	CategoryID     uint
	FavoritedCount int64
}

// GetTopRestaurants ranks by distinct favoriting users, ties by id.
func (s *CatalogService) GetTopRestaurants(ctx context.Context, actor *Actor, limit int) ([]RestaurantSummary, error) {
	if limit < 1 {
		limit = TopRestaurantsLimit
	}

	var (
		ranked     []rankedRestaurant
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Table("restaurants").
			Select("restaurants.id, restaurants.name, restaurants.image, restaurants.description, restaurants.category_id, " +
				"COUNT(DISTINCT favorites.user_id) AS favorited_count").
			Joins("LEFT JOIN favorites ON favorites.restaurant_id = restaurants.id").
			Group("restaurants.id").
			Order("favorited_count DESC, restaurants.id ASC").
			Limit(limit).
			Scan(&ranked).Error
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	rows := make([]RestaurantSummary, 0, len(ranked))
	for _, r := range ranked {
		rows = append(rows, RestaurantSummary{
			ID:             r.ID,
			Name:           r.Name,
			Image:          r.Image,
			Description:    utils.Truncate(r.Description, DescriptionPreviewLength),
			CategoryID:     r.CategoryID,
			CategoryName:   names[r.CategoryID],
			FavoritedCount: r.FavoritedCount,
			IsFavorited:    actor.HasFavorited(r.ID),
			IsLiked:        actor.HasLiked(r.ID),
		})
	}
	return rows, nil
}
