package services

import (
	"context"

	"forkhub/internal/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const FeedSize = 10

type UserSummary struct {
	ID            uint
	Name          string
	Image         string
	FollowerCount int64
	IsFollowed    bool
	CanFollow     bool
}

type Feed struct {
	Restaurants []models.Restaurant
	Comments    []models.Comment
}

// Profile is a user page. Followers, Followings and the restaurant lists carry
// only id and image (followers also carry name).
type Profile struct {
	User                 models.User
	Followers            []models.User
	Followings           []models.User
	FavoritedRestaurants []models.Restaurant
	CommentedRestaurants []models.Restaurant
	IsFollowed           bool
	IsSelf               bool
}

// FeedService assembles the read-only views that span several tables.
type FeedService struct {
	db       *gorm.DB
	identity *IdentityService
}

func NewFeedService(db *gorm.DB, identity *IdentityService) *FeedService {
	return &FeedService{db: db, identity: identity}
}

func (s *FeedService) GetFeed(ctx context.Context) (*Feed, error) {
	feed := &Feed{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
			Order("created_at DESC, id DESC").
			Limit(FeedSize).
			Find(&feed.Restaurants).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Preload("User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
			Preload("Restaurant", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
			Order("created_at DESC, id DESC").
			Limit(FeedSize).
			Find(&feed.Comments).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return feed, nil
}

// GetTopUsers ranks every user by follower count, then name, then id.
func (s *FeedService) GetTopUsers(ctx context.Context, actor *Actor) ([]UserSummary, error) {
	var rows []UserSummary
	err := s.db.WithContext(ctx).Table("users").
		Select("users.id, users.name, users.image, COUNT(followships.follower_id) AS follower_count").
		Joins("LEFT JOIN followships ON followships.following_id = users.id").
		Group("users.id").
		Order("follower_count DESC, users.name ASC, users.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].IsFollowed = actor.IsFollowing(rows[i].ID)
		rows[i].CanFollow = rows[i].ID != actor.ID()
	}
	return rows, nil
}

func (s *FeedService) GetUserProfile(ctx context.Context, profileID uint, actor *Actor) (*Profile, error) {
	user, err := s.identity.GetUser(ctx, profileID)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		User:       *user,
		IsFollowed: actor.IsFollowing(profileID),
		IsSelf:     actor.ID() == profileID,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.User{}).
			Select("users.id", "users.name", "users.image").
			Joins("JOIN followships ON followships.follower_id = users.id").
			Where("followships.following_id = ?", profileID).
			Order("followships.created_at DESC").
			Find(&p.Followers).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.User{}).
			Select("users.id", "users.name", "users.image").
			Joins("JOIN followships ON followships.following_id = users.id").
			Where("followships.follower_id = ?", profileID).
			Order("followships.created_at DESC").
			Find(&p.Followings).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Restaurant{}).
			Select("restaurants.id", "restaurants.name", "restaurants.image").
			Joins("JOIN favorites ON favorites.restaurant_id = restaurants.id").
			Where("favorites.user_id = ?", profileID).
			Order("favorites.created_at DESC").
			Find(&p.FavoritedRestaurants).Error
	})
	g.Go(func() error {
		commented := s.db.Model(&models.Comment{}).Select("restaurant_id").Where("user_id = ?", profileID)
		return s.db.WithContext(gctx).Model(&models.Restaurant{}).
			Select("id", "name", "image").
			Where("id IN (?)", commented).
			Order("id ASC").
			Find(&p.CommentedRestaurants).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}
