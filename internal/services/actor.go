package services

import (
	"context"

	"forkhub/internal/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// IDSet is a set of row ids.
type IDSet map[uint]struct{}

func newIDSet(ids []uint) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

// EngagementSets holds what a user has favorited and liked and who they are
// connected to. Followers follow the user; Followings are followed by them.
type EngagementSets struct {
	Favorited  IDSet
	Liked      IDSet
	Followers  IDSet
	Followings IDSet
}

// Actor is the authenticated user of the current request. A nil *Actor is
// anonymous; every method is safe to call on nil.
type Actor struct {
	User models.User
	Sets EngagementSets
}

func (a *Actor) ID() uint {
	if a == nil {
		return 0
	}
	return a.User.ID
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.User.IsAdmin
}

func (a *Actor) HasFavorited(restaurantID uint) bool {
	return a != nil && a.Sets.Favorited.Has(restaurantID)
}

func (a *Actor) HasLiked(restaurantID uint) bool {
	return a != nil && a.Sets.Liked.Has(restaurantID)
}

// IsFollowing reports whether the actor follows userID.
func (a *Actor) IsFollowing(userID uint) bool {
	return a != nil && a.Sets.Followings.Has(userID)
}

func loadEngagementSets(ctx context.Context, db *gorm.DB, userID uint) (EngagementSets, error) {
	var favorited, liked, followers, followings []uint

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.WithContext(gctx).Model(&models.Favorite{}).
			Where("user_id = ?", userID).Pluck("restaurant_id", &favorited).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Model(&models.Like{}).
			Where("user_id = ?", userID).Pluck("restaurant_id", &liked).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Model(&models.Followship{}).
			Where("following_id = ?", userID).Pluck("follower_id", &followers).Error
	})
	g.Go(func() error {
		return db.WithContext(gctx).Model(&models.Followship{}).
			Where("follower_id = ?", userID).Pluck("following_id", &followings).Error
	})
	if err := g.Wait(); err != nil {
		return EngagementSets{}, err
	}

	return EngagementSets{
		Favorited:  newIDSet(favorited),
		Liked:      newIDSet(liked),
		Followers:  newIDSet(followers),
		Followings: newIDSet(followings),
	}, nil
}
