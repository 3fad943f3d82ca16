package services

import (
	"context"
	"errors"
	"strings"

	"forkhub/internal/models"
	"forkhub/internal/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type EngagementService struct {
	db *gorm.DB
}

func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{db: db}
}

// Sets returns the engagement id sets of userID.
func (s *EngagementService) Sets(ctx context.Context, userID uint) (EngagementSets, error) {
	return loadEngagementSets(ctx, s.db, userID)
}

func (s *EngagementService) AddFavorite(ctx context.Context, actorID, restaurantID uint) error {
	row := &models.Favorite{UserID: actorID, RestaurantID: restaurantID}
	return s.addMark(ctx, row, actorID, restaurantID, "You have already favorited this restaurant.")
}

func (s *EngagementService) RemoveFavorite(ctx context.Context, actorID, restaurantID uint) error {
	return s.removeMark(ctx, &models.Favorite{}, actorID, restaurantID,
		"You haven't favorited this restaurant.")
}

func (s *EngagementService) AddLike(ctx context.Context, actorID, restaurantID uint) error {
	row := &models.Like{UserID: actorID, RestaurantID: restaurantID}
	return s.addMark(ctx, row, actorID, restaurantID, "You have already liked this restaurant.")
}

func (s *EngagementService) RemoveLike(ctx context.Context, actorID, restaurantID uint) error {
	return s.removeMark(ctx, &models.Like{}, actorID, restaurantID,
		"You haven't liked this restaurant.")
}

// addMark creates a favorite or like row. The restaurant lookup and the
// duplicate check run concurrently; the unique index catches the race.
func (s *EngagementService) addMark(ctx context.Context, row any, userID, restaurantID uint, duplicateMsg string) error {
	var restaurants, existing int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Restaurant{}).
			Where("id = ?", restaurantID).Count(&restaurants).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(row).
			Where("user_id = ? AND restaurant_id = ?", userID, restaurantID).Count(&existing).Error
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if restaurants == 0 {
		return notFound("Restaurant didn't exist.")
	}
	if existing > 0 {
		return conflict("%s", duplicateMsg)
	}

	return createUnique(s.db.WithContext(ctx), row, "%s", duplicateMsg)
}

func (s *EngagementService) removeMark(ctx context.Context, model any, actorID, restaurantID uint, missingMsg string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND restaurant_id = ?", actorID, restaurantID).
		Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("%s", missingMsg)
	}
	return nil
}

func (s *EngagementService) Follow(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return validationError("You can't follow yourself.")
	}

	var users, existing int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.User{}).
			Where("id = ?", targetID).Count(&users).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Followship{}).
			Where("follower_id = ? AND following_id = ?", actorID, targetID).Count(&existing).Error
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if users == 0 {
		return notFound("User didn't exist.")
	}
	if existing > 0 {
		return conflict("You are already following this user.")
	}

	f := models.Followship{FollowerID: actorID, FollowingID: targetID}
	return createUnique(s.db.WithContext(ctx), &f, "You are already following this user.")
}

func (s *EngagementService) Unfollow(ctx context.Context, actorID, targetID uint) error {
	result := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", actorID, targetID).
		Delete(&models.Followship{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("You haven't followed this user.")
	}
	return nil
}

// PostComment stores the trimmed text as typed and returns the restaurant
// id. Text that is empty once markup is removed is rejected.
func (s *EngagementService) PostComment(ctx context.Context, actorID, restaurantID uint, text string) (uint, error) {
	text = strings.TrimSpace(text)
	if strings.TrimSpace(utils.StripTags(text)) == "" {
		return 0, validationError("Comment text is required.")
	}

	var users, restaurants int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.User{}).
			Where("id = ?", actorID).Count(&users).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.Restaurant{}).
			Where("id = ?", restaurantID).Count(&restaurants).Error
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if users == 0 {
		return 0, notFound("User didn't exist.")
	}
	if restaurants == 0 {
		return 0, notFound("Restaurant didn't exist.")
	}

	comment := models.Comment{Text: text, UserID: actorID, RestaurantID: restaurantID}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return 0, err
	}
	return restaurantID, nil
}

// DeleteComment removes a comment written by the actor, or any comment when
// the actor is an admin. It returns the comment's restaurant id.
func (s *EngagementService) DeleteComment(ctx context.Context, actor *Actor, commentID uint) (uint, error) {
	if actor == nil {
		return 0, ErrSignInRequired
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).First(&comment, commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, notFound("Comment didn't exist.")
	}
	if err != nil {
		return 0, err
	}

	if !actor.IsAdmin() && comment.UserID != actor.ID() {
		return 0, forbidden("You can only delete your own comments.")
	}

	if err := s.db.WithContext(ctx).Delete(&comment).Error; err != nil {
		return 0, err
	}
	return comment.RestaurantID, nil
}
