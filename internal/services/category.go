package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"forkhub/internal/models"
	"forkhub/internal/utils"

	"gorm.io/gorm"
)

const categoriesCacheKey = "categories:all"

type CategoryService struct {
	db    *gorm.DB
	cache *utils.TTLCache[[]models.Category]
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	cache, err := utils.NewTTLCache[[]models.Category](8, 10*time.Minute)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &CategoryService{db: db, cache: cache}
}

// ListCategories returns every category ordered by id. Results are cached
// until the next write.
func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	if cached, ok := s.cache.Get(categoriesCacheKey); ok {
		return cached, nil
	}

	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	s.cache.Set(categoriesCacheKey, categories)
	return categories, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Category didn't exist.")
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("Category name is required.")
	}

	category := models.Category{Name: name}
	if err := createUnique(s.db.WithContext(ctx), &category, "Category %q already exists.", name); err != nil {
		return nil, err
	}
	s.cache.Purge()
	return &category, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("Category name is required.")
	}

	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	if err := s.db.WithContext(ctx).Model(category).Update("name", name).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("Category %q already exists.", name)
		}
		return nil, err
	}
	s.cache.Purge()
	return category, nil
}

// DeleteCategory refuses to remove a category that restaurants still use.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.WithContext(ctx).Model(&models.Restaurant{}).
		Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		return err
	}
	if inUse > 0 {
		return conflict("Category %q still has %d restaurants.", category.Name, inUse)
	}

	if err := s.db.WithContext(ctx).Delete(category).Error; err != nil {
		return err
	}
	s.cache.Purge()
	return nil
}
