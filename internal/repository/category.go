package repository

import (
	"context"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetOrCreateByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetOrCreateByName looks a category up by its natural key and creates it
// when absent. Creation is a side effect of post authoring and must be
// visible to listing views immediately, so the category list cache is
// dropped on create.
func (r *categoryRepository) GetOrCreateByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	result := r.db.WithContext(ctx).Where(models.Category{Name: name}).FirstOrCreate(&category)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		cache.InvalidateCategories(ctx)
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := cache.Aside(ctx, cache.CategoryListKey, &categories, cache.CategoryListTTL, func() error {
		return r.db.WithContext(ctx).Order("name").Find(&categories).Error
	})
	return categories, err
}

// Delete removes the category row. Dependent posts keep existing with a
// nullified category_id via the ON DELETE SET NULL constraint.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Category{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateCategories(ctx)
	return nil
}
