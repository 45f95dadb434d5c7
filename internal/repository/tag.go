package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	GetOrCreateByName(ctx context.Context, name string) (*models.Tag, error)
	ListByPost(ctx context.Context, post *models.Post) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetOrCreateByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) ListByPost(ctx context.Context, post *models.Post) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Model(post).Association("Tags").Find(&tags)
	return tags, err
}
