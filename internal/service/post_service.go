// Package service contains the post authoring workflow: category
// resolution, tag parsing, and the composition of a post from validated
// form input.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"gorm.io/gorm"
)

// CategoryOther is the sentinel selection meaning "create a new category
// from the free-text field".
const CategoryOther = "other"

// CategoryOption is one (value, label) pair offered by the authoring form.
type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ComposePostInput carries the authoring form fields.
type ComposePostInput struct {
	AuthorID      uint
	Title         string
	Content       string
	Excerpt       string
	FeaturedImage string
	// Category is an existing category id in decimal form, or the
	// CategoryOther sentinel.
	Category    string
	NewCategory string
	// Tags is the raw comma-separated tag string.
	Tags string
}

// PostService implements post authoring on top of the repositories.
type PostService struct {
	postRepo     repository.PostRepository
	categoryRepo repository.CategoryRepository
	tagRepo      repository.TagRepository
}

// NewPostService creates a new PostService.
func NewPostService(
	postRepo repository.PostRepository,
	categoryRepo repository.CategoryRepository,
	tagRepo repository.TagRepository,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		tagRepo:      tagRepo,
	}
}

// CategoryOptions returns the ordered option list for the authoring form:
// every current category as (id, name), then the trailing "create new"
// sentinel. The second return value is the default selection, which falls
// back to the sentinel when no categories exist yet.
func (s *PostService) CategoryOptions(ctx context.Context) ([]CategoryOption, string, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, "", err
	}

	options := make([]CategoryOption, 0, len(categories)+1)
	for _, category := range categories {
		options = append(options, CategoryOption{
			Value: strconv.FormatUint(uint64(category.ID), 10),
			Label: category.Name,
		})
	}
	options = append(options, CategoryOption{Value: CategoryOther, Label: "+ Add New Category"})

	selected := CategoryOther
	if len(categories) > 0 {
		selected = options[0].Value
	}
	return options, selected, nil
}

// ParseTags splits a comma-separated tag string, trims whitespace,
// discards empty tokens, and collapses duplicates preserving first-seen
// order.
func ParseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// resolveCategory validates the category selection and returns the chosen
// category, creating one when the sentinel is selected. No writes happen
// on validation failure.
func (s *PostService) resolveCategory(ctx context.Context, in ComposePostInput) (*models.Category, error) {
	if in.Category == CategoryOther {
		name := strings.TrimSpace(in.NewCategory)
		if name == "" {
			return nil, models.NewValidationError("Please enter a new category name when selecting 'Other'")
		}
		return s.categoryRepo.GetOrCreateByName(ctx, name)
	}

	id, err := strconv.ParseUint(in.Category, 10, 32)
	if err != nil {
		return nil, models.NewValidationError("Invalid category selected")
	}
	category, err := s.categoryRepo.GetByID(ctx, uint(id))
	if err != nil {
		return nil, models.NewValidationError("Invalid category selected")
	}
	return category, nil
}

func (s *PostService) validate(in ComposePostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewValidationError("Title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return models.NewValidationError("Content is required")
	}
	return nil
}

// resolveTags get-or-creates a Tag per parsed token.
func (s *PostService) resolveTags(ctx context.Context, raw string) ([]models.Tag, error) {
	names := ParseTags(raw)
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		tag, err := s.tagRepo.GetOrCreateByName(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// ComposePost creates a post from the authoring form. Category and tag
// rows are created lazily as a side effect of the save. Any persistence
// failure is logged and surfaced as a generic form error rather than a
// server error.
func (s *PostService) ComposePost(ctx context.Context, in ComposePostInput) (*models.Post, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, in)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:         in.Title,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		FeaturedImage: in.FeaturedImage,
		AuthorID:      in.AuthorID,
		CategoryID:    &category.ID,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		middleware.Logger.ErrorContext(ctx, "post save failed",
			slog.Any("author_id", in.AuthorID),
			slog.String("error", err.Error()),
		)
		middleware.AuthoringFailures.Inc()
		return nil, models.NewValidationError("Something went wrong saving your post. Please try again.")
	}

	tags, err := s.resolveTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.ReplaceTags(ctx, post, tags); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.AuthorID)
}

// UpdatePost applies the authoring form to an existing post. Only the
// author may edit; anyone else gets an unauthorized error which the
// handler converts into a silent redirect.
func (s *PostService) UpdatePost(ctx context.Context, postID uint, in ComposePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.AuthorID {
		return nil, models.NewUnauthorizedError("You can only edit your own posts")
	}

	if err := s.validate(in); err != nil {
		return nil, err
	}
	category, err := s.resolveCategory(ctx, in)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Content = in.Content
	post.Excerpt = in.Excerpt
	if in.FeaturedImage != "" {
		post.FeaturedImage = in.FeaturedImage
	}
	post.CategoryID = &category.ID
	post.Category = category

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	tags, err := s.resolveTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.ReplaceTags(ctx, post, tags); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.AuthorID)
}

// DeletePost removes a post when the requester is its author. The bool
// result reports whether the delete was applied.
func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) (bool, error) {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return false, err
	}
	if post.AuthorID != userID {
		return false, nil
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return false, err
	}
	return true, nil
}

// ToggleLike flips the requester's like on a post and reports the new state.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (bool, error) {
	liked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if liked {
		return false, s.postRepo.Unlike(ctx, userID, postID)
	}
	return true, s.postRepo.Like(ctx, userID, postID)
}

// ToggleBookmark flips the requester's bookmark on a post and reports the new state.
func (s *PostService) ToggleBookmark(ctx context.Context, userID, postID uint) (bool, error) {
	bookmarked, err := s.postRepo.IsBookmarked(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if bookmarked {
		return false, s.postRepo.RemoveBookmark(ctx, userID, postID)
	}
	return true, s.postRepo.AddBookmark(ctx, userID, postID)
}

// TagsAsString joins a post's tags back into the comma-separated form for
// edit-form prepopulation.
func TagsAsString(tags []models.Tag) string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return strings.Join(names, ", ")
}

// IsNotFound reports whether err is the storage layer's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
