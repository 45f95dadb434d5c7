package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CategoryFeed handles GET /category/:slug/ — all posts in one category,
// newest first.
func (s *Server) CategoryFeed(c *fiber.Ctx) error {
	ctx := c.Context()
	slug := c.Params("slug")
	userID, _ := s.optionalUserID(c)

	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("category", slug))
	}

	page := parsePagination(c, 20)
	posts, err := s.postRepo.ListByCategory(ctx, category.ID, page.Limit, page.Offset, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"category":   category,
		"categories": categories,
		"posts":      posts,
	})
}

// SearchPosts handles GET /search/?q=... — case-insensitive substring
// match on title or content. An empty query yields an empty result set,
// not all posts.
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	q := c.Query("q")
	userID, _ := s.optionalUserID(c)

	posts := []*models.Post{}
	if q != "" {
		page := parsePagination(c, 20)
		var err error
		posts, err = s.postRepo.Search(ctx, q, page.Limit, page.Offset, userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"query":      q,
		"posts":      posts,
		"categories": categories,
	})
}

// Bookmarks handles GET /bookmarks/ — the requester's saved posts.
func (s *Server) Bookmarks(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	posts, err := s.postRepo.ListBookmarked(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"posts":      posts,
		"categories": categories,
	})
}
