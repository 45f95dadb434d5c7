package server

import (
	"errors"
	"strconv"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Landing handles GET /. Authenticated visitors go straight to the home
// feed; everyone else gets the public landing context.
func (s *Server) Landing(c *fiber.Ctx) error {
	if _, ok := s.optionalUserID(c); ok {
		return c.Redirect("/home/", fiber.StatusFound)
	}
	return c.JSON(fiber.Map{
		"page": "landing",
	})
}

// Home handles GET /home/ — the authenticated feed, newest first.
func (s *Server) Home(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	posts, err := s.postRepo.List(ctx, page.Limit, page.Offset, userID)
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

// PostDetail handles GET /post/:id/ — the post page with its comments and
// the inline comment form context.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := s.optionalUserID(c)

	post, err := s.postRepo.GetByID(ctx, id, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("post", id))
	}
	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"post":     post,
		"comments": comments,
	})
}

// CreateComment handles POST /post/:id/ — inline comment submission on
// the detail page. Redirects back to the same page so a refresh does not
// re-submit.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.postRepo.GetByID(ctx, postID, userID); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("post", postID))
	}

	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Comment content is required"))
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Comment content is required"))
	}

	comment := &models.Comment{
		Content: content,
		PostID:  postID,
		UserID:  userID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return redirectToPost(c, postID)
}

// NewPostForm handles GET /post/new/ — the authoring form context with
// the category option list built from current rows.
func (s *Server) NewPostForm(c *fiber.Ctx) error {
	options, selected, err := s.postService.CategoryOptions(c.Context())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{
		"category_options": options,
		"category":         selected,
	})
}

// CreatePost handles POST /post/new/
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	in, ok := s.parseComposeInput(c, userID)
	if !ok {
		return nil
	}

	post, err := s.postService.ComposePost(ctx, in)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return redirectToPost(c, post.ID)
}

// EditPostForm handles GET /post/:id/edit/. A non-author is silently
// redirected to the detail page.
func (s *Server) EditPostForm(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("post", postID))
	}
	if post.AuthorID != userID {
		return redirectToPost(c, postID)
	}

	options, _, err := s.postService.CategoryOptions(ctx)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	selected := service.CategoryOther
	if post.CategoryID != nil {
		selected = strconv.FormatUint(uint64(*post.CategoryID), 10)
	}

	return c.JSON(fiber.Map{
		"post":             post,
		"category_options": options,
		"category":         selected,
		"tags":             service.TagsAsString(post.Tags),
	})
}

// EditPost handles POST /post/:id/edit/
func (s *Server) EditPost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	// Authorship is checked before the form is parsed so a rejected edit
	// never stores its uploaded image.
	existing, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("post", postID))
	}
	if existing.AuthorID != userID {
		return redirectToPost(c, postID)
	}

	in, ok := s.parseComposeInput(c, userID)
	if !ok {
		return nil
	}

	post, err := s.postService.UpdatePost(ctx, postID, in)
	if err != nil {
		if service.IsNotFound(err) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("post", postID))
		}
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			if appErr.Code == "UNAUTHORIZED" {
				// Silent authorization failure: no error surfaced.
				return redirectToPost(c, postID)
			}
			return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return redirectToPost(c, post.ID)
}

// DeletePost handles POST /post/:id/delete/. Only the author may delete;
// anyone else is redirected to the detail page with no error.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	deleted, err := s.postService.DeletePost(ctx, postID, userID)
	if err != nil {
		if service.IsNotFound(err) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("post", postID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if !deleted {
		return redirectToPost(c, postID)
	}

	return c.Redirect("/home/", fiber.StatusSeeOther)
}

// DeletePostWrongMethod handles GET /post/:id/delete/ — deletion is
// POST-only, so a GET just bounces back to the detail page.
func (s *Server) DeletePostWrongMethod(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return redirectToPost(c, postID)
}

// ToggleLike handles POST /post/:id/like/ — idempotent toggle, always
// back to the detail page.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.postRepo.GetByID(ctx, postID, userID); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("post", postID))
	}

	if _, err := s.postService.ToggleLike(ctx, userID, postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return redirectToPost(c, postID)
}

// ToggleBookmark handles POST /post/:id/bookmark/
func (s *Server) ToggleBookmark(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.postRepo.GetByID(ctx, postID, userID); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("post", postID))
	}

	if _, err := s.postService.ToggleBookmark(ctx, userID, postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return redirectToPost(c, postID)
}

// parseComposeInput reads the authoring form fields and stores an
// uploaded featured image, if any. On failure the response is already
// written and ok is false.
func (s *Server) parseComposeInput(c *fiber.Ctx, userID uint) (service.ComposePostInput, bool) {
	var req struct {
		Title       string `json:"title" form:"title"`
		Content     string `json:"content" form:"content"`
		Excerpt     string `json:"excerpt" form:"excerpt"`
		Category    string `json:"category" form:"category"`
		NewCategory string `json:"new_category" form:"new_category"`
		Tags        string `json:"tags" form:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return service.ComposePostInput{}, false
	}

	in := service.ComposePostInput{
		AuthorID:    userID,
		Title:       req.Title,
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		Category:    req.Category,
		NewCategory: req.NewCategory,
		Tags:        req.Tags,
	}

	// Optional featured image (multipart only)
	if file, err := c.FormFile("featured_image"); err == nil && file != nil {
		path, saveErr := s.uploads.SavePostImage(file)
		if saveErr != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(saveErr.Error()))
			return service.ComposePostInput{}, false
		}
		in.FeaturedImage = path
	}

	return in, true
}
