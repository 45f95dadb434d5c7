package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// DeleteComment handles POST /comment/:id/delete/. Only the comment's
// own author may delete it; anyone else is bounced back to the post with
// no error surfaced.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if service.IsNotFound(err) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("comment", commentID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if comment.UserID != userID {
		return redirectToPost(c, comment.PostID)
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return redirectToPost(c, comment.PostID)
}
