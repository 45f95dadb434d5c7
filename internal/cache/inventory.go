package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostKeyPrefix       = "post:%d"
	CategoryListKey     = "categories"
	CategoryFeedPrefix  = "category:%d:posts:%d:%d"
	CommentThreadPrefix = "post:%d:comments"
)

const (
	PostTTL         = 30 * time.Minute
	CategoryListTTL = 10 * time.Minute
	CategoryFeedTTL = time.Minute
	CommentTTL      = 2 * time.Minute
)

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// CategoryFeedKey caches one anonymous page of a category feed. The TTL
// is kept short because feed pages are not actively invalidated.
func CategoryFeedKey(categoryID uint, limit, offset int) string {
	return fmt.Sprintf(CategoryFeedPrefix, categoryID, limit, offset)
}

func CommentThreadKey(postID uint) string {
	return fmt.Sprintf(CommentThreadPrefix, postID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	Invalidate(ctx, CommentThreadKey(postID))
}

// InvalidateCategories drops the category list used by authoring-form
// option construction, so a lazily created category is visible immediately.
func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoryListKey)
}
