package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postPayload struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	FeaturedImage string `json:"featured_image"`
	AuthorID      uint   `json:"author_id"`
	LikesCount    int    `json:"likes_count"`
	CommentsCount int    `json:"comments_count"`
	Liked         bool   `json:"liked"`
	Bookmarked    bool   `json:"bookmarked"`
	Category      *struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"category"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

type detailPayload struct {
	Post     postPayload `json:"post"`
	Comments []struct {
		ID      uint   `json:"id"`
		Content string `json:"content"`
	} `json:"comments"`
}

func TestLanding(t *testing.T) {
	app, _, db := setupTestApp(t)

	t.Run("anonymous visitor gets the landing page", func(t *testing.T) {
		resp := doGet(t, app, "/", nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "landing", body["page"])
	})

	t.Run("authenticated visitor is sent to the feed", func(t *testing.T) {
		createUser(t, db, "alice", "correcthorse1")
		session := sessionFor(t, app, "alice", "correcthorse1")

		resp := doGet(t, app, "/", session)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/home/", resp.Header.Get("Location"))
	})
}

func TestCreatePost(t *testing.T) {
	t.Run("new category via the other sentinel", func(t *testing.T) {
		app, _, db := setupTestApp(t)
		createUser(t, db, "alice", "correcthorse1")
		session := sessionFor(t, app, "alice", "correcthorse1")

		resp := doForm(t, app, "POST", "/post/new", url.Values{
			"title":        {"My First Post"},
			"content":      {"Some content"},
			"category":     {"other"},
			"new_category": {"Photography"},
			"tags":         {"go, web, go"},
		}, session)
		require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		location := resp.Header.Get("Location")
		assert.Regexp(t, `^/post/\d+/$`, location)

		detail := doGet(t, app, location, session)
		require.Equal(t, fiber.StatusOK, detail.StatusCode)
		var body detailPayload
		decodeBody(t, detail, &body)
		assert.Equal(t, "My First Post", body.Post.Title)
		require.NotNil(t, body.Post.Category)
		assert.Equal(t, "Photography", body.Post.Category.Name)
		assert.Equal(t, "photography", body.Post.Category.Slug)
		assert.Len(t, body.Post.Tags, 2, "duplicate tags collapse")
	})

	t.Run("existing category by id", func(t *testing.T) {
		app, _, db := setupTestApp(t)
		createUser(t, db, "alice", "correcthorse1")
		session := sessionFor(t, app, "alice", "correcthorse1")
		category := &models.Category{Name: "Tech"}
		require.NoError(t, db.Create(category).Error)

		resp := doForm(t, app, "POST", "/post/new", url.Values{
			"title":    {"Tech Post"},
			"content":  {"c"},
			"category": {fmt.Sprint(category.ID)},
		}, session)
		require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

		var post models.Post
		require.NoError(t, db.Where("title = ?", "Tech Post").First(&post).Error)
		require.NotNil(t, post.CategoryID)
		assert.Equal(t, category.ID, *post.CategoryID)
	})

	t.Run("other without a name is a form error", func(t *testing.T) {
		app, _, db := setupTestApp(t)
		createUser(t, db, "alice", "correcthorse1")
		session := sessionFor(t, app, "alice", "correcthorse1")

		resp := doForm(t, app, "POST", "/post/new", url.Values{
			"title":    {"My Post"},
			"content":  {"c"},
			"category": {"other"},
		}, session)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body models.ErrorResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "Please enter a new category name when selecting 'Other'", body.Error)
	})

	t.Run("missing title is a form error", func(t *testing.T) {
		app, _, db := setupTestApp(t)
		createUser(t, db, "alice", "correcthorse1")
		session := sessionFor(t, app, "alice", "correcthorse1")

		resp := doForm(t, app, "POST", "/post/new", url.Values{
			"content":  {"c"},
			"category": {"other"},
		}, session)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestCreatePostWithFeaturedImage(t *testing.T) {
	app, srv, db := setupTestApp(t)
	createUser(t, db, "alice", "correcthorse1")
	session := sessionFor(t, app, "alice", "correcthorse1")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Illustrated"))
	require.NoError(t, w.WriteField("content", "with a picture"))
	require.NoError(t, w.WriteField("category", "other"))
	require.NoError(t, w.WriteField("new_category", "Art"))
	part, err := w.CreateFormFile("featured_image", "cover.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/post/new", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(session)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	var post models.Post
	require.NoError(t, db.Where("title = ?", "Illustrated").First(&post).Error)
	assert.Regexp(t, `^posts/.+\.png$`, post.FeaturedImage)

	_, err = os.Stat(filepath.Join(srv.uploads.Root(), filepath.FromSlash(post.FeaturedImage)))
	assert.NoError(t, err, "image file should exist under the upload root")
}

func TestPostDetail(t *testing.T) {
	app, _, db := setupTestApp(t)
	author := createUser(t, db, "alice", "correcthorse1")
	post := &models.Post{Title: "Readable", Content: "c", AuthorID: author.ID}
	require.NoError(t, db.Create(post).Error)

	t.Run("public access without a session", func(t *testing.T) {
		resp := doGet(t, app, fmt.Sprintf("/post/%d", post.ID), nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body detailPayload
		decodeBody(t, resp, &body)
		assert.Equal(t, "Readable", body.Post.Title)
		assert.False(t, body.Post.Liked)
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := doGet(t, app, "/post/9999", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		resp := doGet(t, app, "/post/abc", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestCommentFlow(t *testing.T) {
	app, _, db := setupTestApp(t)
	author := createUser(t, db, "alice", "correcthorse1")
	createUser(t, db, "bob", "correcthorse1")
	post := &models.Post{Title: "Discussed", Content: "c", AuthorID: author.ID}
	require.NoError(t, db.Create(post).Error)
	bob := sessionFor(t, app, "bob", "correcthorse1")
	path := fmt.Sprintf("/post/%d", post.ID)

	t.Run("submit and read back", func(t *testing.T) {
		resp := doForm(t, app, "POST", path, url.Values{"content": {"nice one"}}, bob)
		require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, path+"/", resp.Header.Get("Location"))

		detail := doGet(t, app, path, bob)
		var body detailPayload
		decodeBody(t, detail, &body)
		require.Len(t, body.Comments, 1)
		assert.Equal(t, "nice one", body.Comments[0].Content)
		assert.Equal(t, 1, body.Post.CommentsCount)
	})

	t.Run("empty content rejected", func(t *testing.T) {
		resp := doForm(t, app, "POST", path, url.Values{"content": {""}}, bob)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("whitespace-only content rejected", func(t *testing.T) {
		resp := doForm(t, app, "POST", path, url.Values{"content": {"  \n\t  "}}, bob)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("surrounding whitespace is stripped", func(t *testing.T) {
		resp := doForm(t, app, "POST", path, url.Values{"content": {"  tidy thoughts  "}}, bob)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

		var comment models.Comment
		require.NoError(t, db.Where("content = ?", "tidy thoughts").First(&comment).Error)
	})

	t.Run("anonymous comment redirects to login", func(t *testing.T) {
		resp := doForm(t, app, "POST", path, url.Values{"content": {"drive-by"}}, nil)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login/", resp.Header.Get("Location"))
	})

	t.Run("commenting on a missing post", func(t *testing.T) {
		resp := doForm(t, app, "POST", "/post/9999", url.Values{"content": {"void"}}, bob)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteCommentOwnership(t *testing.T) {
	app, _, db := setupTestApp(t)
	author := createUser(t, db, "alice", "correcthorse1")
	commenter := createUser(t, db, "bob", "correcthorse1")
	createUser(t, db, "mallory", "correcthorse1")
	post := &models.Post{Title: "Discussed", Content: "c", AuthorID: author.ID}
	require.NoError(t, db.Create(post).Error)
	comment := &models.Comment{Content: "mine", PostID: post.ID, UserID: commenter.ID}
	require.NoError(t, db.Create(comment).Error)

	deletePath := fmt.Sprintf("/comment/%d/delete", comment.ID)

	t.Run("someone else's delete is silently bounced", func(t *testing.T) {
		mallory := sessionFor(t, app, "mallory", "correcthorse1")
		resp := doForm(t, app, "POST", deletePath, nil, mallory)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, fmt.Sprintf("/post/%d/", post.ID), resp.Header.Get("Location"))

		var count int64
		require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count, "comment must survive")
	})

	t.Run("the owner can delete", func(t *testing.T) {
		bob := sessionFor(t, app, "bob", "correcthorse1")
		resp := doForm(t, app, "POST", deletePath, nil, bob)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

		var count int64
		require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("deleting a missing comment", func(t *testing.T) {
		bob := sessionFor(t, app, "bob", "correcthorse1")
		resp := doForm(t, app, "POST", "/comment/9999/delete", nil, bob)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestEditPost(t *testing.T) {
	app, _, db := setupTestApp(t)
	author := createUser(t, db, "alice", "correcthorse1")
	createUser(t, db, "bob", "correcthorse1")
	category := &models.Category{Name: "Tech"}
	require.NoError(t, db.Create(category).Error)
	post := &models.Post{Title: "Original", Content: "c", AuthorID: author.ID, CategoryID: &category.ID}
	require.NoError(t, db.Create(post).Error)

	editPath := fmt.Sprintf("/post/%d/edit", post.ID)
	detailPath := fmt.Sprintf("/post/%d/", post.ID)

	t.Run("non-author form request is silently redirected", func(t *testing.T) {
		bob := sessionFor(t, app, "bob", "correcthorse1")
		resp := doGet(t, app, editPath, bob)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, detailPath, resp.Header.Get("Location"))
	})

	t.Run("non-author submit is silently redirected and changes nothing", func(t *testing.T) {
		bob := sessionFor(t, app, "bob", "correcthorse1")
		resp := doForm(t, app, "POST", editPath, url.Values{
			"title":    {"Hijacked"},
			"content":  {"pwned"},
			"category": {fmt.Sprint(category.ID)},
		}, bob)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, detailPath, resp.Header.Get("Location"))

		var reloaded models.Post
		require.NoError(t, db.First(&reloaded, post.ID).Error)
		assert.Equal(t, "Original", reloaded.Title)
	})

	t.Run("author form is prepopulated", func(t *testing.T) {
		alice := sessionFor(t, app, "alice", "correcthorse1")
		resp := doGet(t, app, editPath, alice)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body struct {
			Post     postPayload `json:"post"`
			Category string      `json:"category"`
			Tags     string      `json:"tags"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "Original", body.Post.Title)
		assert.Equal(t, fmt.Sprint(category.ID), body.Category)
	})

	t.Run("author submit persists the changes", func(t *testing.T) {
		alice := sessionFor(t, app, "alice", "correcthorse1")
		resp := doForm(t, app, "POST", editPath, url.Values{
			"title":    {"Revised"},
			"content":  {"better now"},
			"category": {fmt.Sprint(category.ID)},
			"tags":     {"rewrite"},
		}, alice)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, detailPath, resp.Header.Get("Location"))

		var reloaded models.Post
		require.NoError(t, db.First(&reloaded, post.ID).Error)
		assert.Equal(t, "Revised", reloaded.Title)
		assert.Equal(t, "better now", reloaded.Content)
	})

	t.Run("editing a missing post", func(t *testing.T) {
		alice := sessionFor(t, app, "alice", "correcthorse1")
		resp := doForm(t, app, "POST", "/post/9999/edit", url.Values{
			"title":    {"x"},
			"content":  {"y"},
			"category": {fmt.Sprint(category.ID)},
		}, alice)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestEditPostRejectedUploadLeavesNoFile(t *testing.T) {
	app, srv, db := setupTestApp(t)
	author := createUser(t, db, "alice", "correcthorse1")
	createUser(t, db, "bob", "correcthorse1")
	post := &models.Post{Title: "Original", Content: "c", AuthorID: author.ID}
	require.NoError(t, db.Create(post).Error)
	bob := sessionFor(t, app, "bob", "correcthorse1")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Hijacked"))
	require.NoError(t, w.WriteField("content", "pwned"))
	part, err := w.CreateFormFile("featured_image", "cover.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", fmt.Sprintf("/post/%d/edit", post.ID), &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(bob)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	entries, err := os.ReadDir(filepath.Join(srv.uploads.Root(), "posts"))
	if err == nil {
		assert.Empty(t, entries, "a rejected edit must not store its upload")
	} else {
		assert.True(t, os.IsNotExist(err))
	}
}

func TestDeletePost(t *testing.T) {
	app, _, db := setupTestApp(t)
	author := createUser(t, db, "alice", "correcthorse1")
	createUser(t, db, "bob", "correcthorse1")
	post := &models.Post{Title: "Doomed", Content: "c", AuthorID: author.ID}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Create(&models.Comment{Content: "gone too", PostID: post.ID, UserID: author.ID}).Error)

	deletePath := fmt.Sprintf("/post/%d/delete", post.ID)
	detailPath := fmt.Sprintf("/post/%d/", post.ID)

	t.Run("GET bounces back to the detail page", func(t *testing.T) {
		alice := sessionFor(t, app, "alice", "correcthorse1")
		resp := doGet(t, app, deletePath, alice)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, detailPath, resp.Header.Get("Location"))

		var count int64
		require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("non-author POST is silently bounced", func(t *testing.T) {
		bob := sessionFor(t, app, "bob", "correcthorse1")
		resp := doForm(t, app, "POST", deletePath, nil, bob)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, detailPath, resp.Header.Get("Location"))

		var count int64
		require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("author POST deletes and goes home", func(t *testing.T) {
		alice := sessionFor(t, app, "alice", "correcthorse1")
		resp := doForm(t, app, "POST", deletePath, nil, alice)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/home/", resp.Header.Get("Location"))

		var postCount, commentCount int64
		require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&postCount).Error)
		require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&commentCount).Error)
		assert.Zero(t, postCount)
		assert.Zero(t, commentCount, "comments cascade with the post")
	})
}

func TestLikeToggle(t *testing.T) {
	app, _, db := setupTestApp(t)
	author := createUser(t, db, "alice", "correcthorse1")
	createUser(t, db, "bob", "correcthorse1")
	post := &models.Post{Title: "Likeable", Content: "c", AuthorID: author.ID}
	require.NoError(t, db.Create(post).Error)
	bob := sessionFor(t, app, "bob", "correcthorse1")

	likePath := fmt.Sprintf("/post/%d/like", post.ID)
	detailPath := fmt.Sprintf("/post/%d", post.ID)

	resp := doForm(t, app, "POST", likePath, nil, bob)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	detail := doGet(t, app, detailPath, bob)
	var body detailPayload
	decodeBody(t, detail, &body)
	assert.Equal(t, 1, body.Post.LikesCount)
	assert.True(t, body.Post.Liked)

	// second toggle removes the like
	resp = doForm(t, app, "POST", likePath, nil, bob)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	detail = doGet(t, app, detailPath, bob)
	decodeBody(t, detail, &body)
	assert.Equal(t, 0, body.Post.LikesCount)
	assert.False(t, body.Post.Liked)
}

func TestLikeMissingPost(t *testing.T) {
	app, _, db := setupTestApp(t)
	createUser(t, db, "bob", "correcthorse1")
	bob := sessionFor(t, app, "bob", "correcthorse1")

	resp := doForm(t, app, "POST", "/post/9999/like", nil, bob)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNewPostFormOptions(t *testing.T) {
	app, _, db := setupTestApp(t)
	createUser(t, db, "alice", "correcthorse1")
	session := sessionFor(t, app, "alice", "correcthorse1")
	require.NoError(t, db.Create(&models.Category{Name: "Tech"}).Error)

	resp := doGet(t, app, "/post/new", session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		CategoryOptions []struct {
			Value string `json:"value"`
			Label string `json:"label"`
		} `json:"category_options"`
		Category string `json:"category"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.CategoryOptions, 2)
	assert.Equal(t, "Tech", body.CategoryOptions[0].Label)
	assert.Equal(t, "other", body.CategoryOptions[1].Value)
	assert.Equal(t, body.CategoryOptions[0].Value, body.Category, "first real category preselected")
}
