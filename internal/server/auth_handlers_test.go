package server

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	t.Run("success logs the user in and redirects home", func(t *testing.T) {
		app, _, db := setupTestApp(t)

		resp := doForm(t, app, "POST", "/register", url.Values{
			"username":  {"newuser"},
			"email":     {"newuser@example.com"},
			"password1": {"validpass1"},
			"password2": {"validpass1"},
		}, nil)
		assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/home/", resp.Header.Get("Location"))

		var sessionSet bool
		for _, cookie := range resp.Cookies() {
			if cookie.Name == sessionCookie && cookie.Value != "" {
				sessionSet = true
				assert.True(t, cookie.HttpOnly)
			}
		}
		assert.True(t, sessionSet, "registration should set the session cookie")

		var user models.User
		require.NoError(t, db.Where("username = ?", "newuser").First(&user).Error)
		assert.NotEqual(t, "validpass1", user.Password, "password must be stored hashed")
	})

	t.Run("password mismatch", func(t *testing.T) {
		app, _, _ := setupTestApp(t)

		resp := doForm(t, app, "POST", "/register", url.Values{
			"username":  {"newuser"},
			"email":     {"newuser@example.com"},
			"password1": {"validpass1"},
			"password2": {"different1"},
		}, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var body models.ErrorResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "The two password fields didn't match", body.Error)
	})

	t.Run("weak password rejected", func(t *testing.T) {
		app, _, _ := setupTestApp(t)

		resp := doForm(t, app, "POST", "/register", url.Values{
			"username":  {"newuser"},
			"email":     {"newuser@example.com"},
			"password1": {"short"},
			"password2": {"short"},
		}, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		app, _, db := setupTestApp(t)
		createUser(t, db, "taken", "password1")

		resp := doForm(t, app, "POST", "/register", url.Values{
			"username":  {"taken"},
			"email":     {"other@example.com"},
			"password1": {"validpass1"},
			"password2": {"validpass1"},
		}, nil)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		app, _, db := setupTestApp(t)
		createUser(t, db, "taken", "password1")

		resp := doForm(t, app, "POST", "/register", url.Values{
			"username":  {"someoneelse"},
			"email":     {"taken@example.com"},
			"password1": {"validpass1"},
			"password2": {"validpass1"},
		}, nil)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		var body map[string]any
		decodeBody(t, resp, &body)
		assert.Contains(t, body["error"], "email")
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials set the session cookie", func(t *testing.T) {
		app, _, db := setupTestApp(t)
		createUser(t, db, "alice", "correcthorse1")

		session := sessionFor(t, app, "alice", "correcthorse1")
		assert.NotEmpty(t, session.Value)

		// the session works against a protected page
		resp := doGet(t, app, "/home", session)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		app, _, db := setupTestApp(t)
		createUser(t, db, "alice", "correcthorse1")

		resp := doForm(t, app, "POST", "/login", url.Values{
			"username": {"alice"},
			"password": {"wrong"},
		}, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		var body models.ErrorResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "Invalid credentials", body.Error)
	})

	t.Run("unknown user gets the same error as a wrong password", func(t *testing.T) {
		app, _, _ := setupTestApp(t)

		resp := doForm(t, app, "POST", "/login", url.Values{
			"username": {"ghost"},
			"password": {"whatever1"},
		}, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		var body models.ErrorResponse
		decodeBody(t, resp, &body)
		assert.Equal(t, "Invalid credentials", body.Error)
	})
}

func TestLogoutClearsSession(t *testing.T) {
	app, _, db := setupTestApp(t)
	createUser(t, db, "alice", "correcthorse1")
	session := sessionFor(t, app, "alice", "correcthorse1")

	resp := doForm(t, app, "POST", "/logout", nil, session)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookie {
			assert.Empty(t, cookie.Value, "logout should clear the cookie")
		}
	}
}

func TestAuthRequiredRedirectsToLogin(t *testing.T) {
	app, _, _ := setupTestApp(t)

	for _, path := range []string{"/home", "/bookmarks", "/post/new"} {
		resp := doGet(t, app, path, nil)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login/", resp.Header.Get("Location"), path)
	}
}

func TestBearerHeaderAccepted(t *testing.T) {
	app, srv, db := setupTestApp(t)
	user := createUser(t, db, "alice", "correcthorse1")

	token, err := srv.generateToken(user.ID, user.Username)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/home", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTamperedTokenRejected(t *testing.T) {
	app, srv, db := setupTestApp(t)
	user := createUser(t, db, "alice", "correcthorse1")

	token, err := srv.generateToken(user.ID, user.Username)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/home", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}
