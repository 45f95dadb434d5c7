package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:      "0",
		JWTSecret: "test-secret-key-for-handler-tests",
		UploadDir: t.TempDir(),
		Env:       "test",
	}
}

// setupTestApp wires a full application against an in-memory database,
// without Redis. Requests go through the real middleware chain.
func setupTestApp(t *testing.T) (*fiber.App, *Server, *gorm.DB) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.Migrate(db))

	srv, err := NewServerWithDeps(testConfig(t), db, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	return app, srv, db
}

func createUser(t *testing.T, db *gorm.DB, username, password string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hashed),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// sessionFor logs the user in and returns the session cookie.
func sessionFor(t *testing.T, app *fiber.App, username, password string) *http.Cookie {
	t.Helper()
	resp := doForm(t, app, "POST", "/login", url.Values{
		"username": {username},
		"password": {password},
	}, nil)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookie {
			return cookie
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func doForm(t *testing.T, app *fiber.App, method, path string, form url.Values, session *http.Cookie) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if session != nil {
		req.AddCookie(session)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func doGet(t *testing.T, app *fiber.App, path string, session *http.Cookie) *http.Response {
	t.Helper()
	return doForm(t, app, "GET", path, nil, session)
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}
