package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/community-portal-api/internal/database"
	"github.com/noah-isme/community-portal-api/internal/middleware"
	"github.com/noah-isme/community-portal-api/internal/models"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// asUser stands in for JWTProtected by reading X-Test-User headers.
func asUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Get("X-Test-User"); raw != "" {
			var id uint
			_, _ = fmt.Sscanf(raw, "%d", &id)
			c.Locals(middleware.LocalUserID, id)
		}
		if role := c.Get("X-Test-Role"); role != "" {
			c.Locals(middleware.LocalUserRole, role)
		}
		if name := c.Get("X-Test-Name"); name != "" {
			c.Locals(middleware.LocalUserName, name)
		}
		return c.Next()
	}
}

type requestUser struct {
	ID   uint
	Name string
	Role string
}

var (
	adminDewi  = requestUser{ID: 1, Name: "Dewi", Role: "admin"}
	adminBayu  = requestUser{ID: 2, Name: "Bayu", Role: "moderator"}
	memberRina = requestUser{ID: 10, Name: "Rina", Role: "member"}
)

func doJSON(t *testing.T, app *fiber.App, method, target string, user *requestUser, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if user != nil {
		req.Header.Set("X-Test-User", fmt.Sprintf("%d", user.ID))
		req.Header.Set("X-Test-Role", user.Role)
		if user.Name != "" {
			req.Header.Set("X-Test-Name", user.Name)
		}
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func decodeData(t *testing.T, env envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target))
}

func seedBlog(t *testing.T, db *gorm.DB, title, status string, authorID uint) models.Blog {
	t.Helper()
	blog := models.Blog{
		AuthorID:        authorID,
		AuthorName:      "author",
		Title:           title,
		Slug:            strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Body:            "<p>" + title + " body</p>",
		ModerationState: models.ModerationState{Status: status, Version: 1},
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, db.Create(&blog).Error)
	return blog
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}
