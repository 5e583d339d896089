package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/community-portal-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func isValidationErr(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &validationErrs)
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Blog{},
		&models.BlogComment{},
		&models.Achievement{},
		&models.CoachingCenter{},
		&models.UserAccount{},
		&models.ModerationAudit{},
		&models.AdPlacement{},
		&models.AdBooking{},
		&models.Notification{},
		&models.ActivityLog{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}

func seedBlog(t *testing.T, db *gorm.DB, title, status string, authorID uint, createdAt time.Time) models.Blog {
	t.Helper()
	blog := models.Blog{
		AuthorID:        authorID,
		AuthorName:      "author",
		Title:           title,
		Slug:            strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Body:            "<p>" + title + " body</p>",
		ModerationState: models.ModerationState{Status: status, Version: 1},
		CreatedAt:       createdAt,
	}
	require.NoError(t, db.Create(&blog).Error)
	return blog
}
