package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/handler"
	"github.com/noah-isme/community-portal-api/internal/middleware"
	"github.com/noah-isme/community-portal-api/internal/repository"
	"github.com/noah-isme/community-portal-api/internal/service"
)

func newAdApp(t *testing.T) *fiber.App {
	t.Helper()
	db := setupHandlerDB(t)
	logger := zerolog.Nop()
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), testValidator(), logger)
	ads := service.NewAdBookingService(repository.NewAdRepository(db), activity, testValidator(), logger)

	app := fiber.New()
	admin := app.Group("/api/admin", asUser(), middleware.RequireRole(middleware.ModeratorRoles...))
	handler.NewAdHandler(ads, logger).Register(admin.Group("/ads"))
	handler.NewAdminActivityHandler(activity, logger).Register(admin.Group("/activities"))
	return app
}

func TestAdBookingFlow(t *testing.T) {
	app := newAdApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/admin/ads/placements", &adminDewi, map[string]interface{}{
		"slot": "home-banner", "name": "Home page banner", "daily_rate": 250.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var placement dto.AdPlacementResponse
	decodeData(t, env, &placement)
	bookings := "/api/admin/ads/placements/" + itoa(placement.ID) + "/bookings"

	resp, env = doJSON(t, app, http.MethodPost, bookings, &adminDewi, map[string]string{
		"advertiser": "Sharma Sweets", "starts_on": "2026-11-01", "ends_on": "2026-11-03",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var first dto.AdBookingResponse
	decodeData(t, env, &first)
	require.Equal(t, 3, first.Days)
	require.InDelta(t, 750.0, first.TotalCost, 0.001)

	resp, _ = doJSON(t, app, http.MethodPost, bookings, &adminBayu, map[string]string{
		"advertiser": "Rival Sweets", "starts_on": "2026-11-03", "ends_on": "2026-11-05",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, bookings, &adminBayu, map[string]string{
		"advertiser": "Rival Sweets", "starts_on": "2026-11-06", "ends_on": "2026-11-04",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, bookings, &adminBayu, map[string]string{
		"advertiser": "Rival Sweets", "starts_on": "2026-11-04", "ends_on": "2026-11-05",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodGet, bookings+"?from=2026-11-01&to=2026-11-30", &adminDewi, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []dto.AdBookingResponse
	decodeData(t, env, &listed)
	require.Len(t, listed, 2)

	resp, env = doJSON(t, app, http.MethodDelete, "/api/admin/ads/bookings/"+itoa(first.ID), &adminDewi, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	var cancelled dto.AdBookingResponse
	decodeData(t, env, &cancelled)
	require.Equal(t, "cancelled", cancelled.Status)

	resp, _ = doJSON(t, app, http.MethodPost, bookings, &adminBayu, map[string]string{
		"advertiser": "Rival Sweets", "starts_on": "2026-11-02", "ends_on": "2026-11-03",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodGet, "/api/admin/activities?entity_type=ad_booking", &adminDewi, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var activities []dto.AdminActivityResponse
	decodeData(t, env, &activities)
	require.Len(t, activities, 4)
}

func TestAdBookingNotFound(t *testing.T) {
	app := newAdApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/admin/ads/placements/42/bookings", &adminDewi, map[string]string{
		"advertiser": "Nobody", "starts_on": "2026-11-01", "ends_on": "2026-11-01",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/admin/ads/bookings/42", &adminDewi, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
