package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

func TestModerationQueryPaginatesNewestFirst(t *testing.T) {
	db := setupServiceDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 25; i++ {
		seedBlog(t, db, fmt.Sprintf("pending %02d", i), "pending", 7, base.Add(time.Duration(i)*time.Hour))
	}
	seedBlog(t, db, "approved one", "approved", 7, base)
	seedBlog(t, db, "draft one", "draft", 7, base)

	svc := NewModerationQueryService(repository.NewModerationRepository(db), testLogger())

	resp, err := svc.List(context.Background(), moderation.KindBlog, dto.ModerationListRequest{Tab: "pending", Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, resp.Items, 10)
	require.Equal(t, "pending 15", resp.Items[0].Title)
	require.Equal(t, "pending 06", resp.Items[9].Title)
	require.Equal(t, int64(25), resp.Pagination.TotalItems)
	require.Equal(t, 3, resp.Pagination.TotalPages)
	require.Equal(t, int64(25), resp.TotalPending)
	require.Equal(t, int64(1), resp.TotalApproved)
	require.Equal(t, int64(0), resp.TotalRejected)
	require.Equal(t, map[string]int64{"draft": 1, "pending": 25, "approved": 1, "rejected": 0, "removed": 0}, resp.Counts)
	require.Equal(t, []string{"approve", "reject", "remove"}, resp.Items[0].AllowedActions)
}

func TestModerationQueryDefaultsAndValidation(t *testing.T) {
	db := setupServiceDB(t)
	seedBlog(t, db, "only", "pending", 7, time.Now())
	svc := NewModerationQueryService(repository.NewModerationRepository(db), testLogger())
	ctx := context.Background()

	resp, err := svc.List(ctx, moderation.KindBlog, dto.ModerationListRequest{Tab: "ALL", Page: -3, PageSize: 0})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Pagination.Page)
	require.Equal(t, 20, resp.Pagination.PageSize)
	require.Len(t, resp.Items, 1)

	resp, err = svc.List(ctx, moderation.KindBlog, dto.ModerationListRequest{PageSize: 1000})
	require.NoError(t, err)
	require.Equal(t, 100, resp.Pagination.PageSize)

	_, err = svc.List(ctx, moderation.KindBlog, dto.ModerationListRequest{Tab: "inactive"})
	require.ErrorIs(t, err, ErrInvalidStatusFilter)

	_, err = svc.List(ctx, moderation.Kind("event"), dto.ModerationListRequest{})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestModerationQueryEmptyPageBeyondEnd(t *testing.T) {
	db := setupServiceDB(t)
	seedBlog(t, db, "only", "pending", 7, time.Now())
	svc := NewModerationQueryService(repository.NewModerationRepository(db), testLogger())

	resp, err := svc.List(context.Background(), moderation.KindBlog, dto.ModerationListRequest{Tab: "pending", Page: 5, PageSize: 10})
	require.NoError(t, err)
	require.Empty(t, resp.Items)
	require.NotNil(t, resp.Items)
	require.Equal(t, 1, resp.Pagination.TotalPages)
}
