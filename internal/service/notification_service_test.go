package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

func TestNotificationServicePublishStreamsAndCountsUnread(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, testValidator(), testLogger())
	ctx := context.Background()

	stream, cancel := svc.Subscribe("40")
	defer cancel()

	published, err := svc.Publish(ctx, dto.NotificationCreateRequest{UserID: "40", Type: "moderation_approved", Message: "<i>Approved</i>"})
	require.NoError(t, err)
	require.Equal(t, "Approved", published.Message)

	received := <-stream
	require.Equal(t, published.ID, received.ID)

	list, err := svc.List(ctx, "40", 10, 0)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, int64(1), list.Unread)

	read, err := svc.MarkRead(ctx, published.ID, "40")
	require.NoError(t, err)
	require.True(t, read.Read)

	list, err = svc.List(ctx, "40", 10, 0)
	require.NoError(t, err)
	require.Zero(t, list.Unread)

	_, err = svc.MarkRead(ctx, published.ID, "41")
	require.ErrorIs(t, err, ErrNotificationNotFound)

	_, err = svc.Publish(ctx, dto.NotificationCreateRequest{UserID: "40", Type: "x", Message: "<script></script>"})
	require.Error(t, err)
}
