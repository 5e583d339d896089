package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/models"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

func TestBuildCommentTreeNestsAndPromotesOrphans(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	missing := uint(99)
	comments := []models.BlogComment{
		{ID: 1, BlogID: 1, Body: "root one", CreatedAt: base},
		{ID: 2, BlogID: 1, ParentID: ptrUint(1), Body: "reply to one", CreatedAt: base.Add(time.Minute)},
		{ID: 3, BlogID: 1, Body: "root two", CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, BlogID: 1, ParentID: ptrUint(2), Body: "nested", CreatedAt: base.Add(3 * time.Minute)},
		{ID: 5, BlogID: 1, ParentID: &missing, Body: "orphan", CreatedAt: base.Add(4 * time.Minute)},
		{ID: 6, BlogID: 1, ParentID: ptrUint(1), Body: "second reply", CreatedAt: base.Add(5 * time.Minute)},
	}

	tree := buildCommentTree(comments)
	require.Len(t, tree, 3)
	require.Equal(t, uint(1), tree[0].ID)
	require.Equal(t, uint(3), tree[1].ID)
	require.Equal(t, uint(5), tree[2].ID)

	require.Len(t, tree[0].Replies, 2)
	require.Equal(t, uint(2), tree[0].Replies[0].ID)
	require.Equal(t, uint(6), tree[0].Replies[1].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	require.Equal(t, "nested", tree[0].Replies[0].Replies[0].Body)
	require.NotNil(t, tree[1].Replies)
}

func TestBuildCommentTreeKeepsRowsInParentCycles(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	comments := []models.BlogComment{
		{ID: 1, BlogID: 1, Body: "root", CreatedAt: base},
		{ID: 2, BlogID: 1, ParentID: ptrUint(3), Body: "cycle a", CreatedAt: base.Add(time.Minute)},
		{ID: 3, BlogID: 1, ParentID: ptrUint(2), Body: "cycle b", CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, BlogID: 1, Body: "later root", CreatedAt: base.Add(3 * time.Minute)},
		{ID: 5, BlogID: 1, ParentID: ptrUint(3), Body: "reply in cycle", CreatedAt: base.Add(4 * time.Minute)},
	}

	tree := buildCommentTree(comments)
	require.Len(t, tree, 3)
	require.Equal(t, []uint{1, 2, 4}, []uint{tree[0].ID, tree[1].ID, tree[2].ID})

	cycle := tree[1]
	require.Len(t, cycle.Replies, 1)
	require.Equal(t, uint(3), cycle.Replies[0].ID)
	require.Len(t, cycle.Replies[0].Replies, 1)
	require.Equal(t, uint(5), cycle.Replies[0].Replies[0].ID)

	var count func(nodes []dto.CommentNode) int
	count = func(nodes []dto.CommentNode) int {
		total := len(nodes)
		for _, node := range nodes {
			total += count(node.Replies)
		}
		return total
	}
	require.Equal(t, len(comments), count(tree))
}

func TestCommentServiceCreateRules(t *testing.T) {
	db := setupServiceDB(t)
	notifications := &stubNotificationPublisher{}
	svc := NewCommentService(repository.NewContentRepository(db), repository.NewCommentRepository(db), notifications, testValidator(), testLogger())
	ctx := context.Background()

	live := seedBlog(t, db, "Live blog", "approved", 20, time.Now())
	other := seedBlog(t, db, "Other blog", "approved", 20, time.Now())
	draft := seedBlog(t, db, "Draft blog", "draft", 20, time.Now())

	_, err := svc.Create(ctx, draft.ID, Actor{ID: 21}, dto.CommentCreateRequest{Body: "hi"})
	require.ErrorIs(t, err, ErrCommentBlogUnavailable)

	_, err = svc.Create(ctx, 4040, Actor{ID: 21}, dto.CommentCreateRequest{Body: "hi"})
	require.ErrorIs(t, err, ErrCommentBlogUnavailable)

	root, err := svc.Create(ctx, live.ID, Actor{ID: 21, Name: "Ana"}, dto.CommentCreateRequest{Body: "<b>Great</b> read"})
	require.NoError(t, err)
	require.Equal(t, "<b>Great</b> read", root.Body)
	require.Len(t, notifications.calls, 1)
	require.Equal(t, "20", notifications.calls[0].UserID)

	otherRoot, err := svc.Create(ctx, other.ID, Actor{ID: 21}, dto.CommentCreateRequest{Body: "elsewhere"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, live.ID, Actor{ID: 22}, dto.CommentCreateRequest{Body: "wrong parent", ParentID: &otherRoot.ID})
	require.ErrorIs(t, err, ErrCommentParentMismatch)

	notifications.calls = nil
	reply, err := svc.Create(ctx, live.ID, Actor{ID: 22}, dto.CommentCreateRequest{Body: "agreed", ParentID: &root.ID})
	require.NoError(t, err)
	require.Len(t, notifications.calls, 2)

	tree, err := svc.Tree(ctx, live.ID)
	require.NoError(t, err)
	require.Equal(t, 2, tree.Total)
	require.Len(t, tree.Comments, 1)
	require.Equal(t, reply.ID, tree.Comments[0].Replies[0].ID)

	_, err = svc.Tree(ctx, draft.ID)
	require.ErrorIs(t, err, ErrContentNotFound)
}
