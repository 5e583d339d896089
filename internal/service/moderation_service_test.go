package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/models"
	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

type memoryModerationRepo struct {
	mu          sync.Mutex
	records     map[moderation.Kind]map[uint]repository.ModerationRecord
	audits      []models.ModerationAudit
	conflicts   int
	applyErr    error
	getCalls    int
	applyCalls  int
	lastUpdates map[string]interface{}
}

func newMemoryModerationRepo() *memoryModerationRepo {
	return &memoryModerationRepo{records: make(map[moderation.Kind]map[uint]repository.ModerationRecord)}
}

func (m *memoryModerationRepo) put(kind moderation.Kind, record repository.ModerationRecord) {
	if m.records[kind] == nil {
		m.records[kind] = make(map[uint]repository.ModerationRecord)
	}
	if record.Version == 0 {
		record.Version = 1
	}
	m.records[kind][record.ID] = record
}

func (m *memoryModerationRepo) Get(ctx context.Context, kind moderation.Kind, id uint) (repository.ModerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	record, ok := m.records[kind][id]
	if !ok {
		return repository.ModerationRecord{}, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (m *memoryModerationRepo) List(ctx context.Context, kind moderation.Kind, filter repository.ModerationFilter) ([]repository.ModerationRecord, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (m *memoryModerationRepo) CountByStatus(ctx context.Context, kind moderation.Kind) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, record := range m.records[kind] {
		counts[record.Status]++
	}
	return counts, nil
}

func (m *memoryModerationRepo) Apply(ctx context.Context, kind moderation.Kind, id uint, expectedVersion uint, updates map[string]interface{}, audit *models.ModerationAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++
	m.lastUpdates = updates
	if m.applyErr != nil {
		return m.applyErr
	}
	if m.conflicts > 0 {
		m.conflicts--
		return repository.ErrVersionConflict
	}

	record := m.records[kind][id]
	if record.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	record.Status = updates["status"].(string)
	record.Reason = updates["reason"].(string)
	record.ActedBy = updates["acted_by"].(*uint)
	record.ActedByName = updates["acted_by_name"].(string)
	record.ApprovedAt = updates["approved_at"].(*time.Time)
	record.RejectedAt = updates["rejected_at"].(*time.Time)
	record.DisabledAt = updates["disabled_at"].(*time.Time)
	record.RemovedAt = updates["removed_at"].(*time.Time)
	record.RemovedBy = updates["removed_by"].(*uint)
	record.RemovedByName = updates["removed_by_name"].(string)
	record.RemoveReason = updates["remove_reason"].(string)
	record.Version++
	m.records[kind][id] = record

	if audit != nil {
		audit.ID = uint(len(m.audits) + 1)
		m.audits = append(m.audits, *audit)
	}
	return nil
}

func (m *memoryModerationRepo) ListAudits(ctx context.Context, kind moderation.Kind, id uint) ([]models.ModerationAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ModerationAudit
	for _, audit := range m.audits {
		if audit.EntityType == string(kind) && audit.EntityID == id {
			out = append(out, audit)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type recordingFeed struct {
	events []dto.ModerationEvent
}

func (r *recordingFeed) Publish(ctx context.Context, event dto.ModerationEvent) {
	r.events = append(r.events, event)
}

type recordingInvalidator struct {
	kinds []moderation.Kind
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, kind moderation.Kind) error {
	r.kinds = append(r.kinds, kind)
	return nil
}

type stubNotificationPublisher struct {
	calls []dto.NotificationCreateRequest
}

func (s *stubNotificationPublisher) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	s.calls = append(s.calls, payload)
	return dto.NotificationResponse{UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

var (
	adminA = Actor{ID: 1, Name: "Admin A", Role: "admin"}
	adminB = Actor{ID: 2, Name: "Admin B", Role: "moderator"}
)

func newTestModerationService(repo repository.ModerationRepository, hooks ModerationHooks) *moderationService {
	svc := NewModerationService(repo, hooks, 3, testLogger()).(*moderationService)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestModerationApproveThenRejectKeepsBothAudits(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindBlog, repository.ModerationRecord{ID: 1, Title: "E1", OwnerID: 50, ModerationState: models.ModerationState{Status: "pending"}})
	svc := newTestModerationService(repo, ModerationHooks{})
	ctx := context.Background()

	approved, err := svc.Approve(ctx, moderation.KindBlog, 1, adminA)
	require.NoError(t, err)
	require.Equal(t, "approved", approved.Item.Status)
	require.NotNil(t, approved.Item.ApprovedAt)
	require.Equal(t, "pending", approved.FromStatus)
	require.Equal(t, uint(2), approved.Item.Version)
	require.Equal(t, []string{"reject", "remove"}, approved.Item.AllowedActions)

	rejected, err := svc.Reject(ctx, moderation.KindBlog, 1, adminB, "  duplicate content ")
	require.NoError(t, err)
	require.Equal(t, "rejected", rejected.Item.Status)
	require.Nil(t, rejected.Item.ApprovedAt)
	require.NotNil(t, rejected.Item.RejectedAt)
	require.Equal(t, "duplicate content", rejected.Item.Reason)
	require.Equal(t, "Admin B", rejected.Item.ActedByName)

	audits, err := svc.Audits(ctx, moderation.KindBlog, 1)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	require.Equal(t, "rejected", audits[0].Action)
	require.Equal(t, uint(2), audits[0].AdminID)
	require.Equal(t, "duplicate content", audits[0].Reason)
	require.Equal(t, "approved", audits[1].Action)
	require.Equal(t, "Admin A", audits[1].AdminName)
}

func TestModerationRejectRequiresReason(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindBlog, repository.ModerationRecord{ID: 1, ModerationState: models.ModerationState{Status: "pending"}})
	svc := newTestModerationService(repo, ModerationHooks{})

	for _, reason := range []string{"", "   ", "<b></b>"} {
		_, err := svc.Reject(context.Background(), moderation.KindBlog, 1, adminA, reason)
		require.ErrorIs(t, err, ErrReasonRequired)
	}
	require.Equal(t, 0, repo.getCalls)
	require.Equal(t, 0, repo.applyCalls)
	require.Equal(t, "pending", repo.records[moderation.KindBlog][1].Status)
}

func TestModerationRemoveTwiceFailsAndKeepsFirstReason(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindCoachingCenter, repository.ModerationRecord{ID: 3, ModerationState: models.ModerationState{Status: "approved"}})
	svc := newTestModerationService(repo, ModerationHooks{})
	ctx := context.Background()

	removed, err := svc.Remove(ctx, moderation.KindCoachingCenter, 3, adminA, "spam listing")
	require.NoError(t, err)
	require.Equal(t, "removed", removed.Item.Status)
	require.Equal(t, "spam listing", removed.Item.RemoveReason)
	require.Equal(t, "Admin A", removed.Item.RemovedByName)
	require.Empty(t, removed.Item.AllowedActions)

	_, err = svc.Remove(ctx, moderation.KindCoachingCenter, 3, adminB, "again")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, "spam listing", repo.records[moderation.KindCoachingCenter][3].RemoveReason)
	require.Len(t, repo.audits, 1)
}

func TestModerationUserAccountVotesAccumulate(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindUserAccount, repository.ModerationRecord{ID: 9, OwnerID: 9, ModerationState: models.ModerationState{Status: "pending"}})
	svc := newTestModerationService(repo, ModerationHooks{})
	ctx := context.Background()

	_, err := svc.Approve(ctx, moderation.KindUserAccount, 9, adminA)
	require.NoError(t, err)
	second, err := svc.Approve(ctx, moderation.KindUserAccount, 9, adminB)
	require.NoError(t, err)
	require.Equal(t, "approved", second.Item.Status)
	require.Equal(t, "approved", second.FromStatus)
	require.Equal(t, "Admin B", second.Item.ActedByName)

	audits, err := svc.Audits(ctx, moderation.KindUserAccount, 9)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	require.NotEqual(t, audits[0].AdminID, audits[1].AdminID)

	_, err = svc.Remove(ctx, moderation.KindUserAccount, 9, adminA, "bye")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestModerationAchievementDisableActivate(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindAchievement, repository.ModerationRecord{ID: 4, ModerationState: models.ModerationState{Status: "active"}})
	svc := newTestModerationService(repo, ModerationHooks{})
	ctx := context.Background()

	_, err := svc.Disable(ctx, moderation.KindAchievement, 4, adminA, "")
	require.ErrorIs(t, err, ErrReasonRequired)

	disabled, err := svc.Disable(ctx, moderation.KindAchievement, 4, adminA, "unverified")
	require.NoError(t, err)
	require.Equal(t, "inactive", disabled.Item.Status)
	require.NotNil(t, disabled.Item.DisabledAt)
	require.Equal(t, "unverified", disabled.Item.Reason)

	active, err := svc.Activate(ctx, moderation.KindAchievement, 4, adminB)
	require.NoError(t, err)
	require.Equal(t, "active", active.Item.Status)
	require.Nil(t, active.Item.DisabledAt)
	require.Empty(t, active.Item.Reason)
}

func TestModerationRetriesVersionConflicts(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindBlog, repository.ModerationRecord{ID: 1, ModerationState: models.ModerationState{Status: "pending"}})
	repo.conflicts = 2
	svc := newTestModerationService(repo, ModerationHooks{})

	result, err := svc.Approve(context.Background(), moderation.KindBlog, 1, adminA)
	require.NoError(t, err)
	require.Equal(t, "approved", result.Item.Status)
	require.Equal(t, 3, repo.applyCalls)
	require.Equal(t, 3, repo.getCalls)
}

func TestModerationSurfacesConflictAfterRetries(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindBlog, repository.ModerationRecord{ID: 1, ModerationState: models.ModerationState{Status: "pending"}})
	repo.conflicts = 10
	feed := &recordingFeed{}
	svc := newTestModerationService(repo, ModerationHooks{Feed: feed})

	_, err := svc.Approve(context.Background(), moderation.KindBlog, 1, adminA)
	require.ErrorIs(t, err, ErrModerationConflict)
	require.Equal(t, 3, repo.applyCalls)
	require.Empty(t, feed.events)
	require.Equal(t, "pending", repo.records[moderation.KindBlog][1].Status)
}

func TestModerationWrapsPersistenceErrors(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindBlog, repository.ModerationRecord{ID: 1, ModerationState: models.ModerationState{Status: "pending"}})
	storeErr := errors.New("disk full")
	repo.applyErr = storeErr
	svc := newTestModerationService(repo, ModerationHooks{})

	_, err := svc.Approve(context.Background(), moderation.KindBlog, 1, adminA)
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, storeErr)
	require.Equal(t, 1, repo.applyCalls)
}

func TestModerationNotFoundAndUnknownKind(t *testing.T) {
	svc := newTestModerationService(newMemoryModerationRepo(), ModerationHooks{})

	_, err := svc.Approve(context.Background(), moderation.KindBlog, 77, adminA)
	require.ErrorIs(t, err, ErrModerationNotFound)

	_, err = svc.Approve(context.Background(), moderation.Kind("event"), 1, adminA)
	require.ErrorIs(t, err, ErrUnknownKind)

	_, err = svc.Audits(context.Background(), moderation.KindBlog, 77)
	require.ErrorIs(t, err, ErrModerationNotFound)

	_, err = svc.Approve(context.Background(), moderation.KindBlog, 1, Actor{})
	require.ErrorIs(t, err, ErrActorRequired)
}

func TestModerationSideEffectsAfterCommit(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindBlog, repository.ModerationRecord{ID: 5, Title: "Pasar Malam", OwnerID: 40, ModerationState: models.ModerationState{Status: "pending"}})
	activity := &memoryActivityRepo{}
	notifications := &stubNotificationPublisher{}
	feed := &recordingFeed{}
	cache := &recordingInvalidator{}
	svc := newTestModerationService(repo, ModerationHooks{
		Activity:      NewActivityService(activity, testValidator(), testLogger()),
		Notifications: notifications,
		Feed:          feed,
		Caches:        []CacheInvalidator{cache, nil},
	})

	_, err := svc.Reject(context.Background(), moderation.KindBlog, 5, adminA, "off topic")
	require.NoError(t, err)

	require.Len(t, activity.entries, 1)
	require.Equal(t, "moderation.reject", activity.entries[0].Action)
	require.Equal(t, "Admin A", activity.entries[0].ActorName)
	require.Equal(t, "rejected", activity.entries[0].Metadata["to"])

	require.Len(t, notifications.calls, 1)
	require.Equal(t, "40", notifications.calls[0].UserID)
	require.Equal(t, "moderation_rejected", notifications.calls[0].Type)
	require.Contains(t, notifications.calls[0].Message, "Pasar Malam")
	require.Contains(t, notifications.calls[0].Message, "off topic")

	require.Len(t, feed.events, 1)
	require.Equal(t, "blog", feed.events[0].Kind)
	require.Equal(t, "pending", feed.events[0].FromStatus)
	require.Equal(t, "rejected", feed.events[0].ToStatus)

	require.Equal(t, []moderation.Kind{moderation.KindBlog}, cache.kinds)
}

func TestModerationSubmitIsOwnerOnly(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindBlog, repository.ModerationRecord{ID: 6, OwnerID: 40, ModerationState: models.ModerationState{Status: "draft"}})
	notifications := &stubNotificationPublisher{}
	svc := newTestModerationService(repo, ModerationHooks{Notifications: notifications})
	ctx := context.Background()

	_, err := svc.Submit(ctx, moderation.KindBlog, 6, Actor{ID: 41})
	require.ErrorIs(t, err, ErrModerationForbidden)

	result, err := svc.Submit(ctx, moderation.KindBlog, 6, Actor{ID: 40, Name: "Owner"})
	require.NoError(t, err)
	require.Equal(t, "pending", result.Item.Status)
	require.Nil(t, result.Item.ActedBy)
	require.Empty(t, notifications.calls)

	_, err = svc.Submit(ctx, moderation.KindBlog, 6, Actor{ID: 40})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestModerationStatusStaysInEnumeration(t *testing.T) {
	repo := newMemoryModerationRepo()
	repo.put(moderation.KindBlog, repository.ModerationRecord{ID: 1, ModerationState: models.ModerationState{Status: "draft"}})
	svc := newTestModerationService(repo, ModerationHooks{})
	policy, err := moderation.PolicyFor(moderation.KindBlog)
	require.NoError(t, err)
	ctx := context.Background()

	steps := []struct {
		action moderation.Action
		actor  Actor
		reason string
	}{
		{moderation.ActionApprove, adminA, ""},
		{moderation.ActionReject, adminA, "r"},
		{moderation.ActionReopen, adminA, ""},
		{moderation.ActionDisable, adminA, "d"},
		{moderation.ActionRemove, adminA, "gone"},
		{moderation.ActionApprove, adminB, ""},
	}
	for _, step := range steps {
		_, _ = svc.Transition(ctx, moderation.KindBlog, 1, step.action, step.actor, step.reason)
		require.True(t, policy.Allows(moderation.Status(repo.records[moderation.KindBlog][1].Status)))
	}
}

func TestModerationReasonsAreStoredAsTyped(t *testing.T) {
	db := setupServiceDB(t)
	blog := seedBlog(t, db, `Tom's "Pasar" & Co`, "pending", 40, time.Now().UTC())
	moderationRepo := repository.NewModerationRepository(db)
	notifications := NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, testValidator(), testLogger())
	svc := newTestModerationService(moderationRepo, ModerationHooks{Notifications: notifications})
	ctx := context.Background()

	reason := `Doesn't follow "rules" & guidelines; a < b`
	rejected, err := svc.Reject(ctx, moderation.KindBlog, blog.ID, adminA, "  "+reason+" ")
	require.NoError(t, err)
	require.Equal(t, reason, rejected.Item.Reason)

	stored, err := moderationRepo.Get(ctx, moderation.KindBlog, blog.ID)
	require.NoError(t, err)
	require.Equal(t, reason, stored.Reason)

	audits, err := svc.Audits(ctx, moderation.KindBlog, blog.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, reason, audits[0].Reason)

	inbox, err := notifications.List(ctx, "40", 10, 0)
	require.NoError(t, err)
	require.Len(t, inbox.Items, 1)
	require.Contains(t, inbox.Items[0].Message, `Tom's "Pasar" & Co`)
	require.Contains(t, inbox.Items[0].Message, reason)
	require.NotContains(t, inbox.Items[0].Message, "&#39;")
	require.NotContains(t, inbox.Items[0].Message, "&amp;")

	removed, err := svc.Remove(ctx, moderation.KindBlog, blog.ID, adminB, "<b>spam</b> & 'ads'")
	require.NoError(t, err)
	require.Equal(t, "spam & 'ads'", removed.Item.RemoveReason)

	_, err = svc.Remove(ctx, moderation.KindBlog, blog.ID, adminA, "second")
	require.ErrorIs(t, err, ErrInvalidTransition)
	stored, err = moderationRepo.Get(ctx, moderation.KindBlog, blog.ID)
	require.NoError(t, err)
	require.Equal(t, "spam & 'ads'", stored.RemoveReason)
}
