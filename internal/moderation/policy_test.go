package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlogPolicyTransitions(t *testing.T) {
	policy, err := PolicyFor(KindBlog)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, policy.Initial)

	rule, err := policy.Next(StatusDraft, ActionSubmit)
	require.NoError(t, err)
	require.Equal(t, StatusPending, rule.Next)

	rule, err = policy.Next(StatusPending, ActionApprove)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, rule.Next)
	require.False(t, rule.RequireReason)

	rule, err = policy.Next(StatusApproved, ActionReject)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rule.Next)
	require.True(t, rule.RequireReason)

	rule, err = policy.Next(StatusRejected, ActionApprove)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, rule.Next)

	_, err = policy.Next(StatusApproved, ActionApprove)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = policy.Next(StatusDraft, ActionApprove)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRemovedIsTerminal(t *testing.T) {
	for _, kind := range []Kind{KindBlog, KindCoachingCenter, KindAchievement} {
		policy, err := PolicyFor(kind)
		require.NoError(t, err)
		require.True(t, policy.Allows(StatusRemoved), kind)
		require.Empty(t, policy.Actions(StatusRemoved), kind)

		_, err = policy.Next(StatusRemoved, ActionRemove)
		require.ErrorIs(t, err, ErrInvalidTransition, kind)
	}
}

func TestAchievementDisableActivate(t *testing.T) {
	policy, err := PolicyFor(KindAchievement)
	require.NoError(t, err)
	require.Equal(t, StatusActive, policy.Initial)

	rule, err := policy.Next(StatusActive, ActionDisable)
	require.NoError(t, err)
	require.Equal(t, StatusInactive, rule.Next)
	require.True(t, rule.RequireReason)

	rule, err = policy.Next(StatusInactive, ActionActivate)
	require.NoError(t, err)
	require.Equal(t, StatusActive, rule.Next)
	require.False(t, rule.RequireReason)

	require.Equal(t, []Action{ActionActivate, ActionRemove}, policy.Actions(StatusInactive))
	_, err = policy.Next(StatusActive, ActionApprove)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUserAccountVotesAndNoRemoval(t *testing.T) {
	policy, err := PolicyFor(KindUserAccount)
	require.NoError(t, err)
	require.False(t, policy.Allows(StatusRemoved))

	rule, err := policy.Next(StatusApproved, ActionApprove)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, rule.Next)

	rule, err = policy.Next(StatusRejected, ActionReopen)
	require.NoError(t, err)
	require.Equal(t, StatusPending, rule.Next)

	_, err = policy.Next(StatusPending, ActionRemove)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.False(t, policy.RequiresReason(ActionRemove))
	require.True(t, policy.RequiresReason(ActionReject))
}

func TestParseKindAndAction(t *testing.T) {
	kind, err := ParseKind("Coaching-Center")
	require.NoError(t, err)
	require.Equal(t, KindCoachingCenter, kind)

	_, err = ParseKind("matrimony")
	require.ErrorIs(t, err, ErrUnknownKind)

	action, err := ParseAction(" Reject ")
	require.NoError(t, err)
	require.Equal(t, ActionReject, action)

	_, err = ParseAction("archive")
	require.ErrorIs(t, err, ErrUnknownAction)

	_, err = PolicyFor(Kind("event"))
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestStatusesAreCopied(t *testing.T) {
	policy, err := PolicyFor(KindBlog)
	require.NoError(t, err)

	statuses := policy.Statuses()
	statuses[0] = Status("tampered")
	require.True(t, policy.Allows(StatusDraft))
	require.False(t, policy.Allows(Status("tampered")))
}

func TestPastTense(t *testing.T) {
	require.Equal(t, "approved", ActionApprove.PastTense())
	require.Equal(t, "rejected", ActionReject.PastTense())
	require.Equal(t, "removed", ActionRemove.PastTense())
	require.Equal(t, "reopened", ActionReopen.PastTense())
}
