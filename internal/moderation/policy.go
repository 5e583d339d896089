// Package moderation holds the per-kind transition tables that decide which
// status changes a moderator or owner may apply to portal content.
package moderation

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a moderatable entity type.
type Kind string

// Supported kinds.
const (
	KindBlog           Kind = "blog"
	KindAchievement    Kind = "achievement"
	KindCoachingCenter Kind = "coaching_center"
	KindUserAccount    Kind = "user_account"
)

// Status is a persisted moderation status value.
type Status string

// Status values used across kinds. Each kind only accepts a subset.
const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRemoved  Status = "removed"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Action is a requested transition.
type Action string

// Supported actions.
const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionRemove   Action = "remove"
	ActionDisable  Action = "disable"
	ActionActivate Action = "activate"
	ActionReopen   Action = "reopen"
)

var actionOrder = []Action{ActionSubmit, ActionApprove, ActionReject, ActionDisable, ActionActivate, ActionReopen, ActionRemove}

var (
	// ErrUnknownKind indicates the kind has no registered policy.
	ErrUnknownKind = errors.New("unknown moderation kind")
	// ErrUnknownAction indicates the action name is not recognised.
	ErrUnknownAction = errors.New("unknown moderation action")
	// ErrInvalidTransition indicates the action is not legal from the current status.
	ErrInvalidTransition = errors.New("transition not allowed from current status")
)

// PastTense returns the audit label recorded for the action.
func (a Action) PastTense() string {
	switch a {
	case ActionSubmit:
		return "submitted"
	case ActionApprove:
		return "approved"
	case ActionReject:
		return "rejected"
	case ActionRemove:
		return "removed"
	case ActionDisable:
		return "disabled"
	case ActionActivate:
		return "activated"
	case ActionReopen:
		return "reopened"
	default:
		return string(a)
	}
}

// Rule is the outcome of a legal transition.
type Rule struct {
	Next          Status
	RequireReason bool
}

type transition struct {
	from   Status
	action Action
}

// Policy is the transition table for a single kind.
type Policy struct {
	Kind     Kind
	Initial  Status
	statuses []Status
	rules    map[transition]Rule
}

func newPolicy(kind Kind, initial Status, statuses ...Status) *Policy {
	return &Policy{
		Kind:     kind,
		Initial:  initial,
		statuses: statuses,
		rules:    make(map[transition]Rule),
	}
}

func (p *Policy) on(action Action, next Status, requireReason bool, from ...Status) *Policy {
	for _, status := range from {
		p.rules[transition{from: status, action: action}] = Rule{Next: next, RequireReason: requireReason}
	}
	return p
}

// Statuses lists every status the kind may persist.
func (p Policy) Statuses() []Status {
	out := make([]Status, len(p.statuses))
	copy(out, p.statuses)
	return out
}

// Allows reports whether status belongs to the kind's enumeration.
func (p Policy) Allows(status Status) bool {
	for _, candidate := range p.statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// Next resolves the rule for applying action while in current.
func (p Policy) Next(current Status, action Action) (Rule, error) {
	rule, ok := p.rules[transition{from: current, action: action}]
	if !ok {
		return Rule{}, fmt.Errorf("%w: cannot %s %s while %s", ErrInvalidTransition, action, p.Kind, current)
	}
	return rule, nil
}

// RequiresReason reports whether any transition for action demands a reason.
func (p Policy) RequiresReason(action Action) bool {
	for key, rule := range p.rules {
		if key.action == action && rule.RequireReason {
			return true
		}
	}
	return false
}

// Actions returns the legal actions from current in a stable order.
func (p Policy) Actions(current Status) []Action {
	actions := make([]Action, 0, len(actionOrder))
	for _, action := range actionOrder {
		if _, ok := p.rules[transition{from: current, action: action}]; ok {
			actions = append(actions, action)
		}
	}
	return actions
}

var policies = map[Kind]Policy{
	KindBlog: *newPolicy(KindBlog, StatusDraft,
		StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusRemoved).
		on(ActionSubmit, StatusPending, false, StatusDraft).
		on(ActionApprove, StatusApproved, false, StatusPending, StatusRejected).
		on(ActionReject, StatusRejected, true, StatusPending, StatusApproved).
		on(ActionRemove, StatusRemoved, true, StatusDraft, StatusPending, StatusApproved, StatusRejected),

	KindCoachingCenter: *newPolicy(KindCoachingCenter, StatusPending,
		StatusPending, StatusApproved, StatusRejected, StatusRemoved).
		on(ActionApprove, StatusApproved, false, StatusPending, StatusRejected).
		on(ActionReject, StatusRejected, true, StatusPending, StatusApproved).
		on(ActionRemove, StatusRemoved, true, StatusPending, StatusApproved, StatusRejected),

	KindAchievement: *newPolicy(KindAchievement, StatusActive,
		StatusActive, StatusInactive, StatusRemoved).
		on(ActionDisable, StatusInactive, true, StatusActive).
		on(ActionActivate, StatusActive, false, StatusInactive).
		on(ActionRemove, StatusRemoved, true, StatusActive, StatusInactive),

	// Account decisions are votes: a second admin may reaffirm the current
	// decision, which keeps the status and appends another audit record.
	KindUserAccount: *newPolicy(KindUserAccount, StatusPending,
		StatusPending, StatusApproved, StatusRejected).
		on(ActionApprove, StatusApproved, false, StatusPending, StatusRejected, StatusApproved).
		on(ActionReject, StatusRejected, true, StatusPending, StatusApproved, StatusRejected).
		on(ActionReopen, StatusPending, false, StatusApproved, StatusRejected),
}

// PolicyFor returns the transition table registered for kind.
func PolicyFor(kind Kind) (Policy, error) {
	policy, ok := policies[kind]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return policy, nil
}

// Kinds lists every registered kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindBlog, KindAchievement, KindCoachingCenter, KindUserAccount}
}

// ParseKind accepts both snake and kebab case names, e.g. "coaching-center".
func ParseKind(raw string) (Kind, error) {
	normalized := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if _, ok := policies[normalized]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return normalized, nil
}

// ParseAction validates an action name.
func ParseAction(raw string) (Action, error) {
	normalized := Action(strings.ToLower(strings.TrimSpace(raw)))
	for _, action := range actionOrder {
		if action == normalized {
			return action, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}
