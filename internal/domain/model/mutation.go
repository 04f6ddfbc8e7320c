//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "strings"

// Action is a state-changing operation on one or more list items.
type Action string

const (
	ActionApprove      Action = "approve"
	ActionReject       Action = "reject"
	ActionMarkRead     Action = "mark-read"
	ActionMarkUnread   Action = "mark-unread"
	ActionDelete       Action = "delete"
	ActionBulkDelete   Action = "bulk-delete"
	ActionBulkMarkRead Action = "bulk-mark-read"
	ActionCreate       Action = "create"
)

// ParseAction converts user input into an Action.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	return a, a.Valid()
}

// Valid returns true if the action is known.
func (a Action) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionMarkRead, ActionMarkUnread,
		ActionDelete, ActionBulkDelete, ActionBulkMarkRead, ActionCreate:
		return true
	default:
		return false
	}
}

// IsBulk reports whether the action operates on a selection.
func (a Action) IsBulk() bool {
	return a == ActionBulkDelete || a == ActionBulkMarkRead
}

// String returns the string representation of the action.
func (a Action) String() string { return string(a) }

// Reconcile describes how local list state follows a mutation.
type Reconcile string

const (
	// ReconcilePatch patches the mutable fields of the affected items.
	ReconcilePatch Reconcile = "patch"
	// ReconcileRemove drops the affected items from the held list.
	ReconcileRemove Reconcile = "remove"
	// ReconcileRefetch reloads the current page from the server.
	ReconcileRefetch Reconcile = "refetch"
	// ReconcileNone leaves local state untouched.
	ReconcileNone Reconcile = "none"
)

// MutationPolicy is the reconciliation rule for one action.
// Optimistic policies update local state even when the server call fails.
type MutationPolicy struct {
	Reconcile  Reconcile
	Optimistic bool
}

// DefaultMutationPolicies returns the reconciliation table used by the dashboard.
// Delete and read-state changes are low stakes and applied optimistically; approvals,
// rejections, and creations wait for the server.
func DefaultMutationPolicies() map[Action]MutationPolicy {
	return map[Action]MutationPolicy{
		ActionApprove:      {Reconcile: ReconcilePatch},
		ActionReject:       {Reconcile: ReconcilePatch},
		ActionCreate:       {Reconcile: ReconcileRefetch},
		ActionMarkRead:     {Reconcile: ReconcilePatch, Optimistic: true},
		ActionMarkUnread:   {Reconcile: ReconcilePatch, Optimistic: true},
		ActionDelete:       {Reconcile: ReconcileRemove, Optimistic: true},
		ActionBulkDelete:   {Reconcile: ReconcileRemove, Optimistic: true},
		ActionBulkMarkRead: {Reconcile: ReconcilePatch, Optimistic: true},
	}
}

// MutationRequest asks the dispatcher to perform an action.
type MutationRequest struct {
	Resource string
	Action   Action
	IDs      []string
	Payload  any
}

// MutationOutcome reports what the dispatcher did.
type MutationOutcome struct {
	Action     Action
	IDs        []string
	Reconcile  Reconcile
	Applied    bool
	Skipped    bool
	Optimistic bool
	// ServerErr is set when an optimistic action failed upstream after local state was updated.
	ServerErr error
	// Change is the patch applied to each affected item, when Reconcile is patch.
	Change Change
}
