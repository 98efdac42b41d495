package recovery

import "strings"

// Action is what the orchestrator does about a failure.
type Action int

const (
	// ActionCleanupSessions: the user is stuck "already in session";
	// abandon the stale records, then the operation may retry.
	ActionCleanupSessions Action = iota
	// ActionReleaseLock: a stale search lock blocks the user; force-release
	// it, then retry.
	ActionReleaseLock
	// ActionRetry: transient store/network trouble; wait out the backoff
	// and retry.
	ActionRetry
	// ActionRefreshIdentity: the player profile is missing; not retryable,
	// the caller must refresh identity.
	ActionRefreshIdentity
	// ActionAutoRetry: optimistic transaction conflict; retry immediately
	// with no user-visible error.
	ActionAutoRetry
	// ActionUnknown: unrecognized condition; surfaced, never retried.
	ActionUnknown
)

// Retryable reports whether the action permits another attempt.
func (a Action) Retryable() bool {
	switch a {
	case ActionCleanupSessions, ActionReleaseLock, ActionRetry, ActionAutoRetry:
		return true
	}
	return false
}

// classifyRules maps condition substrings to actions; first match wins, so
// order is the contract.
var classifyRules = []struct {
	substrings []string
	action     Action
}{
	{[]string{"already in session", "already in room"}, ActionCleanupSessions},
	{[]string{"already searching", "lock held"}, ActionReleaseLock},
	{[]string{"network", "timeout", "timed out", "unavailable", "connection refused"}, ActionRetry},
	{[]string{"profile not found", "user not found"}, ActionRefreshIdentity},
	{[]string{"transaction", "conflict", "aborted"}, ActionAutoRetry},
}

// Classify maps an error onto the recovery action table.
func Classify(err error) Action {
	if err == nil {
		return ActionUnknown
	}
	msg := strings.ToLower(err.Error())
	for _, rule := range classifyRules {
		for _, sub := range rule.substrings {
			if strings.Contains(msg, sub) {
				return rule.action
			}
		}
	}
	return ActionUnknown
}
