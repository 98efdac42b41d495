package matchmaker

import "time"

const (
	SessionTypeCasual = "casual"
	SessionTypeRanked = "ranked"
)

// JoinRequest asks for a match. Validated at the boundary before anything
// touches the core.
type JoinRequest struct {
	PlayerID    string `json:"playerId" binding:"required"`
	GameMode    string `json:"gameMode" binding:"required"` // e.g. "classic", "blitz"
	SessionType string `json:"sessionType" binding:"required,oneof=casual ranked"`
}

// JoinResponse reports either a created session or the queued state. When a
// search lock blocks the request, RetryAfterMs hints how long to wait.
type JoinResponse struct {
	Queued       bool     `json:"queued"`
	SessionID    string   `json:"sessionId,omitempty"`
	Players      []string `json:"players,omitempty"`
	RetryAfterMs int64    `json:"retryAfterMs,omitempty"`
	GameMode     string   `json:"gameMode"`
	SessionType  string   `json:"sessionType"`
}

type CancelRequest struct {
	PlayerID    string `json:"playerId" binding:"required"`
	GameMode    string `json:"gameMode" binding:"required"`
	SessionType string `json:"sessionType" binding:"required"`
}

type HeartbeatRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	PlayerID  string `json:"playerId" binding:"required"`
}

type LeaveRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	PlayerID  string `json:"playerId" binding:"required"`
	Reason    string `json:"reason"`
}

// MatchResult is what RequestMatch hands back to the request layer.
type MatchResult struct {
	SessionID  string
	Players    []string
	Queued     bool
	RetryAfter time.Duration
}
