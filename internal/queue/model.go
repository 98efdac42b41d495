package queue

import "time"

// Entry is one pending search request. Unique per
// (playerId, gameMode, sessionType) while queued.
type Entry struct {
	PlayerID    string
	GameMode    string
	SessionType string
	Skill       int
	Region      string

	// BasePriority is the static part of the priority score, computed from
	// the player's profile at enqueue time. The wait bonus is added during
	// each matching pass.
	BasePriority int
	EnqueuedAt   time.Time
}

// Segment is a contiguous skill-range partition of one (gameMode,
// sessionType) queue. Bounds are inclusive.
type Segment struct {
	ID          string
	GameMode    string
	SessionType string
	SkillLow    int
	SkillHigh   int

	entries []*Entry
}

func (s *Segment) contains(skill int) bool {
	return skill >= s.SkillLow && skill <= s.SkillHigh
}

func (s *Segment) Len() int { return len(s.entries) }

// CandidatePair is the ephemeral product of one matching pass: two entries
// plus how well they fit. Never persisted.
type CandidatePair struct {
	A       Entry
	B       Entry
	Quality int
}

// Involves reports whether either side of the pair is playerID.
func (p CandidatePair) Involves(playerID string) bool {
	return p.A.PlayerID == playerID || p.B.PlayerID == playerID
}

// SegmentStats is the read-only view of one segment for monitoring.
type SegmentStats struct {
	GameMode    string        `json:"gameMode"`
	SessionType string        `json:"sessionType"`
	SkillLow    int           `json:"skillLow"`
	SkillHigh   int           `json:"skillHigh"`
	Size        int           `json:"size"`
	OldestWait  time.Duration `json:"oldestWait"`
}

type Stats struct {
	TotalQueued int            `json:"totalQueued"`
	Segments    []SegmentStats `json:"segments"`
}
