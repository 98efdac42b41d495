// Package queue holds pending search requests, partitions them into
// skill-range segments per (gameMode, sessionType), and pairs candidates in
// a greedy priority-then-age matching pass. All state is in-memory and
// rebuildable; a process restart means clients retry their search.
package queue

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"DiceArena/config"
	"DiceArena/internal/clock"
)

// ErrAlreadyQueued signals that the player already has a live entry for the
// same (gameMode, sessionType). It is a signal, not a failure.
var ErrAlreadyQueued = errors.New("player already searching in this queue")

type Manager struct {
	mu       sync.Mutex
	segments map[string][]*Segment // gameMode|sessionType -> segments
	byPlayer map[string]*Segment   // playerId|gameMode|sessionType -> segment
	cfg      config.Matchmaking
	clk      clock.Clock
}

func NewManager(cfg config.Matchmaking, clk clock.Clock) *Manager {
	return &Manager{
		segments: make(map[string][]*Segment),
		byPlayer: make(map[string]*Segment),
		cfg:      cfg,
		clk:      clk,
	}
}

func queueKey(gameMode, sessionType string) string {
	return gameMode + "|" + sessionType
}

func playerKey(playerID, gameMode, sessionType string) string {
	return playerID + "|" + gameMode + "|" + sessionType
}

// Enqueue adds an entry to the segment covering its skill. Re-enqueuing the
// same (playerId, gameMode, sessionType) is a no-op returning
// ErrAlreadyQueued, unless refresh is set, which only renews the timestamp.
func (m *Manager) Enqueue(e Entry, refresh bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := playerKey(e.PlayerID, e.GameMode, e.SessionType)
	if seg, ok := m.byPlayer[pk]; ok {
		if refresh {
			for _, cur := range seg.entries {
				if cur.PlayerID == e.PlayerID {
					cur.EnqueuedAt = m.clk.Now()
					break
				}
			}
			return nil
		}
		return ErrAlreadyQueued
	}

	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = m.clk.Now()
	}
	// Skill comes from an external profile feed; clamp it onto the axis so
	// the entry always lands in a segment that contains it.
	if e.Skill < 0 {
		e.Skill = 0
	} else if e.Skill > m.cfg.SkillAxisMax {
		e.Skill = m.cfg.SkillAxisMax
	}
	seg := m.segmentFor(e.GameMode, e.SessionType, e.Skill)
	entry := e
	seg.entries = append(seg.entries, &entry)
	m.byPlayer[pk] = seg
	m.maybeSplit(seg)
	return nil
}

// Dequeue removes the player's entry. Absent is fine.
func (m *Manager) Dequeue(playerID, gameMode, sessionType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(playerID, gameMode, sessionType)
}

func (m *Manager) removeLocked(playerID, gameMode, sessionType string) {
	pk := playerKey(playerID, gameMode, sessionType)
	seg, ok := m.byPlayer[pk]
	if !ok {
		return
	}
	delete(m.byPlayer, pk)
	for i, e := range seg.entries {
		if e.PlayerID == playerID {
			seg.entries = append(seg.entries[:i], seg.entries[i+1:]...)
			return
		}
	}
}

// segmentFor returns the segment containing skill, creating a full-axis
// segment for the (gameMode, sessionType) pair when none exists.
func (m *Manager) segmentFor(gameMode, sessionType string, skill int) *Segment {
	qk := queueKey(gameMode, sessionType)
	for _, s := range m.segments[qk] {
		if s.contains(skill) {
			return s
		}
	}
	s := &Segment{
		ID:          uuid.NewString(),
		GameMode:    gameMode,
		SessionType: sessionType,
		SkillLow:    0,
		SkillHigh:   m.cfg.SkillAxisMax,
	}
	m.segments[qk] = append(m.segments[qk], s)
	return s
}

// maybeSplit bisects seg near the median skill once its size exceeds the
// split threshold. The two children cover the parent's range contiguously
// and the parent disappears; entry count is conserved.
func (m *Manager) maybeSplit(seg *Segment) {
	if len(seg.entries) <= m.cfg.SplitThreshold {
		return
	}

	skills := make([]int, len(seg.entries))
	for i, e := range seg.entries {
		skills[i] = e.Skill
	}
	sort.Ints(skills)
	median := skills[len(skills)/2]
	if median <= seg.SkillLow {
		// Range cannot be bisected below the median; the segment stays
		// oversized until skills diverge.
		return
	}

	left := &Segment{
		ID:          uuid.NewString(),
		GameMode:    seg.GameMode,
		SessionType: seg.SessionType,
		SkillLow:    seg.SkillLow,
		SkillHigh:   median - 1,
	}
	right := &Segment{
		ID:          uuid.NewString(),
		GameMode:    seg.GameMode,
		SessionType: seg.SessionType,
		SkillLow:    median,
		SkillHigh:   seg.SkillHigh,
	}
	for _, e := range seg.entries {
		child := right
		if e.Skill < median {
			child = left
		}
		child.entries = append(child.entries, e)
		m.byPlayer[playerKey(e.PlayerID, e.GameMode, e.SessionType)] = child
	}

	qk := queueKey(seg.GameMode, seg.SessionType)
	segs := m.segments[qk]
	for i, s := range segs {
		if s == seg {
			segs = append(segs[:i], segs[i+1:]...)
			break
		}
	}
	m.segments[qk] = append(segs, left, right)
}

// MatchPass runs one greedy matching cycle over every segment: take the
// highest-priority entry (earliest enqueue breaks ties), pair it with the
// remaining entry of smallest skill difference, remove both, repeat.
// Matched entries are gone when this returns; pairs are never persisted.
func (m *Manager) MatchPass() []CandidatePair {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	var pairs []CandidatePair
	for _, segs := range m.segments {
		for _, seg := range segs {
			pairs = append(pairs, m.matchSegment(seg, now)...)
		}
	}
	return pairs
}

func (m *Manager) matchSegment(seg *Segment, now time.Time) []CandidatePair {
	var pairs []CandidatePair
	for len(seg.entries) >= 2 {
		sort.SliceStable(seg.entries, func(i, j int) bool {
			pi := effectivePriority(m.cfg, seg.entries[i], now)
			pj := effectivePriority(m.cfg, seg.entries[j], now)
			if pi != pj {
				return pi > pj
			}
			return seg.entries[i].EnqueuedAt.Before(seg.entries[j].EnqueuedAt)
		})

		head := seg.entries[0]
		best := 1
		bestDiff := skillDiff(head, seg.entries[1])
		for i := 2; i < len(seg.entries); i++ {
			if d := skillDiff(head, seg.entries[i]); d < bestDiff {
				best, bestDiff = i, d
			}
		}
		mate := seg.entries[best]

		pairs = append(pairs, CandidatePair{
			A:       *head,
			B:       *mate,
			Quality: Quality(m.cfg, head, mate),
		})

		delete(m.byPlayer, playerKey(head.PlayerID, head.GameMode, head.SessionType))
		delete(m.byPlayer, playerKey(mate.PlayerID, mate.GameMode, mate.SessionType))
		seg.entries = append(seg.entries[:best], seg.entries[best+1:]...)
		seg.entries = seg.entries[1:]
	}
	return pairs
}

func skillDiff(a, b *Entry) int {
	d := a.Skill - b.Skill
	if d < 0 {
		return -d
	}
	return d
}

// RemoveStale evicts entries queued longer than maxWait and returns them so
// the caller can route them to the fallback path.
func (m *Manager) RemoveStale(maxWait time.Duration) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	var stale []Entry
	for _, segs := range m.segments {
		for _, seg := range segs {
			kept := seg.entries[:0]
			for _, e := range seg.entries {
				if now.Sub(e.EnqueuedAt) > maxWait {
					stale = append(stale, *e)
					delete(m.byPlayer, playerKey(e.PlayerID, e.GameMode, e.SessionType))
				} else {
					kept = append(kept, e)
				}
			}
			seg.entries = kept
		}
	}
	return stale
}

// PruneEmptySegments drops segments with no entries. New full-axis segments
// are recreated on demand, so pruning loses nothing.
func (m *Manager) PruneEmptySegments() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for qk, segs := range m.segments {
		kept := segs[:0]
		for _, s := range segs {
			if len(s.entries) == 0 {
				pruned++
			} else {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			delete(m.segments, qk)
		} else {
			m.segments[qk] = kept
		}
	}
	return pruned
}

// Queued reports whether the player has a live entry in the given queue.
func (m *Manager) Queued(playerID, gameMode, sessionType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byPlayer[playerKey(playerID, gameMode, sessionType)]
	return ok
}

// Stats snapshots the queue for monitoring.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	st := Stats{}
	for _, segs := range m.segments {
		for _, seg := range segs {
			ss := SegmentStats{
				GameMode:    seg.GameMode,
				SessionType: seg.SessionType,
				SkillLow:    seg.SkillLow,
				SkillHigh:   seg.SkillHigh,
				Size:        len(seg.entries),
			}
			for _, e := range seg.entries {
				if w := now.Sub(e.EnqueuedAt); w > ss.OldestWait {
					ss.OldestWait = w
				}
			}
			st.TotalQueued += ss.Size
			st.Segments = append(st.Segments, ss)
		}
	}
	sort.Slice(st.Segments, func(i, j int) bool {
		a, b := st.Segments[i], st.Segments[j]
		if a.GameMode != b.GameMode {
			return a.GameMode < b.GameMode
		}
		if a.SessionType != b.SessionType {
			return a.SessionType < b.SessionType
		}
		return a.SkillLow < b.SkillLow
	})
	return st
}
