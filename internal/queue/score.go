package queue

import (
	"time"

	"DiceArena/config"
)

// PriorityInputs are the profile facts priority scoring needs. The caller
// maps its profile store onto this; the queue never reads storage.
type PriorityInputs struct {
	Premium     bool
	Ranked      bool
	GamesPlayed int
	WinStreak   int
}

// BasePriority composes the static priority score: premium tier, ranked
// session, new-player retention and win-streak bonuses. Weights come from
// config; only their roles are fixed here.
func BasePriority(cfg config.Matchmaking, in PriorityInputs) int {
	p := 0
	if in.Premium {
		p += cfg.PremiumBonus
	}
	if in.Ranked {
		p += cfg.RankedBonus
	}
	if in.GamesPlayed < cfg.NewPlayerGames {
		p += cfg.NewPlayerBonus
	}
	if in.WinStreak >= cfg.StreakMin {
		p += cfg.StreakBonus
	}
	return p
}

// waitBonus grows with time spent queued, capped so nobody outranks the
// premium tier on patience alone.
func waitBonus(cfg config.Matchmaking, e *Entry, now time.Time) int {
	secs := int(now.Sub(e.EnqueuedAt) / time.Second)
	if secs < 0 {
		secs = 0
	}
	b := secs * cfg.WaitBonusPerSecond
	if b > cfg.WaitBonusCap {
		b = cfg.WaitBonusCap
	}
	return b
}

func effectivePriority(cfg config.Matchmaking, e *Entry, now time.Time) int {
	return e.BasePriority + waitBonus(cfg, e, now)
}

// Quality scores a candidate pair on [0,100]: starts at 100, loses a penalty
// proportional to skill difference, gains a small bonus when regions match.
func Quality(cfg config.Matchmaking, a, b *Entry) int {
	diff := a.Skill - b.Skill
	if diff < 0 {
		diff = -diff
	}
	q := 100
	if cfg.SkillPenaltyDivisor > 0 {
		q -= diff / cfg.SkillPenaltyDivisor
	}
	if a.Region != "" && a.Region == b.Region {
		q += cfg.RegionBonus
	}
	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}
	return q
}
