package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"DiceArena/config"
)

// Scoring weights are tuned configuration; these tests pin down the shape
// of the curves, not the numbers.

func Test_Quality_MonotoneInSkillDifference(t *testing.T) {
	cfg := config.Defaults().Matchmaking

	at := func(diff int) int {
		a := &Entry{Skill: 1000}
		b := &Entry{Skill: 1000 + diff}
		return Quality(cfg, a, b)
	}

	prev := at(0)
	assert.Equal(t, 100, prev, "perfect skill match starts at the top")
	for _, diff := range []int{10, 50, 100, 300, 700, 1500} {
		q := at(diff)
		assert.LessOrEqual(t, q, prev, "quality must not rise with skill gap %d", diff)
		prev = q
	}

	// Clamped at the floor, never negative.
	assert.Equal(t, 0, at(100000))
}

func Test_Quality_RegionBonusBoundedAndClamped(t *testing.T) {
	cfg := config.Defaults().Matchmaking

	same := Quality(cfg, &Entry{Skill: 1000, Region: "eu"}, &Entry{Skill: 1200, Region: "eu"})
	diff := Quality(cfg, &Entry{Skill: 1000, Region: "eu"}, &Entry{Skill: 1200, Region: "us"})
	assert.Greater(t, same, diff)
	assert.LessOrEqual(t, same-diff, cfg.RegionBonus)

	// The bonus never pushes past 100.
	top := Quality(cfg, &Entry{Skill: 1000, Region: "eu"}, &Entry{Skill: 1000, Region: "eu"})
	assert.Equal(t, 100, top)

	// Empty regions never count as a match.
	blank := Quality(cfg, &Entry{Skill: 1000}, &Entry{Skill: 1000})
	assert.Equal(t, 100, blank)
	blankGap := Quality(cfg, &Entry{Skill: 1000}, &Entry{Skill: 1200})
	assert.Equal(t, diff, blankGap)
}

func Test_BasePriority_EachBonusRaisesTheScore(t *testing.T) {
	cfg := config.Defaults().Matchmaking
	base := BasePriority(cfg, PriorityInputs{GamesPlayed: cfg.NewPlayerGames})

	assert.Greater(t,
		BasePriority(cfg, PriorityInputs{Premium: true, GamesPlayed: cfg.NewPlayerGames}), base)
	assert.Greater(t,
		BasePriority(cfg, PriorityInputs{Ranked: true, GamesPlayed: cfg.NewPlayerGames}), base)
	assert.Greater(t,
		BasePriority(cfg, PriorityInputs{GamesPlayed: 0}), base,
		"new players get the retention bonus")
	assert.Greater(t,
		BasePriority(cfg, PriorityInputs{GamesPlayed: cfg.NewPlayerGames, WinStreak: cfg.StreakMin}), base)
	assert.Equal(t, base,
		BasePriority(cfg, PriorityInputs{GamesPlayed: cfg.NewPlayerGames, WinStreak: cfg.StreakMin - 1}),
		"below the streak floor no bonus applies")
}

func Test_WaitBonus_GrowsAndCaps(t *testing.T) {
	cfg := config.Defaults().Matchmaking
	start := time.Unix(1_700_000_000, 0)
	e := &Entry{EnqueuedAt: start}

	prev := waitBonus(cfg, e, start)
	assert.Equal(t, 0, prev)
	for _, wait := range []time.Duration{10 * time.Second, time.Minute, 5 * time.Minute, time.Hour} {
		b := waitBonus(cfg, e, start.Add(wait))
		assert.GreaterOrEqual(t, b, prev, "wait bonus must not shrink")
		assert.LessOrEqual(t, b, cfg.WaitBonusCap)
		prev = b
	}
	assert.Equal(t, cfg.WaitBonusCap, prev, "long waits hit the cap")

	// The cap keeps patience below the premium tier.
	assert.Greater(t, cfg.PremiumBonus, cfg.WaitBonusCap)
}
