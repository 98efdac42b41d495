package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Postgres struct {
		DSN string
	}
	Matchmaking Matchmaking
}

// Matchmaking holds every tuned constant of the matchmaking core. The
// scoring weights are deliberately configuration, not code: tests assert
// monotonicity, operators pick the numbers.
type Matchmaking struct {
	LockTTL        time.Duration
	SkillAxisMax   int
	SplitThreshold int

	MatchInterval     time.Duration
	SweepInterval     time.Duration
	HeartbeatTimeout  time.Duration
	SessionTimeout    time.Duration
	StagnationTimeout time.Duration
	MaxQueueWait      time.Duration

	MaxAttempts int
	Backoff     time.Duration

	PremiumBonus       int
	RankedBonus        int
	WaitBonusPerSecond int
	WaitBonusCap       int
	NewPlayerBonus     int
	NewPlayerGames     int
	StreakBonus        int
	StreakMin          int

	SkillPenaltyDivisor int
	RegionBonus         int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("matchmaking.lockttl", "10s")
	v.SetDefault("matchmaking.skillaxismax", 5000)
	v.SetDefault("matchmaking.splitthreshold", 500)
	v.SetDefault("matchmaking.matchinterval", "3s")
	v.SetDefault("matchmaking.sweepinterval", "30s")
	v.SetDefault("matchmaking.heartbeattimeout", "45s")
	v.SetDefault("matchmaking.sessiontimeout", "20m")
	v.SetDefault("matchmaking.stagnationtimeout", "10m")
	v.SetDefault("matchmaking.maxqueuewait", "2m")
	v.SetDefault("matchmaking.maxattempts", 3)
	v.SetDefault("matchmaking.backoff", "2s")
	v.SetDefault("matchmaking.premiumbonus", 1000)
	v.SetDefault("matchmaking.rankedbonus", 250)
	v.SetDefault("matchmaking.waitbonuspersecond", 5)
	v.SetDefault("matchmaking.waitbonuscap", 300)
	v.SetDefault("matchmaking.newplayerbonus", 50)
	v.SetDefault("matchmaking.newplayergames", 10)
	v.SetDefault("matchmaking.streakbonus", 25)
	v.SetDefault("matchmaking.streakmin", 3)
	v.SetDefault("matchmaking.skillpenaltydivisor", 10)
	v.SetDefault("matchmaking.regionbonus", 5)
}

// Load reads the config file at path. A missing file is not an error,
// defaults cover everything.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Defaults returns a config built purely from defaults, used by tests.
func Defaults() *Config {
	c, _ := Load("")
	return c
}
