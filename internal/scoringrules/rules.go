package scoringrules

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Rules drive the leaderboard pipeline: which rules version a new
// snapshot is stamped with, how far two percentages may drift before
// a trend flips, and how long cached leaderboard rows stay fresh.
type Rules struct {
	Version             string        `mapstructure:"version"`
	TrendEpsilon        float64       `mapstructure:"trendEpsilon"`
	LeaderboardCacheTTL time.Duration `mapstructure:"leaderboardCacheTTL"`
}

func DefaultRules() Rules {
	return Rules{
		Version:             "v1",
		TrendEpsilon:        0.01,
		LeaderboardCacheTTL: 5 * time.Minute,
	}
}

type Holder struct {
	current atomic.Value // holds Rules
}

func NewHolder(configPath string) (*Holder, error) {
	v := viper.New()

	v.SetConfigName("scoring")
	v.SetConfigType("yml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("/var/lib/scoreline/config") // Volume-mounted config
	v.AddConfigPath("/etc/scoreline")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("SCORELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRules()
	v.SetDefault("scoring.version", defaults.Version)
	v.SetDefault("scoring.trendEpsilon", defaults.TrendEpsilon)
	v.SetDefault("scoring.leaderboardCacheTTL", defaults.LeaderboardCacheTTL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// no config file, defaults apply
	}

	var rules Rules
	if err := v.UnmarshalKey("scoring", &rules); err != nil {
		return nil, err
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	holder := &Holder{}
	holder.current.Store(rules)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Rules
		if err := v.UnmarshalKey("scoring", &updated); err != nil {
			log.Printf("[scoring-rules] reload failed: %v", err)
			return
		}
		if err := validateRules(updated); err != nil {
			log.Printf("[scoring-rules] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[scoring-rules] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticHolder builds a holder pinned to the given rules, without a
// backing file. Tests use it to control versions and epsilons directly.
func NewStaticHolder(rules Rules) *Holder {
	holder := &Holder{}
	holder.current.Store(rules)
	return holder
}

func (h *Holder) Get() Rules {
	return h.current.Load().(Rules)
}

func validateRules(rules Rules) error {
	if rules.Version == "" {
		return errors.New("scoring.version cannot be empty")
	}
	if rules.TrendEpsilon < 0 {
		return errors.New("scoring.trendEpsilon cannot be negative")
	}
	if rules.LeaderboardCacheTTL <= 0 {
		return errors.New("scoring.leaderboardCacheTTL must be positive")
	}
	return nil
}
