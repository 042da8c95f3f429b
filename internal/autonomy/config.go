package autonomy

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownAggression is returned by ParseAggression.
var ErrUnknownAggression = errors.New("autonomy: unknown aggression")

// Aggression 拉怪積極度
type Aggression uint8

const (
	Passive Aggression = iota
	Conservative
	Normal
	Aggressive
	Reckless
)

var aggressionNames = [...]string{"passive", "conservative", "normal", "aggressive", "reckless"}

func (a Aggression) String() string {
	if int(a) < len(aggressionNames) {
		return aggressionNames[a]
	}
	return fmt.Sprintf("aggression(%d)", uint8(a))
}

// ParseAggression accepts the lower-case tier names, ignoring case and
// surrounding space.
func ParseAggression(s string) (Aggression, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range aggressionNames {
		if n == s {
			return Aggression(i), nil
		}
	}
	return Normal, fmt.Errorf("%w: %q", ErrUnknownAggression, s)
}

// Config holds the pull thresholds of one group.
type Config struct {
	Aggression Aggression

	// AutoPull lets the tank pull on its own. Passive groups only follow and
	// defend.
	AutoPull        bool
	MinHealthToPull float64 // average group health fraction
	MinManaToPull   float64 // lowest healer power fraction
	RecoveryTime    time.Duration
	MaxPullSize     int // 0 = unlimited
	ChainPull       bool

	MaxMemberDistance  float32
	WaitForSlowMembers bool

	AutoMark    bool // skull on the pack leader, cross on the next mob
	RespectCC   bool // never pull or target crowd-controlled mobs
	PullTimeout time.Duration
}

// Preset returns the thresholds of one aggression tier.
func Preset(a Aggression) Config {
	c := Config{
		Aggression:         a,
		AutoPull:           true,
		MaxMemberDistance:  30,
		WaitForSlowMembers: true,
		AutoMark:           true,
		RespectCC:          true,
		PullTimeout:        15 * time.Second,
	}
	switch a {
	case Passive:
		c.AutoPull = false
		c.MinHealthToPull, c.MinManaToPull = 1, 1
		c.RecoveryTime = 10 * time.Second
		c.MaxPullSize = 1
	case Conservative:
		c.MinHealthToPull, c.MinManaToPull = 0.9, 0.8
		c.RecoveryTime = 6 * time.Second
		c.MaxPullSize = 3
		c.MaxMemberDistance = 25
	case Aggressive:
		c.MinHealthToPull, c.MinManaToPull = 0.6, 0.4
		c.RecoveryTime = 1500 * time.Millisecond
		c.MaxPullSize = 6
		c.ChainPull = true
		c.MaxMemberDistance = 40
	case Reckless:
		c.MinHealthToPull, c.MinManaToPull = 0.35, 0.2
		c.MaxPullSize = 0
		c.ChainPull = true
		c.MaxMemberDistance = 60
		c.WaitForSlowMembers = false
		c.RespectCC = false
		c.PullTimeout = 25 * time.Second
	default:
		c.Aggression = Normal
		c.MinHealthToPull, c.MinManaToPull = 0.8, 0.6
		c.RecoveryTime = 3 * time.Second
		c.MaxPullSize = 4
	}
	return c
}

// DefaultConfig is the Normal preset.
func DefaultConfig() Config { return Preset(Normal) }

// withAggression re-applies the preset of a while keeping the switches a
// player set by hand.
func (c Config) withAggression(a Aggression) Config {
	n := Preset(a)
	n.AutoMark = c.AutoMark
	return n
}
