package cache

import "time"

// ThrottleOptions bounds how often codes may be issued to one identifier.
// A zero field disables that check.
type ThrottleOptions struct {
	MaxPerWindow int
	Window       time.Duration
	Cooldown     time.Duration
}

func (o ThrottleOptions) windowEnabled() bool {
	return o.MaxPerWindow > 0 && o.Window > 0
}
