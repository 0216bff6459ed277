package clock

import "time"

// FakeClock pins Now to a fixed instant so tests get stable recompute
// run stamps and snapshot computed_at values. Advance moves it forward
// between snapshot computes, which also keeps the
// (period, rules_version, computed_at) uniqueness satisfied.
type FakeClock struct {
	now time.Time
}

// NewFakeClock normalizes to UTC, matching how the engine stores every
// timestamp.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
