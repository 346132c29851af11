package simcore

// WorldClock tracks a day number and a position within the current day,
// from which the day/night flag and the day's phase fraction are
// derived.
type WorldClock struct {
	Day              int
	TimeInDay        float64
	DayDuration      float64
	DayPhaseFraction float64
}

// NewWorldClock creates a clock starting on day 1 at time_in_day 0.
func NewWorldClock(cfg Config) *WorldClock {
	dayDuration := cfg.DayDuration
	if dayDuration <= 0 {
		dayDuration = 1
	}
	return &WorldClock{
		Day:              1,
		DayDuration:      dayDuration,
		DayPhaseFraction: cfg.DayPhaseFraction,
	}
}

// Advance steps the clock by dt, rolling over into the next day (and
// reporting true) as many times as dt spans.
func (c *WorldClock) Advance(dt float64) bool {
	c.TimeInDay += dt
	rolled := false
	for c.TimeInDay >= c.DayDuration {
		c.TimeInDay -= c.DayDuration
		c.Day++
		rolled = true
	}
	return rolled
}

// DayPhaseElapsed returns how far through the day [0,1) the clock is.
func (c *WorldClock) DayPhaseElapsed() float64 {
	return c.TimeInDay / c.DayDuration
}

// IsDay reports whether the clock is within the day portion of the
// day/night cycle, per DayPhaseFraction.
func (c *WorldClock) IsDay() bool {
	return c.DayPhaseElapsed() < c.DayPhaseFraction
}
