package engine

// Clock numbers triggers.
//
// Trigger indices are 1-based: the first Press is trigger 1, and a
// period recorded on trigger p means "the p-th press". A fresh clock reads
// 0, meaning no trigger has run.
//
// Clock is not safe for concurrent use; only the simulator advances it.
type Clock struct {
	trigger int64
}

// NewClock creates a clock that has not ticked.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose last completed trigger is start.
// The next call to Next returns start+1.
func NewClockAt(start int64) *Clock {
	return &Clock{trigger: start}
}

// Next advances to and returns the next trigger index.
func (c *Clock) Next() int64 {
	c.trigger++
	return c.trigger
}

// Current returns the most recent trigger index, or 0 before the first.
func (c *Clock) Current() int64 {
	return c.trigger
}

// Reset rewinds the clock to 0.
func (c *Clock) Reset() {
	c.trigger = 0
}
