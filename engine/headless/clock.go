package headless

import "time"

// Clock 基于墙上时间的时钟，now 可替换以便测试
type Clock struct {
	now   func() time.Time
	start time.Time
	last  time.Time
}

// NewClock 创建时钟
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Clock{now: now, start: t, last: t}
}

func (c *Clock) Delta() float64 {
	t := c.now()
	d := t.Sub(c.last).Seconds()
	c.last = t
	return d
}

func (c *Clock) Elapsed() float64 {
	return c.now().Sub(c.start).Seconds()
}
