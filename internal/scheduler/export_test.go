package scheduler

import "time"

// SetTickerForTests replaces the ticker with a caller-driven channel.
func (s *Scheduler) SetTickerForTests(ch <-chan time.Time) {
	s.newTicker = func(time.Duration) (<-chan time.Time, func()) { return ch, func() {} }
}
