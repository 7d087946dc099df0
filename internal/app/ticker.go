package app

import "time"

// The tick source runs in its own goroutine while the session is in
// progress. Stopping is two-layered: the stop channel ends the goroutine,
// and Tick itself refuses to count outside in_progress, so a tick already
// queued when the session pauses or submits cannot leak into the attempt.

func (s *Session) startTickerLocked() {
	if s.tickStop != nil {
		return
	}
	stop := make(chan struct{})
	s.tickStop = stop
	interval := s.tickInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Tick()
			case <-stop:
				return
			}
		}
	}()
}

func (s *Session) stopTickerLocked() {
	if s.tickStop == nil {
		return
	}
	close(s.tickStop)
	s.tickStop = nil
}

// SetTickInterval overrides the one-second default. Only effective before
// the ticker starts; used by tests to speed up the clock.
func (s *Session) SetTickInterval(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if interval > 0 {
		s.tickInterval = interval
	}
}
