package lounge

import (
	"sync"
	"time"
)

// graceScheduler runs one delayed offline transition per user id. A rejoin
// within the window cancels the pending timer outright; the transition
// itself still re-checks the registry when it fires, so a firing that races
// a reconnect stays a no-op.
type graceScheduler struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
}

func newGraceScheduler(delay time.Duration) *graceScheduler {
	return &graceScheduler{delay: delay, timers: make(map[string]*time.Timer)}
}

// schedule arms the grace timer for the user, replacing any pending one.
func (s *graceScheduler) schedule(userID string, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pending, ok := s.timers[userID]; ok {
		pending.Stop()
	}
	s.timers[userID] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.timers, userID)
		s.mu.Unlock()
		fire()
	})
}

// cancel stops the pending timer for the user, if any.
func (s *graceScheduler) cancel(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pending, ok := s.timers[userID]; ok {
		pending.Stop()
		delete(s.timers, userID)
	}
}

// stopAll stops every pending timer. Used on shutdown.
func (s *graceScheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, pending := range s.timers {
		pending.Stop()
		delete(s.timers, id)
	}
}
