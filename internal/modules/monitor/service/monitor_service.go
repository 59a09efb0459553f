package service

import (
	"sync"

	"callrec/internal/modules/monitor/domain"
)

// MonitorService owns one Tracker. Push sources may deliver concurrently, so
// observations are serialized.
type MonitorService struct {
	mu      sync.Mutex
	tracker *domain.Tracker
}

func NewMonitorService() *MonitorService {
	return &MonitorService{tracker: domain.NewTracker()}
}

// Apply observes a raw state and runs effect with the resulting transition
// while still holding the lock, so a stop can never overtake its start.
// It reports false for unrecognized states, which leave the machine as is.
func (s *MonitorService) Apply(raw, number string, effect func(domain.Transition)) bool {
	state, ok := domain.ParseRawState(raw)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tr := s.tracker.Observe(state, number)
	if effect != nil {
		effect(tr)
	}
	return true
}

func (s *MonitorService) Last() domain.CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Last()
}
