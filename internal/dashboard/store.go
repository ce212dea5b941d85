package dashboard

import (
	"sync"

	"TradeSentinel/internal/model"
)

// Store holds the latest cycle report for readers. Reports are treated as immutable
// once published.
type Store struct {
	mu     sync.RWMutex
	report *model.CycleReport
	hub    *Hub
}

func NewStore(hub *Hub) *Store {
	return &Store{hub: hub}
}

// Publish replaces the latest report and pushes it to websocket clients.
func (s *Store) Publish(report *model.CycleReport) {
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
	if s.hub != nil {
		s.hub.Broadcast(Message{Type: "cycle_report", Data: report})
	}
}

// Latest returns the latest report or nil.
func (s *Store) Latest() *model.CycleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}
