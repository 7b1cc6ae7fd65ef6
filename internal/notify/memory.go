package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemorySink is an in-process Sink. It backs tests and the no-bot run mode,
// where deliveries only surface through logs and lifecycle events.
type MemorySink struct {
	mu        sync.Mutex
	state     PermissionState
	delivered []Payload
}

// NewMemorySink creates a MemorySink with the given permission state.
func NewMemorySink(state PermissionState) *MemorySink {
	return &MemorySink{state: state}
}

func (s *MemorySink) RequestPermission(context.Context, uuid.UUID) (PermissionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == PermissionDefault {
		s.state = PermissionGranted
	}
	return s.state, nil
}

func (s *MemorySink) PermissionState(context.Context, uuid.UUID) PermissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetPermissionState overrides the permission state (tests).
func (s *MemorySink) SetPermissionState(state PermissionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *MemorySink) Deliver(_ context.Context, p Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, p)
	return nil
}

// Delivered returns a copy of everything delivered so far.
func (s *MemorySink) Delivered() []Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Payload, len(s.delivered))
	copy(out, s.delivered)
	return out
}
