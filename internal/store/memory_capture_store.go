package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sailendrachettri/polarize/internal/domain"
)

var ErrCaptureNotFound = errors.New("capture not found")

// MemoryCaptureStore keeps captures in process memory. It backs local
// development and tests; production runs use Postgres.
type MemoryCaptureStore struct {
	mu       sync.RWMutex
	captures map[string]domain.Capture
	usage    []domain.UsageLog
}

func NewMemoryCaptureStore() *MemoryCaptureStore {
	return &MemoryCaptureStore{
		captures: make(map[string]domain.Capture),
	}
}

func (s *MemoryCaptureStore) Create(_ context.Context, capture domain.Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captures[capture.ID] = capture
	return nil
}

func (s *MemoryCaptureStore) Get(_ context.Context, id string) (domain.Capture, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	capture, ok := s.captures[id]
	return capture, ok, nil
}

func (s *MemoryCaptureStore) UpdateStatus(_ context.Context, id, status string) (domain.Capture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	capture, ok := s.captures[id]
	if !ok {
		return domain.Capture{}, ErrCaptureNotFound
	}

	capture.Status = status
	capture.UpdatedAt = time.Now().UTC()
	s.captures[id] = capture
	return capture, nil
}

func (s *MemoryCaptureStore) CreateUsageLog(_ context.Context, usage domain.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = append(s.usage, usage)
	return nil
}

// UsageLogs returns a copy of the recorded usage, for tests.
func (s *MemoryCaptureStore) UsageLogs() []domain.UsageLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UsageLog, len(s.usage))
	copy(out, s.usage)
	return out
}
