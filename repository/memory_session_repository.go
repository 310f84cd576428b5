package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Uz11ps/bototelgara/cart"
	"github.com/Uz11ps/bototelgara/models"
)

// MemorySessionRepository keeps guest sessions in process memory.
// It is used when no database is configured.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.GuestSession
}

// NewMemorySessionRepository creates an empty MemorySessionRepository
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]models.GuestSession)}
}

var _ SessionRepositoryInterface = (*MemorySessionRepository)(nil)

func (r *MemorySessionRepository) Save(_ context.Context, s *models.GuestSession) error {
	stored := *s
	stored.Lines = append([]cart.Line(nil), s.Lines...)

	r.mu.Lock()
	r.sessions[s.ID] = stored
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) (*models.GuestSession, error) {
	r.mu.RLock()
	stored, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	stored.Lines = append([]cart.Line(nil), stored.Lines...)
	return &stored, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) DeleteIdleSince(_ context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.UpdatedAt.Before(before) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}
