// Package store provides the profile store backends (in-memory, Redis) and
// the pgvector document index used by the vector retrieval path.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/pkg/profile"
)

// MemoryStore keeps per-user profiles in process memory. One mutex covers
// every operation so Merge is a single read-modify-write critical section;
// concurrent merges for the same user never lose updates.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.ProfileRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.ProfileRecord),
	}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*models.ClientProfile, error) {
	if userID == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	p := profile.Clone(rec.Profile)
	return &p, nil
}

func (s *MemoryStore) Set(_ context.Context, userID string, p models.ClientProfile) error {
	if userID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[userID] = models.ProfileRecord{
		Profile:   profile.Clone(p),
		UpdatedAt: time.Now(),
	}
	return nil
}

func (s *MemoryStore) Merge(_ context.Context, userID string, incoming *models.ClientProfile) (models.ClientProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := profile.Empty()
	if userID != "" {
		if rec, ok := s.records[userID]; ok {
			existing = rec.Profile
		}
	}

	merged := profile.Merge(existing, incoming)
	if userID != "" {
		s.records[userID] = models.ProfileRecord{
			Profile:   profile.Clone(merged),
			UpdatedAt: time.Now(),
		}
	}
	return merged, nil
}
