package memory

import (
	"PIVOT-Backend/internal/domain"
	"PIVOT-Backend/internal/repository"
	"context"
	"sync"
	"time"
)

// MemStorage is an in-memory repository.Storage used by unit tests and
// local runs without a database.
type MemStorage struct {
	mu          sync.RWMutex
	links       map[string]*domain.Link
	linkCounter int64
}

func New() *MemStorage {
	return &MemStorage{
		links: make(map[string]*domain.Link),
	}
}

func (s *MemStorage) SaveLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[link.Code]; exists {
		return repository.ErrCodeExists
	}

	s.linkCounter++
	link.ID = s.linkCounter
	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now

	stored := *link
	s.links[link.Code] = &stored
	return nil
}

func (s *MemStorage) GetLink(_ context.Context, code string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[code]
	if !ok {
		return nil, repository.ErrCodeNotFound
	}

	copied := *link
	return &copied, nil
}

func (s *MemStorage) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.links[code]
	return ok, nil
}

func (s *MemStorage) FindLinkAndCountClick(_ context.Context, code string) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[code]
	if !ok {
		return nil, repository.ErrCodeNotFound
	}

	link.Clicks++

	// Return a copy so callers never observe later increments.
	copied := *link
	return &copied, nil
}

func (s *MemStorage) DeactivateLink(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[code]
	if !ok {
		return repository.ErrCodeNotFound
	}

	link.IsActive = false
	link.UpdatedAt = time.Now()
	return nil
}
