package locations

import (
	"context"
	"sync"

	"scholarmap/pkg/models"
)

// Store holds the location rows in memory. They are read once at startup
// and again only after an admin write.
type Store struct {
	repo *Repo

	mu   sync.RWMutex
	rows []models.Location
}

func NewStore(repo *Repo) *Store {
	return &Store{repo: repo}
}

// Reload replaces the in-memory rows with the table's current contents.
func (s *Store) Reload(ctx context.Context) error {
	rows, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
	return nil
}

// Snapshot returns the current rows. Callers must not modify them.
func (s *Store) Snapshot() []models.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *Store) Get(name string) (models.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.rows {
		if l.Name == name {
			return l, true
		}
	}
	return models.Location{}, false
}
