package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type entry struct {
	memberID  int64
	expiresAt time.Time
}

// MemoryStore keeps sessions in a map guarded by a mutex. Expired entries
// are rejected on lookup and removed in bulk by a cron job, so memory does
// not grow with abandoned sessions.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time

	cron   *cron.Cron
	logger *slog.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store and starts its sweeper, which runs on the
// given cron spec (for example "@every 1m"). Call Close to stop it.
func NewMemoryStore(ttl time.Duration, sweepSpec string, logger *slog.Logger) (*MemoryStore, error) {
	s := newMemoryStore(ttl, time.Now, logger)

	c := cron.New()
	if _, err := c.AddFunc(sweepSpec, s.sweep); err != nil {
		return nil, err
	}
	c.Start()
	s.cron = c

	return s, nil
}

// newMemoryStore builds a store without a sweeper and with an injectable
// clock. Tests drive sweep directly.
func newMemoryStore(ttl time.Duration, now func() time.Time, logger *slog.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      now,
		logger:   logger,
	}
}

func (s *MemoryStore) Create(_ context.Context, memberID int64) (string, error) {
	id := newID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = entry{memberID: memberID, expiresAt: s.now().Add(s.ttl)}
	return id, nil
}

func (s *MemoryStore) MemberID(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return 0, ErrNotFound
	}

	now := s.now()
	if !now.Before(e.expiresAt) {
		delete(s.sessions, id)
		return 0, ErrNotFound
	}

	e.expiresAt = now.Add(s.ttl)
	s.sessions[id] = e
	return e.memberID, nil
}

// Delete reports false for an unknown or already expired session.
func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	delete(s.sessions, id)
	return s.now().Before(e.expiresAt), nil
}

func (s *MemoryStore) DeleteByMember(_ context.Context, memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		if e.memberID == memberID {
			delete(s.sessions, id)
		}
	}
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("expired sessions swept", slog.Int("removed", removed))
	}
}

// Close stops the sweeper and waits for a running sweep to finish.
func (s *MemoryStore) Close() error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	return nil
}
