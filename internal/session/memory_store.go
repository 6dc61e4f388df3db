package session

import (
	"context"
	"sync"
	"time"

	"github.com/shopfront-dev/storefront/internal/domain"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a
// restart and are not shared between instances.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]domain.Session
	byAccount map[string]map[string]struct{}
	now       func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]domain.Session),
		byAccount: make(map[string]map[string]struct{}),
		now:       time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.now().Before(session.ExpiresAt) {
		s.mu.Lock()
		s.removeLocked(token)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *MemoryStore) Put(_ context.Context, session *domain.Session, ttl time.Duration) error {
	stored := *session
	stored.ExpiresAt = s.now().Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[stored.Token] = stored
	tokens, ok := s.byAccount[stored.AccountID]
	if !ok {
		tokens = make(map[string]struct{})
		s.byAccount[stored.AccountID] = tokens
	}
	tokens[stored.Token] = struct{}{}
	session.ExpiresAt = stored.ExpiresAt
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, session *domain.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[session.Token]
	if !ok || !s.now().Before(current.ExpiresAt) {
		s.removeLocked(session.Token)
		return ErrSessionNotFound
	}
	stored := *session
	stored.AccountID = current.AccountID
	stored.ExpiresAt = s.now().Add(ttl)
	s.sessions[stored.Token] = stored
	session.ExpiresAt = stored.ExpiresAt
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(token)
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok || !s.now().Before(session.ExpiresAt) {
		s.removeLocked(token)
		return ErrSessionNotFound
	}
	session.ExpiresAt = s.now().Add(ttl)
	s.sessions[token] = session
	return nil
}

func (s *MemoryStore) DeleteByAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token := range s.byAccount[accountID] {
		delete(s.sessions, token)
	}
	delete(s.byAccount, accountID)
	return nil
}

func (s *MemoryStore) removeLocked(token string) {
	session, ok := s.sessions[token]
	if !ok {
		return
	}
	delete(s.sessions, token)
	if tokens, ok := s.byAccount[session.AccountID]; ok {
		delete(tokens, token)
		if len(tokens) == 0 {
			delete(s.byAccount, session.AccountID)
		}
	}
}
