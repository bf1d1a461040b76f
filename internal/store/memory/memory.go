// Package memory implementa los repositorios de dominio en memoria.
// Pensado para desarrollo local y tests; no persiste entre reinicios.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/castward/castlink/internal/domain/repository"
)

type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*repository.Account // por id
	bySubject map[string]string              // subject → id
	risk      []repository.RiskRecord
}

func New() *Store {
	return &Store{
		accounts:  make(map[string]*repository.Account),
		bySubject: make(map[string]string),
	}
}

func cloneAccount(a *repository.Account) *repository.Account {
	cp := *a
	if a.Chat != nil {
		c := *a.Chat
		cp.Chat = &c
	}
	if a.Twitter != nil {
		c := *a.Twitter
		cp.Twitter = &c
	}
	if a.Discord != nil {
		c := *a.Discord
		cp.Discord = &c
	}
	return &cp
}

func (s *Store) GetByID(_ context.Context, id string) (*repository.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *Store) GetBySubject(_ context.Context, subject string) (*repository.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySubject[subject]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAccount(s.accounts[id]), nil
}

func (s *Store) UpsertBySubject(_ context.Context, subject string) (*repository.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.bySubject[subject]; ok {
		a := s.accounts[id]
		a.UpdatedAt = time.Now().UTC()
		return cloneAccount(a), false, nil
	}
	now := time.Now().UTC()
	a := &repository.Account{
		ID:        uuid.NewString(),
		Subject:   subject,
		Role:      "unverified",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[a.ID] = a
	s.bySubject[subject] = a.ID
	return cloneAccount(a), true, nil
}

func (s *Store) Link(_ context.Context, accountID string, kind repository.ProviderKind, li repository.LinkedIdentity) (*repository.Account, error) {
	if !repository.ValidKind(kind) {
		return nil, repository.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := li
	switch kind {
	case repository.KindChat:
		a.Chat = &cp
	case repository.KindTwitter:
		a.Twitter = &cp
	case repository.KindDiscord:
		a.Discord = &cp
	}
	a.UpdatedAt = time.Now().UTC()
	return cloneAccount(a), nil
}

func (s *Store) Unlink(_ context.Context, accountID string, kind repository.ProviderKind) error {
	if !repository.ValidKind(kind) {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	switch kind {
	case repository.KindChat:
		a.Chat = nil
	case repository.KindTwitter:
		a.Twitter = nil
	case repository.KindDiscord:
		a.Discord = nil
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) SetRole(_ context.Context, accountID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	a.Role = role
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) RoleOf(_ context.Context, accountID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return a.Role, nil
}

func (s *Store) Append(_ context.Context, rec *repository.RiskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.risk = append(s.risk, *rec)
	return nil
}

func (s *Store) ListByIdentity(_ context.Context, identity string, limit int) ([]repository.RiskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	var out []repository.RiskRecord
	for _, r := range s.risk {
		if r.Identity == identity {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
