// file: repository/memory.go

package repository

import (
	"context"
	"sync"
	"time"

	"noxa-api/model"
)

type memoryRecord struct {
	mu        sync.Mutex
	principal model.Principal
	subs      []model.PushSubscription
}

// MemoryStore keeps principals in process memory. The map is guarded by one RWMutex while
// every principal carries its own mutex, so writes for different principals never contend.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]*memoryRecord
	byEmail    map[string]string
	byUsername map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*memoryRecord),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (s *MemoryStore) record(id string) (*memoryRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	return rec, ok
}

func (s *MemoryStore) Create(_ context.Context, principal *model.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[principal.ID]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byEmail[principal.Email]; ok {
		return ErrDuplicate
	}
	if _, ok := s.byUsername[principal.Username]; ok {
		return ErrDuplicate
	}

	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = time.Now().UTC()
	}
	rec := &memoryRecord{principal: clonePrincipal(*principal)}
	s.byID[principal.ID] = rec
	s.byEmail[principal.Email] = principal.ID
	s.byUsername[principal.Username] = principal.ID
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*model.Principal, error) {
	rec, ok := s.record(id)
	if !ok {
		return nil, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	p := clonePrincipal(rec.principal)
	return &p, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*model.Principal, error) {
	s.mu.RLock()
	id, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *MemoryStore) GetByRefreshTokenHash(_ context.Context, tokenHash string) (*model.Principal, error) {
	if tokenHash == "" {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	records := make([]*memoryRecord, 0, len(s.byID))
	for _, rec := range s.byID {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	for _, rec := range records {
		rec.mu.Lock()
		if rec.principal.RefreshSession != nil && rec.principal.RefreshSession.TokenHash == tokenHash {
			p := clonePrincipal(rec.principal)
			rec.mu.Unlock()
			return &p, nil
		}
		rec.mu.Unlock()
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetRefreshSession(_ context.Context, principalID string, session *model.RefreshSession) error {
	rec, ok := s.record(principalID)
	if !ok {
		return ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.principal.RefreshSession = cloneSession(session)
	return nil
}

func (s *MemoryStore) CompareAndSwapRefreshSession(_ context.Context, principalID, expectedHash string, next *model.RefreshSession) (bool, error) {
	rec, ok := s.record(principalID)
	if !ok {
		return false, nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	current := rec.principal.RefreshSession
	if current == nil || expectedHash == "" || current.TokenHash != expectedHash {
		return false, nil
	}
	rec.principal.RefreshSession = cloneSession(next)
	return true, nil
}

func (s *MemoryStore) UpsertPushSubscription(_ context.Context, principalID string, sub model.PushSubscription) error {
	rec, ok := s.record(principalID)
	if !ok {
		return ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	sub = cloneSubscription(sub)
	for i := range rec.subs {
		if rec.subs[i].Endpoint == sub.Endpoint {
			rec.subs[i] = sub
			return nil
		}
	}
	rec.subs = append(rec.subs, sub)
	return nil
}

func (s *MemoryStore) ListPushSubscriptions(_ context.Context, principalID string) ([]model.PushSubscription, error) {
	rec, ok := s.record(principalID)
	if !ok {
		return nil, nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	out := make([]model.PushSubscription, 0, len(rec.subs))
	for _, sub := range rec.subs {
		out = append(out, cloneSubscription(sub))
	}
	return out, nil
}

func (s *MemoryStore) DeletePushSubscriptions(_ context.Context, principalID string, endpoints []string) (int64, error) {
	rec, ok := s.record(principalID)
	if !ok {
		return 0, nil
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if endpoints == nil {
		n := int64(len(rec.subs))
		rec.subs = nil
		return n, nil
	}

	drop := make(map[string]struct{}, len(endpoints))
	for _, e := range endpoints {
		drop[e] = struct{}{}
	}
	kept := rec.subs[:0]
	var removed int64
	for _, sub := range rec.subs {
		if _, ok := drop[sub.Endpoint]; ok {
			removed++
			continue
		}
		kept = append(kept, sub)
	}
	rec.subs = kept
	return removed, nil
}

func clonePrincipal(p model.Principal) model.Principal {
	p.RefreshSession = cloneSession(p.RefreshSession)
	return p
}

func cloneSession(s *model.RefreshSession) *model.RefreshSession {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func cloneSubscription(sub model.PushSubscription) model.PushSubscription {
	if sub.ExpirationTime != nil {
		v := *sub.ExpirationTime
		sub.ExpirationTime = &v
	}
	return sub
}
