package subscription

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu            sync.Mutex
	organizations map[string]Organization
	subscriptions map[string]Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		organizations: map[string]Organization{},
		subscriptions: map[string]Subscription{},
	}
}

func (m *MemoryStore) CreateRequest(ctx context.Context, org Organization, sub Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organizations[org.ID] = org
	m.subscriptions[sub.ID] = sub
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscriptions[id]
	if !ok {
		return Subscription{}, newError(ErrNotFound, id, "")
	}
	return sub, nil
}

func (m *MemoryStore) GetOrganization(ctx context.Context, id string) (Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.organizations[id]
	if !ok {
		return Organization{}, newError(ErrNotFound, id, "organization")
	}
	return org, nil
}

func (m *MemoryStore) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Subscription{}
	for _, sub := range m.subscriptions {
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		if filter.Tier != "" && sub.Tier != filter.Tier {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	if offset >= len(out) {
		return []Subscription{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListDue(ctx context.Context, now time.Time) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Subscription{}
	for _, sub := range m.subscriptions {
		if sub.Status == StatusActive && sub.EndDate != nil && now.After(*sub.EndDate) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, sub Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[sub.ID]; !ok {
		return newError(ErrNotFound, sub.ID, "")
	}
	m.subscriptions[sub.ID] = sub
	return nil
}

func (m *MemoryStore) MarkExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscriptions[id]
	if !ok {
		return false, newError(ErrNotFound, id, "")
	}
	if sub.Status != StatusActive || sub.EndDate == nil || !now.After(*sub.EndDate) {
		return false, nil
	}
	sub.Status = StatusExpired
	sub.UpdatedAt = now
	m.subscriptions[id] = sub
	return true, nil
}
