package chat

import (
	"context"
	"sync"
)

// PresenceDirectory tracks which users have at least one live socket.
// A user can hold several connections (tabs, devices); Add and Remove
// report the transitions so the hub only broadcasts user_online on the
// first connection and user_offline on the last.
type PresenceDirectory interface {
	Add(ctx context.Context, userID, connID string) (first bool, err error)
	Remove(ctx context.Context, userID, connID string) (last bool, err error)
	Lookup(ctx context.Context, userID string) (bool, error)
	Snapshot(ctx context.Context) ([]string, error)
}

// MemoryPresence is the single-instance default.
type MemoryPresence struct {
	mu    sync.Mutex
	conns map[string]map[string]bool
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{conns: map[string]map[string]bool{}}
}

func (p *MemoryPresence) Add(ctx context.Context, userID, connID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.conns[userID]
	if !ok {
		set = map[string]bool{}
		p.conns[userID] = set
	}
	set[connID] = true
	return len(set) == 1, nil
}

func (p *MemoryPresence) Remove(ctx context.Context, userID, connID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.conns[userID]
	if !ok {
		return false, nil
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(p.conns, userID)
		return true, nil
	}
	return false, nil
}

func (p *MemoryPresence) Lookup(ctx context.Context, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.conns[userID]
	return ok, nil
}

func (p *MemoryPresence) Snapshot(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.conns))
	for userID := range p.conns {
		out = append(out, userID)
	}
	return out, nil
}
