package database

import (
	"context"
	"strings"
	"sync"
)

const DefaultSessionID = "default"

type sessionKey struct{}

// WithSession tags ctx with the session whose orders it may read and write.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session set by WithSession, or
// DefaultSessionID.
func SessionFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey{}).(string); ok && strings.TrimSpace(id) != "" {
		return id
	}
	return DefaultSessionID
}

// OrderSource resolves the order store serving a request.
type OrderSource interface {
	Orders(ctx context.Context) *OrderStore
}

// OrderStores keeps one OrderStore per session. A session's store is
// created on first use and closed by Release.
type OrderStores struct {
	mu       sync.Mutex
	sessions map[string]*OrderStore
	closed   bool
}

func NewOrderStores() *OrderStores {
	return &OrderStores{sessions: make(map[string]*OrderStore)}
}

// Orders returns the store of the session carried by ctx.
func (r *OrderStores) Orders(ctx context.Context) *OrderStore {
	return r.Session(SessionFromContext(ctx))
}

// Session returns the store of sessionID, creating it if needed. After
// Close every session gets a closed store.
func (r *OrderStores) Session(sessionID string) *OrderStore {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		store := NewOrderStore()
		store.Close()
		return store
	}

	store, ok := r.sessions[sessionID]
	if !ok {
		store = NewOrderStore()
		r.sessions[sessionID] = store
	}
	return store
}

// Release ends sessionID: its store is closed and forgotten. It reports
// whether the session had a store.
func (r *OrderStores) Release(sessionID string) bool {
	r.mu.Lock()
	store, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if ok {
		store.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (r *OrderStores) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close ends every session.
func (r *OrderStores) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*OrderStore)
	r.closed = true
	r.mu.Unlock()

	for _, store := range sessions {
		store.Close()
	}
}

func (r *OrderStores) Ping(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrStoreClosed
	}
	return nil
}
