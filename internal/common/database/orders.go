package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"commerce-workers/internal/models"
)

var (
	ErrDuplicateOrderID = errors.New("DUPLICATE_ORDER_ID")
	ErrStoreClosed      = errors.New("ORDER_STORE_CLOSED")
)

// OrderStore holds the orders of one running session, newest first.
// Nothing is persisted; the store lives from session start until Close.
type OrderStore struct {
	mu     sync.RWMutex
	orders []models.Order
	closed bool
}

func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

// Prepend inserts order at the front. The duplicate check and the insert
// happen under one lock; ids are compared case-insensitively, the same rule
// tracking uses.
func (s *OrderStore) Prepend(order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	for _, o := range s.orders {
		if strings.EqualFold(o.ID, order.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateOrderID, order.ID)
		}
	}

	s.orders = append([]models.Order{order}, s.orders...)
	return nil
}

// Snapshot returns a copy of the orders, newest first.
func (s *OrderStore) Snapshot() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// First returns the newest order accepted by match. The read lock is held
// only for the scan.
func (s *OrderStore) First(match func(models.Order) bool) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if match(o) {
			return o, true
		}
	}
	return models.Order{}, false
}

func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Close ends the session. Later writes fail; reads see an empty store.
func (s *OrderStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.orders = nil
}

// Ping reports whether the store still accepts orders.
func (s *OrderStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Orders returns the store itself, so a single OrderStore serves as the
// OrderSource of a one-session process.
func (s *OrderStore) Orders(context.Context) *OrderStore {
	return s
}
