package trackorder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"commerce-workers/internal/common/database"
	"commerce-workers/internal/common/metrics"
	"commerce-workers/internal/models"
)

var (
	ErrTrackingIDRequired = errors.New("TRACKING_ID_REQUIRED")
	ErrTrackingCancelled  = errors.New("TRACKING_CANCELLED")
)

// Result is the outcome of a lookup. A missing order is a result, not an error.
type Result struct {
	OrderID string        `json:"orderId"`
	Found   bool          `json:"found"`
	Order   *models.Order `json:"order,omitempty"`
	Message string        `json:"message,omitempty"`
}

// MatchOrderID reports whether query names order. The query is trimmed and
// compared case-insensitively; the stored id is used as is.
func MatchOrderID(order models.Order, query string) bool {
	return strings.EqualFold(order.ID, strings.TrimSpace(query))
}

// Tracker answers order status queries against the order store of the
// session carried by the context.
type Tracker struct {
	orders  database.OrderSource
	latency time.Duration
}

func NewTracker(orders database.OrderSource, latency time.Duration) *Tracker {
	return &Tracker{orders: orders, latency: latency}
}

// Resolve looks an order up immediately. It backs track requests that
// arrive inside an assistant payload. Blank ids resolve as not found.
func (t *Tracker) Resolve(ctx context.Context, orderID string) Result {
	result := t.find(ctx, orderID)
	metrics.TrackingLookups.WithLabelValues("resolve", resultLabel(result)).Inc()
	return result
}

// Lookup is the interactive tracking query. Blank ids are rejected before
// any wait; otherwise it waits the configured latency and then scans the
// store newest first.
func (t *Tracker) Lookup(ctx context.Context, orderID string) (Result, error) {
	if strings.TrimSpace(orderID) == "" {
		return Result{}, ErrTrackingIDRequired
	}

	if t.latency > 0 {
		timer := time.NewTimer(t.latency)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return Result{}, fmt.Errorf("%w: %v", ErrTrackingCancelled, ctx.Err())
		}
	}

	result := t.find(ctx, orderID)
	metrics.TrackingLookups.WithLabelValues("lookup", resultLabel(result)).Inc()
	return result, nil
}

func (t *Tracker) find(ctx context.Context, orderID string) Result {
	order, ok := t.orders.Orders(ctx).First(func(o models.Order) bool {
		return MatchOrderID(o, orderID)
	})
	if !ok {
		return Result{
			OrderID: orderID,
			Message: fmt.Sprintf("Order #%s not found. Please check your ID.", orderID),
		}
	}
	return Result{OrderID: orderID, Found: true, Order: &order}
}

func resultLabel(r Result) string {
	if r.Found {
		return "found"
	}
	return "not_found"
}
