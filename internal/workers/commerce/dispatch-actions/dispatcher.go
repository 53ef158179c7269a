package dispatchactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/common/observability"
	"commerce-workers/internal/models"
	simulatepayment "commerce-workers/internal/workers/commerce/simulate-payment"
	trackorder "commerce-workers/internal/workers/commerce/track-order"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrItemNotSelectable = errors.New("ITEM_NOT_SELECTABLE")

const (
	LabelBuy      = "Buy Now"
	LabelCheckout = "Proceed to Payment"

	notFoundNotice = "We couldn't find this order."
)

type OutcomeKind string

const (
	OutcomeOffer         OutcomeKind = "offer"
	OutcomeOrderFound    OutcomeKind = "order_found"
	OutcomeOrderNotFound OutcomeKind = "order_not_found"
)

// Outcome is how one classified item is surfaced to the conversation.
type Outcome struct {
	Kind     OutcomeKind     `json:"kind"`
	Item     models.ItemView `json:"item"`
	Label    string          `json:"label,omitempty"`
	ShopName string          `json:"shopName,omitempty"`
	OrderID  string          `json:"orderId,omitempty"`
	Order    *models.Order   `json:"order,omitempty"`
	Message  string          `json:"message,omitempty"`
}

type SelectionKind string

const (
	SelectionPayment  SelectionKind = "payment"
	SelectionTracking SelectionKind = "tracking"
)

// Selection is the result of acting on an item: either a completed payment
// or an opened tracking view.
type Selection struct {
	Kind     SelectionKind           `json:"kind"`
	Payment  *simulatepayment.Output `json:"payment,omitempty"`
	Tracking *trackorder.Result      `json:"tracking,omitempty"`
}

// Dispatcher routes classified items to the payment workflow or the
// tracking engine. Both tracking paths share trackorder.MatchOrderID.
type Dispatcher struct {
	tracker     *trackorder.Tracker
	payments    *simulatepayment.Service
	defaultShop string
	logger      logger.Logger
	tracer      trace.Tracer
	obs         *observability.Observability
}

// NewDispatcher builds a dispatcher. obs may be nil, in which case spans go
// to the global tracer provider and no stage metrics are recorded.
func NewDispatcher(tracker *trackorder.Tracker, payments *simulatepayment.Service, defaultShop string, log logger.Logger, obs *observability.Observability) *Dispatcher {
	d := &Dispatcher{
		tracker:     tracker,
		payments:    payments,
		defaultShop: defaultShop,
		logger:      log,
		obs:         obs,
	}
	if obs != nil {
		d.tracer = obs.Tracer()
	} else {
		d.tracer = otel.Tracer("commerce-workers/dispatch")
	}
	return d
}

// Present turns every item into a displayable outcome. Track requests are
// resolved immediately; a missing order is an outcome, not an error.
func (d *Dispatcher) Present(ctx context.Context, items []models.ActionItem) []Outcome {
	ctx, span := d.tracer.Start(ctx, "dispatch.present", trace.WithAttributes(attribute.Int("items", len(items))))
	defer span.End()
	started := time.Now()

	outcomes := make([]Outcome, 0, len(items))
	for _, item := range items {
		outcomes = append(outcomes, d.present(ctx, item))
	}

	d.recordStage(ctx, "present", "ok", started)
	return outcomes
}

func (d *Dispatcher) present(ctx context.Context, item models.ActionItem) Outcome {
	view := models.ViewOf(item)

	switch v := item.(type) {
	case models.ProductOffer:
		return Outcome{Kind: OutcomeOffer, Item: view, Label: LabelBuy, ShopName: v.Product.ShopOrDefault(d.defaultShop)}
	case models.CheckoutOffer:
		return Outcome{Kind: OutcomeOffer, Item: view, Label: LabelCheckout, ShopName: v.Product.ShopOrDefault(d.defaultShop)}
	case models.TrackRequest:
		result := d.tracker.Resolve(ctx, v.OrderID)
		if !result.Found {
			return Outcome{Kind: OutcomeOrderNotFound, Item: view, OrderID: v.OrderID, Message: notFoundNotice}
		}
		return Outcome{Kind: OutcomeOrderFound, Item: view, OrderID: result.Order.ID, Order: result.Order}
	}
	return Outcome{Item: view}
}

// Select acts on an item chosen by the user. Offers open a payment attempt
// with the item's product regardless of variant; track requests open the
// tracking view.
func (d *Dispatcher) Select(ctx context.Context, item models.ActionItem) (*Selection, error) {
	if item == nil {
		return nil, ErrItemNotSelectable
	}

	ctx, span := d.tracer.Start(ctx, "dispatch.select", trace.WithAttributes(attribute.String("variant", string(item.Variant()))))
	defer span.End()

	if product, ok := models.OfferedProduct(item); ok {
		started := time.Now()
		output, err := d.payments.Checkout(ctx, product)
		if err != nil {
			d.fail(ctx, span, "checkout", started, err)
			return nil, err
		}
		span.SetAttributes(attribute.String("order.id", output.Order.ID))
		d.recordStage(ctx, "checkout", "ok", started)
		return &Selection{Kind: SelectionPayment, Payment: output}, nil
	}

	track, ok := item.(models.TrackRequest)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrItemNotSelectable, item.Variant())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, err := d.openTracking(ctx, track.OrderID)
	if err != nil {
		return nil, err
	}
	return &Selection{Kind: SelectionTracking, Tracking: &result}, nil
}

// OpenTracking handles a free-standing "open tracker with this id" request.
func (d *Dispatcher) OpenTracking(ctx context.Context, orderID string) (trackorder.Result, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.open_tracking")
	defer span.End()
	return d.openTracking(ctx, orderID)
}

func (d *Dispatcher) openTracking(ctx context.Context, orderID string) (trackorder.Result, error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("order.query", orderID))
	started := time.Now()

	result, err := d.tracker.Lookup(ctx, orderID)
	if err != nil {
		d.fail(ctx, span, "tracking", started, err)
		return trackorder.Result{}, err
	}

	span.SetAttributes(attribute.Bool("order.found", result.Found))
	d.recordStage(ctx, "tracking", resultStatus(result), started)
	return result, nil
}

func (d *Dispatcher) fail(ctx context.Context, span trace.Span, stage string, started time.Time, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	d.recordStage(ctx, stage, "error", started)
	d.logger.Warn("dispatch failed", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

func (d *Dispatcher) recordStage(ctx context.Context, stage, status string, started time.Time) {
	if d.obs != nil {
		d.obs.RecordStage(ctx, stage, status, time.Since(started))
	}
}

func resultStatus(r trackorder.Result) string {
	if r.Found {
		return "found"
	}
	return "not_found"
}
