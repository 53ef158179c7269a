package simulatepayment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"commerce-workers/internal/common/database"
	"commerce-workers/internal/common/metrics"
	"commerce-workers/internal/models"

	"github.com/google/uuid"
)

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
)

var (
	ErrPaymentInProgress = errors.New("PAYMENT_IN_PROGRESS")
	ErrPaymentCompleted  = errors.New("PAYMENT_ALREADY_COMPLETED")
	ErrPaymentCancelled  = errors.New("PAYMENT_CANCELLED")
	ErrOrderIDExhausted  = errors.New("ORDER_ID_EXHAUSTED")
)

// RandomOrderID returns "ORD-" followed by a number in [1000, 9999].
func RandomOrderID() string {
	return fmt.Sprintf("ORD-%d", 1000+rand.IntN(9000))
}

type Settings struct {
	ProcessingDelay time.Duration
	MaxIDAttempts   int
	NewOrderID      func() string
	Now             func() time.Time
	// OnTransition is called after every state change, outside the lock.
	OnTransition func(attemptID string, from, to State)
}

func (s Settings) withDefaults() Settings {
	if s.MaxIDAttempts < 1 {
		s.MaxIDAttempts = 1
	}
	if s.NewOrderID == nil {
		s.NewOrderID = RandomOrderID
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

// Workflow is one checkout attempt: idle, then processing for the configured
// delay, then completed with the created order. Cancelling the context while
// processing discards the attempt and returns it to idle without touching
// the store.
type Workflow struct {
	mu        sync.Mutex
	state     State
	order     *models.Order
	attemptID string
	store     *database.OrderStore
	settings  Settings
}

func NewWorkflow(store *database.OrderStore, settings Settings) *Workflow {
	return &Workflow{
		state:     StateIdle,
		attemptID: uuid.New().String(),
		store:     store,
		settings:  settings.withDefaults(),
	}
}

func (w *Workflow) AttemptID() string {
	return w.attemptID
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Order returns the created order once the workflow is completed.
func (w *Workflow) Order() (models.Order, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.order == nil {
		return models.Order{}, false
	}
	return *w.order, true
}

// Submit pays for product. It is accepted only in the idle state.
func (w *Workflow) Submit(ctx context.Context, product models.ProductRef) (models.Order, error) {
	if err := w.begin(); err != nil {
		metrics.Payments.WithLabelValues("rejected").Inc()
		return models.Order{}, err
	}

	if err := w.wait(ctx); err != nil {
		w.transition(StateIdle, nil)
		metrics.Payments.WithLabelValues("cancelled").Inc()
		return models.Order{}, fmt.Errorf("%w: %v", ErrPaymentCancelled, err)
	}

	order, err := w.placeOrder(product)
	if err != nil {
		w.transition(StateIdle, nil)
		metrics.Payments.WithLabelValues("failed").Inc()
		return models.Order{}, err
	}

	w.transition(StateCompleted, &order)
	metrics.Payments.WithLabelValues("completed").Inc()
	return order, nil
}

func (w *Workflow) begin() error {
	w.mu.Lock()
	switch w.state {
	case StateProcessing:
		w.mu.Unlock()
		return ErrPaymentInProgress
	case StateCompleted:
		w.mu.Unlock()
		return ErrPaymentCompleted
	}
	w.state = StateProcessing
	w.mu.Unlock()

	w.notify(StateIdle, StateProcessing)
	return nil
}

func (w *Workflow) wait(ctx context.Context) error {
	if delay := w.settings.ProcessingDelay; delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	// a dismissal racing the timer still wins
	return ctx.Err()
}

func (w *Workflow) placeOrder(product models.ProductRef) (models.Order, error) {
	for attempt := 1; attempt <= w.settings.MaxIDAttempts; attempt++ {
		order := models.Order{
			ID:        w.settings.NewOrderID(),
			Item:      product,
			CreatedAt: w.settings.Now().UTC(),
			Status:    models.StatusPreparingForShipment,
		}

		err := w.store.Prepend(order)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, database.ErrDuplicateOrderID) {
			return models.Order{}, err
		}
		metrics.OrderIDCollisions.Inc()
	}

	return models.Order{}, fmt.Errorf("%w: %d attempts", ErrOrderIDExhausted, w.settings.MaxIDAttempts)
}

func (w *Workflow) transition(to State, order *models.Order) {
	w.mu.Lock()
	from := w.state
	w.state = to
	w.order = order
	w.mu.Unlock()

	w.notify(from, to)
}

func (w *Workflow) notify(from, to State) {
	if w.settings.OnTransition != nil {
		w.settings.OnTransition(w.attemptID, from, to)
	}
}
