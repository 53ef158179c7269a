package simulatepayment

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"commerce-workers/internal/common/database"
	"commerce-workers/internal/common/logger"
	"commerce-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var orderIDPattern = regexp.MustCompile(`^ORD-\d{4}$`)

func rose() models.ProductRef {
	return models.ProductRef{Name: "Rose", Image: "rose.png", Price: models.NumericPrice(10), ShopName: "Bloom"}
}

func sequenceIDs(ids ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[i%len(ids)]
		i++
		return id
	}
}

type transitionLog struct {
	mu    sync.Mutex
	steps []State
}

func (l *transitionLog) record(_ string, _, to State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, to)
}

func (l *transitionLog) all() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.steps...)
}

func TestRandomOrderID(t *testing.T) {
	for i := 0; i < 500; i++ {
		assert.Regexp(t, orderIDPattern, RandomOrderID())
	}
}

func TestWorkflow_Submit_Completes(t *testing.T) {
	store := database.NewOrderStore()
	log := &transitionLog{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	wf := NewWorkflow(store, Settings{
		ProcessingDelay: 5 * time.Millisecond,
		MaxIDAttempts:   5,
		Now:             func() time.Time { return fixed },
		OnTransition:    log.record,
	})
	assert.Equal(t, StateIdle, wf.State())

	order, err := wf.Submit(context.Background(), rose())
	require.NoError(t, err)

	assert.Regexp(t, orderIDPattern, order.ID)
	assert.Equal(t, rose(), order.Item)
	assert.Equal(t, models.StatusPreparingForShipment, order.Status)
	assert.Equal(t, fixed, order.CreatedAt)

	assert.Equal(t, StateCompleted, wf.State())
	stored, ok := wf.Order()
	require.True(t, ok)
	assert.Equal(t, order, stored)

	snap := store.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, order, snap[0])

	assert.Equal(t, []State{StateProcessing, StateCompleted}, log.all())
}

func TestWorkflow_Submit_RejectedOutsideIdle(t *testing.T) {
	store := database.NewOrderStore()
	wf := NewWorkflow(store, Settings{})

	_, err := wf.Submit(context.Background(), rose())
	require.NoError(t, err)

	_, err = wf.Submit(context.Background(), rose())
	assert.ErrorIs(t, err, ErrPaymentCompleted)
	assert.Equal(t, 1, store.Len())
}

func TestWorkflow_Submit_RejectedWhileProcessing(t *testing.T) {
	store := database.NewOrderStore()
	entered := make(chan struct{})
	wf := NewWorkflow(store, Settings{
		ProcessingDelay: time.Hour,
		OnTransition: func(_ string, _, to State) {
			if to == StateProcessing {
				close(entered)
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := wf.Submit(ctx, rose())
		done <- err
	}()

	<-entered
	_, err := wf.Submit(context.Background(), rose())
	assert.ErrorIs(t, err, ErrPaymentInProgress)

	cancel()
	assert.ErrorIs(t, <-done, ErrPaymentCancelled)
}

func TestWorkflow_Submit_CancelDiscards(t *testing.T) {
	store := database.NewOrderStore()
	log := &transitionLog{}
	wf := NewWorkflow(store, Settings{ProcessingDelay: time.Hour, OnTransition: log.record})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := wf.Submit(ctx, rose())
	assert.ErrorIs(t, err, ErrPaymentCancelled)

	assert.Equal(t, StateIdle, wf.State())
	_, ok := wf.Order()
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, []State{StateProcessing, StateIdle}, log.all())

	// the same attempt can be submitted again after a dismissal
	wf2 := NewWorkflow(store, Settings{})
	_, err = wf2.Submit(context.Background(), rose())
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestWorkflow_Submit_AlreadyCancelledContext(t *testing.T) {
	store := database.NewOrderStore()
	wf := NewWorkflow(store, Settings{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := wf.Submit(ctx, rose())
	assert.ErrorIs(t, err, ErrPaymentCancelled)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, StateIdle, wf.State())
}

func TestWorkflow_Submit_RegeneratesCollidingID(t *testing.T) {
	store := database.NewOrderStore()
	require.NoError(t, store.Prepend(models.Order{ID: "ORD-1111"}))

	wf := NewWorkflow(store, Settings{
		MaxIDAttempts: 3,
		NewOrderID:    sequenceIDs("ORD-1111", "ORD-2222"),
	})

	order, err := wf.Submit(context.Background(), rose())
	require.NoError(t, err)
	assert.Equal(t, "ORD-2222", order.ID)
	assert.Equal(t, 2, store.Len())
}

func TestWorkflow_Submit_IDExhausted(t *testing.T) {
	store := database.NewOrderStore()
	require.NoError(t, store.Prepend(models.Order{ID: "ORD-1111"}))

	wf := NewWorkflow(store, Settings{
		MaxIDAttempts: 3,
		NewOrderID:    sequenceIDs("ORD-1111"),
	})

	_, err := wf.Submit(context.Background(), rose())
	assert.ErrorIs(t, err, ErrOrderIDExhausted)
	assert.Equal(t, StateIdle, wf.State())
	assert.Equal(t, 1, store.Len())
}

func TestWorkflow_Submit_StoreClosed(t *testing.T) {
	store := database.NewOrderStore()
	store.Close()

	_, err := NewWorkflow(store, Settings{}).Submit(context.Background(), rose())
	assert.ErrorIs(t, err, database.ErrStoreClosed)
}

func TestService_SequentialPaymentsNewestFirst(t *testing.T) {
	store := database.NewOrderStore()
	service := NewService(&Config{MaxIDAttempts: 5}, store, logger.NewTestLogger(t)).
		WithSettings(Settings{MaxIDAttempts: 5, NewOrderID: sequenceIDs("ORD-1001", "ORD-1002")})

	p1 := rose()
	p2 := models.ProductRef{Name: "Vase", Price: models.TextPrice("$24.00")}

	_, err := service.Checkout(context.Background(), p1)
	require.NoError(t, err)
	_, err = service.Checkout(context.Background(), p2)
	require.NoError(t, err)

	snap := store.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, p2, snap[0].Item)
	assert.Equal(t, p1, snap[1].Item)
}

func TestService_ConcurrentCheckouts(t *testing.T) {
	store := database.NewOrderStore()
	service := NewService(&Config{ProcessingDelay: time.Millisecond, MaxIDAttempts: 50}, store, logger.NewNoOpLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = service.Checkout(context.Background(), rose())
		}()
	}
	wg.Wait()

	snap := store.Snapshot()
	assert.Len(t, snap, 20)
	seen := map[string]bool{}
	for _, o := range snap {
		assert.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
	}
}

func TestHandler_Execute(t *testing.T) {
	store := database.NewOrderStore()
	config := &Config{ProcessingDelay: time.Millisecond, MaxIDAttempts: 5, Timeout: time.Second}
	handler := NewHandler(config, NewService(config, store, logger.NewTestLogger(t)), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Product: rose(),
		Payment: models.PaymentDetails{CardNumber: "4242 4242 4242 4242", Expiry: "12/30", CVC: "123"},
	})
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, output.State)
	assert.NotEmpty(t, output.AttemptID)
	assert.Regexp(t, orderIDPattern, output.Order.ID)
	assert.Equal(t, output.Order.ID, store.Snapshot()[0].ID)
}

func TestHandler_Execute_WritesToSessionStore(t *testing.T) {
	stores := database.NewOrderStores()
	t.Cleanup(stores.Close)
	config := &Config{MaxIDAttempts: 5, Timeout: time.Second}
	handler := NewHandler(config, NewService(config, stores, logger.NewTestLogger(t)), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{SessionID: "alice", Product: rose()})
	require.NoError(t, err)

	alice := stores.Session("alice").Snapshot()
	require.Len(t, alice, 1)
	assert.Equal(t, output.Order.ID, alice[0].ID)
	assert.Empty(t, stores.Session("bob").Snapshot())
	assert.Empty(t, stores.Session(database.DefaultSessionID).Snapshot())
}
