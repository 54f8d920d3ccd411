package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/Eursukkul/restaurant-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOrderService(t *testing.T, taxRate string, gateway PaymentGateway) (*orderService, *gorm.DB, *recordingPublisher) {
	t.Helper()
	db := newTestDB(t)
	pub := &recordingPublisher{}
	settings := OrderSettings{
		TaxRate:        decimal.RequireFromString(taxRate),
		PaymentTimeout: time.Second,
	}
	svc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewMenuItemRepository(db),
		gateway,
		settings,
		pub,
		logger.Discard(),
	).(*orderService)
	svc.now = func() time.Time { return fixedNow }
	return svc, db, pub
}

// pendingOrder builds a submitted order for who with the given lines.
func pendingOrder(t *testing.T, svc *orderService, who models.Identity, lines map[*models.MenuItem]int) *models.Order {
	t.Helper()
	ctx := context.Background()
	for item, qty := range lines {
		_, err := svc.AddItem(ctx, who, item.ID, qty, "")
		require.NoError(t, err)
	}
	draft, err := svc.CurrentDraft(ctx, who)
	require.NoError(t, err)
	order, err := svc.SubmitOrder(ctx, who, draft.ID)
	require.NoError(t, err)
	return order
}

func TestCurrentDraft_CreatedLazilyAndReused(t *testing.T) {
	svc, db, _ := newOrderService(t, "0.08", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	ctx := context.Background()

	first, err := svc.CurrentDraft(ctx, who)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDraft, first.Status)
	assert.Equal(t, 1, first.NumberOfGuests)
	assert.Regexp(t, `^20261019100000-[0-9a-f]{6}$`, first.OrderNumber)
	assert.True(t, first.Total.IsZero())

	second, err := svc.CurrentDraft(ctx, who)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCurrentDraft_ConcurrentCallsYieldOneDraft(t *testing.T) {
	svc, db, _ := newOrderService(t, "0.08", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))

	const n = 10
	ids := make([]uint, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			draft, err := svc.CurrentDraft(context.Background(), who)
			errs[i] = err
			if err == nil {
				ids[i] = draft.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var drafts int64
	require.NoError(t, db.Model(&models.Order{}).
		Where("session_key = ? AND status = ?", who.SessionID, models.OrderDraft).
		Count(&drafts).Error)
	assert.Equal(t, int64(1), drafts)
}

// staleDraftLookup misses the session's draft on the first lookup, as a
// request does when a concurrent insert commits right after its read.
type staleDraftLookup struct {
	repository.OrderRepository
	finds int
}

func (r *staleDraftLookup) FindDraftBySession(ctx context.Context, tx *gorm.DB, sessionKey string) (*models.Order, error) {
	r.finds++
	if r.finds == 1 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.OrderRepository.FindDraftBySession(ctx, tx, sessionKey)
}

func TestCurrentDraft_LosingTheInsertRaceRetriesIntoLookup(t *testing.T) {
	svc, db, _ := newOrderService(t, "0.08", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))

	winner := svc.newDraft(who)
	require.NoError(t, db.Create(winner).Error)

	repo := &staleDraftLookup{OrderRepository: svc.repo}
	svc.repo = repo

	draft, err := svc.CurrentDraft(context.Background(), who)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, draft.ID)
	assert.Equal(t, 2, repo.finds)

	var drafts int64
	require.NoError(t, db.Model(&models.Order{}).Where("status = ?", models.OrderDraft).Count(&drafts).Error)
	assert.Equal(t, int64(1), drafts)
}

func TestSubmitOrder_EmptyOrder(t *testing.T) {
	svc, db, _ := newOrderService(t, "0.08", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	ctx := context.Background()

	draft, err := svc.CurrentDraft(ctx, who)
	require.NoError(t, err)

	_, err = svc.SubmitOrder(ctx, who, draft.ID)
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestSubmitOrder_ComputesTotals(t *testing.T) {
	svc, db, pub := newOrderService(t, "0.08", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")
	cola := seedMenuItem(t, db, "Coca Cola", "2.99")

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{burger: 2, cola: 1})

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "28.97", order.Subtotal.StringFixed(2))
	assert.Equal(t, "2.32", order.Tax.StringFixed(2))
	assert.Equal(t, "31.29", order.Total.StringFixed(2))
	assert.Len(t, order.Items, 2)
	assert.Equal(t, []string{EventOrderSubmitted}, pub.published())
}

func TestSubmitOrder_ResubmitIsIdempotent(t *testing.T) {
	svc, db, pub := newOrderService(t, "0.08", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{burger: 2})

	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", burger.ID).Update("price", decimal.RequireFromString("99.00")).Error)

	again, err := svc.SubmitOrder(context.Background(), who, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, again.Status)
	assert.Equal(t, order.Total.StringFixed(2), again.Total.StringFixed(2))
	assert.Len(t, pub.published(), 1)
}

func TestDraftItems_QuantityClampAndOwnership(t *testing.T) {
	svc, db, _ := newOrderService(t, "0.08", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	other := identity(seedUser(t, db, "user2", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")
	ctx := context.Background()

	draft, err := svc.AddItem(ctx, who, burger.ID, 2, "no onions")
	require.NoError(t, err)
	require.Len(t, draft.Items, 1)
	itemID := draft.Items[0].ID
	assert.Equal(t, "no onions", draft.Items[0].Notes)
	assert.Equal(t, "12.99", draft.Items[0].UnitPrice.StringFixed(2))

	draft, err = svc.ChangeQuantity(ctx, who, itemID, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, draft.Items[0].Quantity)

	draft, err = svc.ChangeQuantity(ctx, who, itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, draft.Items[0].Quantity)

	_, err = svc.RemoveItem(ctx, other, itemID)
	assert.ErrorIs(t, err, ErrOrderItemNotFound)

	draft, err = svc.RemoveItem(ctx, who, itemID)
	require.NoError(t, err)
	assert.Empty(t, draft.Items)
}

func TestAddItem_RejectsUnknownOrUnavailableItems(t *testing.T) {
	svc, db, _ := newOrderService(t, "0.08", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	soup := seedMenuItem(t, db, "Soup", "5.00")
	require.NoError(t, db.Model(soup).Update("is_available", false).Error)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, who, 999, 1, "")
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	_, err = svc.AddItem(ctx, who, soup.ID, 1, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItem(ctx, who, soup.ID, 0, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProcessPayment_CashMustCoverTotal(t *testing.T) {
	svc, db, pub := newOrderService(t, "0", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	meal := seedMenuItem(t, db, "Set Menu", "10.00")
	ctx := context.Background()

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{meal: 1})
	require.Equal(t, "10.00", order.Total.StringFixed(2))

	_, err := svc.ProcessPayment(ctx, who, PaymentRequest{
		OrderID:        order.ID,
		Method:         PaymentCash,
		Amount:         decimal.RequireFromString("10.00"),
		AmountReceived: decimal.RequireFromString("9.99"),
	})
	assert.ErrorIs(t, err, ErrInsufficientAmount)

	still, err := svc.GetOrder(ctx, who, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, still.Status)

	result, err := svc.ProcessPayment(ctx, who, PaymentRequest{
		OrderID:        order.ID,
		Method:         "CASH",
		Amount:         decimal.RequireFromString("10.00"),
		AmountReceived: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, result.Order.Status)
	assert.Equal(t, "cash", result.Order.PaymentMethod)
	assert.NotNil(t, result.Order.PaidAt)
	assert.True(t, result.Change.IsZero())
	require.NotNil(t, result.Order.UserID)
	assert.Equal(t, who.UserID, *result.Order.UserID)
	assert.Contains(t, pub.published(), EventOrderCompleted)

	_, err = svc.ProcessPayment(ctx, who, PaymentRequest{
		OrderID:        order.ID,
		Method:         PaymentCash,
		AmountReceived: decimal.RequireFromString("10.00"),
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestProcessPayment_CashReportsChange(t *testing.T) {
	svc, db, _ := newOrderService(t, "0", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	meal := seedMenuItem(t, db, "Set Menu", "10.00")

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{meal: 1})

	result, err := svc.ProcessPayment(context.Background(), who, PaymentRequest{
		OrderID:        order.ID,
		Method:         PaymentCash,
		AmountReceived: decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00", result.Change.StringFixed(2))
}

func TestProcessPayment_AmountMustMatchTotal(t *testing.T) {
	svc, db, _ := newOrderService(t, "0", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	meal := seedMenuItem(t, db, "Set Menu", "10.00")

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{meal: 1})

	_, err := svc.ProcessPayment(context.Background(), who, PaymentRequest{
		OrderID:        order.ID,
		Method:         PaymentCash,
		Amount:         decimal.RequireFromString("5.00"),
		AmountReceived: decimal.RequireFromString("10.00"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProcessPayment_DeclinedCardReleasesClaim(t *testing.T) {
	var charged []Charge
	gateway := &mockGateway{chargeFn: func(ctx context.Context, c Charge) error {
		charged = append(charged, c)
		if c.Method == PaymentCard {
			return ErrPaymentDeclined
		}
		return nil
	}}
	svc, db, _ := newOrderService(t, "0.08", gateway)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")
	ctx := context.Background()

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{burger: 1})

	_, err := svc.ProcessPayment(ctx, who, PaymentRequest{
		OrderID:    order.ID,
		Method:     PaymentCard,
		CardNumber: "4111 1111 1111 1111",
		ExpiryDate: "12/28",
		CVV:        "123",
	})
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	released, err := svc.GetOrder(ctx, who, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, released.Status)

	result, err := svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: order.ID, Method: PaymentQR})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, result.Order.Status)

	require.Len(t, charged, 2)
	assert.Equal(t, "1111", charged[0].CardLast4)
	assert.Equal(t, order.Total.StringFixed(2), charged[1].Amount.StringFixed(2))
}

func TestProcessPayment_GatewayTimeout(t *testing.T) {
	gateway := &mockGateway{chargeFn: func(ctx context.Context, _ Charge) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	svc, db, _ := newOrderService(t, "0.08", gateway)
	svc.settings.PaymentTimeout = 20 * time.Millisecond
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")
	ctx := context.Background()

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{burger: 1})

	_, err := svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: order.ID, Method: PaymentQR})
	assert.ErrorIs(t, err, ErrPaymentTimeout)

	released, err := svc.GetOrder(ctx, who, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, released.Status)
}

func TestUpdateStatus_CannotReleaseClaimWhileChargeRuns(t *testing.T) {
	var (
		svc       *orderService
		orderID   uint
		charges   int
		adminErrs []error
	)
	gateway := &mockGateway{chargeFn: func(ctx context.Context, _ Charge) error {
		charges++
		for _, status := range []models.OrderStatus{models.OrderPending, models.OrderCancelled} {
			_, err := svc.UpdateStatus(context.Background(), orderID, status)
			adminErrs = append(adminErrs, err)
		}
		return nil
	}}
	svc, db, _ := newOrderService(t, "0.08", gateway)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")
	ctx := context.Background()

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{burger: 1})
	orderID = order.ID

	result, err := svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: order.ID, Method: PaymentQR})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompleted, result.Order.Status)

	require.Len(t, adminErrs, 2)
	for _, err := range adminErrs {
		assert.ErrorIs(t, err, ErrPaymentInProgress)
	}

	_, err = svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: order.ID, Method: PaymentQR})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, charges)
}

func TestProcessPayment_CompletesWhenStaleClaimWasReleased(t *testing.T) {
	var (
		svc      *orderService
		orderID  uint
		released *models.Order
	)
	gateway := &mockGateway{chargeFn: func(ctx context.Context, _ Charge) error {
		svc.now = func() time.Time { return fixedNow.Add(2 * time.Second) }
		var err error
		released, err = svc.UpdateStatus(context.Background(), orderID, models.OrderPending)
		require.NoError(t, err)
		return nil
	}}
	svc, db, pub := newOrderService(t, "0.08", gateway)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")
	ctx := context.Background()

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{burger: 1})
	orderID = order.ID

	result, err := svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: order.ID, Method: PaymentQR})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, released.Status)
	assert.Equal(t, models.OrderCompleted, result.Order.Status)
	assert.Nil(t, result.Order.ClaimedAt)
	assert.Contains(t, pub.published(), EventOrderCompleted)
}

func TestProcessPayment_ChargeOnCancelledOrderIsNotAnError(t *testing.T) {
	var (
		svc     *orderService
		orderID uint
	)
	gateway := &mockGateway{chargeFn: func(ctx context.Context, _ Charge) error {
		svc.now = func() time.Time { return fixedNow.Add(2 * time.Second) }
		_, err := svc.UpdateStatus(context.Background(), orderID, models.OrderCancelled)
		require.NoError(t, err)
		return nil
	}}
	svc, db, pub := newOrderService(t, "0.08", gateway)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")
	ctx := context.Background()

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{burger: 1})
	orderID = order.ID

	result, err := svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: order.ID, Method: PaymentQR})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, result.Order.Status)
	assert.NotContains(t, pub.published(), EventOrderCompleted)
}

func TestProcessPayment_ValidatesRequest(t *testing.T) {
	svc, db, _ := newOrderService(t, "0.08", &mockGateway{})
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")
	ctx := context.Background()

	draft, err := svc.AddItem(ctx, who, burger.ID, 1, "")
	require.NoError(t, err)

	_, err = svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: draft.ID, Method: "bitcoin"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: draft.ID, Method: PaymentQR})
	assert.ErrorIs(t, err, ErrInvalidTransition, "drafts must be submitted first")

	order, err := svc.SubmitOrder(ctx, who, draft.ID)
	require.NoError(t, err)

	_, err = svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: order.ID, Method: PaymentCard, CardNumber: "12", ExpiryDate: "13/28", CVV: "x"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 3)

	stranger := identity(seedUser(t, db, "user2", models.RoleUser))
	_, err = svc.ProcessPayment(ctx, stranger, PaymentRequest{OrderID: order.ID, Method: PaymentQR})
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelAndAdminStatus(t *testing.T) {
	svc, db, pub := newOrderService(t, "0.08", nil)
	who := identity(seedUser(t, db, "user1", models.RoleUser))
	burger := seedMenuItem(t, db, "Classic Burger", "12.99")
	ctx := context.Background()

	order := pendingOrder(t, svc, who, map[*models.MenuItem]int{burger: 1})

	_, err := svc.UpdateStatus(ctx, order.ID, models.OrderCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled, err := svc.CancelOrder(ctx, who, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)

	_, err = svc.CancelOrder(ctx, who, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, []string{EventOrderSubmitted, EventOrderCancelled}, pub.published())
}

func TestHistoryAndList(t *testing.T) {
	svc, db, _ := newOrderService(t, "0", nil)
	user := seedUser(t, db, "user1", models.RoleUser)
	who := identity(user)
	meal := seedMenuItem(t, db, "Set Menu", "10.00")
	ctx := context.Background()

	paid := pendingOrder(t, svc, who, map[*models.MenuItem]int{meal: 1})
	_, err := svc.ProcessPayment(ctx, who, PaymentRequest{OrderID: paid.ID, Method: PaymentCash, AmountReceived: decimal.NewFromInt(10)})
	require.NoError(t, err)
	open := pendingOrder(t, svc, who, map[*models.MenuItem]int{meal: 2})

	history, err := svc.History(ctx, who)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, paid.ID, history[0].ID)

	pending, err := svc.ListOrders(ctx, "Pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, open.ID, pending[0].ID)

	_, err = svc.ListOrders(ctx, "Shipped")
	assert.ErrorIs(t, err, ErrValidation)
}
