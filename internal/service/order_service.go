package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/Eursukkul/restaurant-service/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNumberLayout = "20060102150405"

type OrderSettings struct {
	TaxRate        decimal.Decimal
	PaymentTimeout time.Duration
}

type OrderService interface {
	CurrentDraft(ctx context.Context, who models.Identity) (*models.Order, error)
	UpdateDraft(ctx context.Context, who models.Identity, guests int, notes string) (*models.Order, error)
	AddItem(ctx context.Context, who models.Identity, menuItemID uint, quantity int, notes string) (*models.Order, error)
	ChangeQuantity(ctx context.Context, who models.Identity, itemID uint, change int) (*models.Order, error)
	RemoveItem(ctx context.Context, who models.Identity, itemID uint) (*models.Order, error)
	SubmitOrder(ctx context.Context, who models.Identity, orderID uint) (*models.Order, error)
	GetOrder(ctx context.Context, who models.Identity, orderID uint) (*models.Order, error)
	CancelOrder(ctx context.Context, who models.Identity, orderID uint) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error)
	History(ctx context.Context, who models.Identity) ([]models.Order, error)
	ListOrders(ctx context.Context, status string) ([]models.Order, error)
	ProcessPayment(ctx context.Context, who models.Identity, req PaymentRequest) (*PaymentResult, error)
}

type orderService struct {
	repo       repository.OrderRepository
	menuRepo   repository.MenuItemRepository
	settings   OrderSettings
	strategies map[PaymentMethod]paymentStrategy
	events     eventEmitter
	log        *slog.Logger
	now        func() time.Time
}

func NewOrderService(
	repo repository.OrderRepository,
	menuRepo repository.MenuItemRepository,
	gateway PaymentGateway,
	settings OrderSettings,
	publisher EventPublisher,
	log *slog.Logger,
) OrderService {
	log = log.With("component", "orders")
	return &orderService{
		repo:       repo,
		menuRepo:   menuRepo,
		settings:   settings,
		strategies: newPaymentStrategies(gateway),
		events:     eventEmitter{publisher: publisher, log: log},
		log:        log,
		now:        time.Now,
	}
}

// CurrentDraft returns the caller's draft order, creating it on first use.
// Concurrent first calls from one session converge on a single draft: the
// loser of the insert race hits the partial unique index and retries into
// the lookup branch.
func (s *orderService) CurrentDraft(ctx context.Context, who models.Identity) (*models.Order, error) {
	var draftID uint
	err := s.inDraft(ctx, who, func(tx *gorm.DB, draft *models.Order) error {
		draftID = draft.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, draftID)
}

func (s *orderService) UpdateDraft(ctx context.Context, who models.Identity, guests int, notes string) (*models.Order, error) {
	var v validator
	v.check(guests >= 1 && guests <= maxGuests, "number_of_guests", "must be between 1 and 20")
	v.maxChars(notes, maxNoteLength, "notes")
	if err := v.err(); err != nil {
		return nil, err
	}

	var draftID uint
	err := s.inDraft(ctx, who, func(tx *gorm.DB, draft *models.Order) error {
		draftID = draft.ID
		draft.NumberOfGuests = guests
		draft.Notes = strings.TrimSpace(notes)
		return s.repo.Save(ctx, tx, draft)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, draftID)
}

// AddItem appends a line to the draft with the menu item's current price as
// the unit price snapshot.
func (s *orderService) AddItem(ctx context.Context, who models.Identity, menuItemID uint, quantity int, notes string) (*models.Order, error) {
	var v validator
	v.check(menuItemID > 0, "menu_item_id", "is required")
	v.check(quantity >= 1, "quantity", "must be at least 1")
	v.maxChars(notes, maxNoteLength, "notes")
	if err := v.err(); err != nil {
		return nil, err
	}

	var draftID uint
	err := s.inDraft(ctx, who, func(tx *gorm.DB, draft *models.Order) error {
		draftID = draft.ID

		found, err := s.menuRepo.FindByIDs(ctx, tx, []uint{menuItemID})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return ErrMenuItemNotFound
		}
		if !found[0].IsAvailable {
			return fieldError("menu_item_id", "is not available")
		}

		return s.repo.AddItem(ctx, tx, &models.OrderItem{
			OrderID:    draft.ID,
			MenuItemID: menuItemID,
			Quantity:   quantity,
			UnitPrice:  found[0].Price,
			Notes:      strings.TrimSpace(notes),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, draftID)
}

// ChangeQuantity adds change to the line's quantity, never going below 1.
func (s *orderService) ChangeQuantity(ctx context.Context, who models.Identity, itemID uint, change int) (*models.Order, error) {
	var draftID uint
	err := s.inDraft(ctx, who, func(tx *gorm.DB, draft *models.Order) error {
		draftID = draft.ID

		item, err := s.draftItem(ctx, tx, draft, itemID)
		if err != nil {
			return err
		}
		return s.repo.UpdateItemQuantity(ctx, tx, item.ID, max(1, item.Quantity+change))
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, draftID)
}

func (s *orderService) RemoveItem(ctx context.Context, who models.Identity, itemID uint) (*models.Order, error) {
	var draftID uint
	err := s.inDraft(ctx, who, func(tx *gorm.DB, draft *models.Order) error {
		draftID = draft.ID

		item, err := s.draftItem(ctx, tx, draft, itemID)
		if err != nil {
			return err
		}
		return s.repo.DeleteItem(ctx, tx, item.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, draftID)
}

// SubmitOrder freezes the totals and moves a draft to Pending. Submitting an
// order that is already Pending with a total returns it untouched.
func (s *orderService) SubmitOrder(ctx context.Context, who models.Identity, orderID uint) (*models.Order, error) {
	submitted := false
	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOwned(ctx, tx, who, orderID)
		if err != nil {
			return err
		}

		switch order.Status {
		case models.OrderDraft:
		case models.OrderPending:
			if !order.Total.IsZero() {
				return nil
			}
		default:
			return ErrInvalidTransition
		}

		items, err := s.repo.LoadItems(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyOrder
		}

		order.Subtotal, order.Tax, order.Total = s.totals(items)
		order.Status = models.OrderPending
		order.OrderDate = s.now().UTC()
		if order.UserID == nil {
			order.UserID = who.UserRef()
		}
		submitted = true
		return s.repo.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, s.orderErr("submit order", err)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if submitted {
		s.log.Info("order submitted", "id", order.ID, "number", order.OrderNumber, "total", order.Total.StringFixed(2))
		s.events.emit(ctx, EventOrderSubmitted, orderSubject(order.ID), order)
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, who models.Identity, orderID uint) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canAccess(who, order) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// CancelOrder lets the owner withdraw an order that is not being paid for.
func (s *orderService) CancelOrder(ctx context.Context, who models.Identity, orderID uint) (*models.Order, error) {
	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOwned(ctx, tx, who, orderID)
		if err != nil {
			return err
		}
		if order.Status == models.OrderProcessing || !order.Status.CanTransitionTo(models.OrderCancelled) {
			return ErrInvalidTransition
		}
		order.Status = models.OrderCancelled
		return s.repo.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, s.orderErr("cancel order", err)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, EventOrderCancelled, orderSubject(order.ID), order)
	return order, nil
}

// UpdateStatus is the admin override. It can cancel an order or release a
// stuck payment claim (Processing -> Pending); Completed is only reachable
// through payment and Pending only through submission. A claim younger than
// the payment timeout may still be charged, so it cannot be touched.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fieldError("status", "is not a known order status")
	}

	admin := models.Identity{Role: models.RoleAdmin}
	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOwned(ctx, tx, admin, orderID)
		if err != nil {
			return err
		}

		allowed := status == models.OrderCancelled ||
			(status == models.OrderPending && order.Status == models.OrderProcessing)
		if !allowed || !order.Status.CanTransitionTo(status) {
			return ErrInvalidTransition
		}
		if s.chargeMayBeRunning(order) {
			return ErrPaymentInProgress
		}

		order.Status = status
		order.ClaimedAt = nil
		return s.repo.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, s.orderErr("update order status", err)
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.log.Info("order status changed", "id", orderID, "status", status)
	if status == models.OrderCancelled {
		s.events.emit(ctx, EventOrderCancelled, orderSubject(order.ID), order)
	}
	return order, nil
}

// History lists the caller's completed orders, newest first.
func (s *orderService) History(ctx context.Context, who models.Identity) ([]models.Order, error) {
	if who.UserID == 0 {
		return []models.Order{}, nil
	}
	orders, err := s.repo.FindByUser(ctx, who.UserID, models.OrderCompleted, 0)
	if err != nil {
		return nil, storageErr("order history", err)
	}
	return orders, nil
}

func (s *orderService) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	st := models.OrderStatus(status)
	if st != "" && !st.Valid() {
		return nil, fieldError("status", "is not a known order status")
	}
	orders, err := s.repo.List(ctx, st)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	return orders, nil
}

// inDraft runs fn inside a transaction holding the caller's draft order,
// creating the draft when the session has none.
func (s *orderService) inDraft(ctx context.Context, who models.Identity, fn func(tx *gorm.DB, draft *models.Order) error) error {
	if who.SessionID == "" {
		return fieldError("session", "is required")
	}

	err := database.WithRetry(ctx, database.RetryOnConflict, func() error {
		return s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			draft, err := s.repo.FindDraftBySession(ctx, tx, who.SessionID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				draft = s.newDraft(who)
				err = s.repo.Create(ctx, tx, draft)
			}
			if err != nil {
				return err
			}
			return fn(tx, draft)
		})
	})
	if err != nil {
		return s.orderErr("draft order", err)
	}
	return nil
}

func (s *orderService) newDraft(who models.Identity) *models.Order {
	now := s.now().UTC()
	return &models.Order{
		OrderNumber:    now.Format(orderNumberLayout) + "-" + uuid.NewString()[:6],
		OrderDate:      now,
		NumberOfGuests: 1,
		Status:         models.OrderDraft,
		Subtotal:       decimal.Zero,
		Tax:            decimal.Zero,
		Total:          decimal.Zero,
		SessionKey:     who.SessionID,
		UserID:         who.UserRef(),
	}
}

func (s *orderService) draftItem(ctx context.Context, tx *gorm.DB, draft *models.Order, itemID uint) (*models.OrderItem, error) {
	item, err := s.repo.FindItemForUpdate(ctx, tx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderItemNotFound
		}
		return nil, err
	}
	if item.OrderID != draft.ID {
		return nil, ErrOrderItemNotFound
	}
	return item, nil
}

func (s *orderService) lockOwned(ctx context.Context, tx *gorm.DB, who models.Identity, orderID uint) (*models.Order, error) {
	order, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !canAccess(who, order) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) load(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, storageErr("load order", err)
	}
	return order, nil
}

func (s *orderService) totals(items []models.OrderItem) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	tax = subtotal.Mul(s.settings.TaxRate).RoundBank(2)
	return subtotal, tax, subtotal.Add(tax)
}

// orderErr passes domain errors through and tags everything else as a
// persistence failure.
func (s *orderService) orderErr(op string, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrPaymentInProgress),
		errors.Is(err, ErrInsufficientAmount),
		errors.Is(err, ErrPersistence):
		return err
	}
	return storageErr(op, err)
}

// chargeMayBeRunning reports whether a payment attempt that claimed order
// can still be waiting on the provider.
func (s *orderService) chargeMayBeRunning(order *models.Order) bool {
	if order.Status != models.OrderProcessing || order.ClaimedAt == nil {
		return false
	}
	return s.now().Sub(*order.ClaimedAt) <= s.settings.PaymentTimeout
}

func canAccess(who models.Identity, order *models.Order) bool {
	if who.IsAdmin() {
		return true
	}
	if order.SessionKey != "" && order.SessionKey == who.SessionID {
		return true
	}
	return who.UserID != 0 && order.UserID != nil && *order.UserID == who.UserID
}
