package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentQR   PaymentMethod = "qr"
	PaymentCash PaymentMethod = "cash"
)

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{13,19}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cardCVVPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
)

type PaymentRequest struct {
	OrderID        uint
	Method         PaymentMethod
	Amount         decimal.Decimal
	AmountReceived decimal.Decimal
	CardNumber     string
	ExpiryDate     string
	CVV            string
}

type PaymentResult struct {
	Order  *models.Order
	Method PaymentMethod
	Paid   decimal.Decimal
	Change decimal.Decimal
}

// Charge is what a card or QR provider is asked to collect.
type Charge struct {
	OrderNumber string
	Method      PaymentMethod
	Amount      decimal.Decimal
	CardLast4   string
}

// PaymentGateway collects card and QR payments. It must honour ctx and
// return ErrPaymentDeclined when the provider refuses the charge.
type PaymentGateway interface {
	Charge(ctx context.Context, charge Charge) error
}

// SimulatedGateway approves every charge after Delay.
type SimulatedGateway struct {
	Delay time.Duration
}

func (g SimulatedGateway) Charge(ctx context.Context, _ Charge) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.Delay):
		return nil
	}
}

type paymentStrategy interface {
	validate(req PaymentRequest, total decimal.Decimal) error
	settle(ctx context.Context, order *models.Order, req PaymentRequest) (change decimal.Decimal, err error)
}

func newPaymentStrategies(gateway PaymentGateway) map[PaymentMethod]paymentStrategy {
	return map[PaymentMethod]paymentStrategy{
		PaymentCard: cardPayment{gateway: gateway},
		PaymentQR:   qrPayment{gateway: gateway},
		PaymentCash: cashPayment{},
	}
}

type cashPayment struct{}

func (cashPayment) validate(req PaymentRequest, total decimal.Decimal) error {
	if req.AmountReceived.LessThan(total) {
		return ErrInsufficientAmount
	}
	return nil
}

func (cashPayment) settle(_ context.Context, order *models.Order, req PaymentRequest) (decimal.Decimal, error) {
	return req.AmountReceived.Sub(order.Total), nil
}

type cardPayment struct {
	gateway PaymentGateway
}

func (cardPayment) validate(req PaymentRequest, _ decimal.Decimal) error {
	var v validator
	v.check(cardNumberPattern.MatchString(digitsOnly(req.CardNumber)), "card_number", "must be 13 to 19 digits")
	v.check(cardExpiryPattern.MatchString(req.ExpiryDate), "expiry_date", "must be formatted as MM/YY")
	v.check(cardCVVPattern.MatchString(req.CVV), "cvv", "must be 3 or 4 digits")
	return v.err()
}

func (p cardPayment) settle(ctx context.Context, order *models.Order, req PaymentRequest) (decimal.Decimal, error) {
	number := digitsOnly(req.CardNumber)
	return decimal.Zero, p.gateway.Charge(ctx, Charge{
		OrderNumber: order.OrderNumber,
		Method:      PaymentCard,
		Amount:      order.Total,
		CardLast4:   number[len(number)-4:],
	})
}

type qrPayment struct {
	gateway PaymentGateway
}

func (qrPayment) validate(PaymentRequest, decimal.Decimal) error { return nil }

func (p qrPayment) settle(ctx context.Context, order *models.Order, _ PaymentRequest) (decimal.Decimal, error) {
	return decimal.Zero, p.gateway.Charge(ctx, Charge{
		OrderNumber: order.OrderNumber,
		Method:      PaymentQR,
		Amount:      order.Total,
	})
}

// ProcessPayment settles a Pending order. The order is first claimed by
// moving it to Processing, the provider is called outside any transaction
// with a bounded timeout, and the claim is then either completed or released
// back to Pending so the customer can try again.
func (s *orderService) ProcessPayment(ctx context.Context, who models.Identity, req PaymentRequest) (*PaymentResult, error) {
	req.Method = PaymentMethod(strings.ToLower(string(req.Method)))
	strategy, ok := s.strategies[req.Method]
	if !ok {
		return nil, fieldError("payment_method", "must be card, qr or cash")
	}

	var claimed *models.Order
	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOwned(ctx, tx, who, req.OrderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderPending || order.Total.IsZero() {
			return ErrInvalidTransition
		}
		if !req.Amount.IsZero() && !req.Amount.Equal(order.Total) {
			return fieldError("amount", "does not match the order total")
		}
		if err := strategy.validate(req, order.Total); err != nil {
			return err
		}

		claimedAt := s.now().UTC()
		order.Status = models.OrderProcessing
		order.ClaimedAt = &claimedAt
		claimed = order
		return s.repo.Save(ctx, tx, order)
	})
	if err != nil {
		return nil, s.orderErr("claim order for payment", err)
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.settings.PaymentTimeout)
	change, payErr := strategy.settle(chargeCtx, claimed, req)
	cancel()

	// The claim must be resolved even when the caller has gone away.
	finishCtx := context.WithoutCancel(ctx)
	if payErr != nil {
		if err := s.releaseClaim(finishCtx, claimed.ID); err != nil {
			s.log.Error("release payment claim", "order_id", claimed.ID, "error", err)
		}
		s.log.Warn("payment failed", "order_id", claimed.ID, "method", req.Method, "error", payErr)
		if errors.Is(payErr, context.DeadlineExceeded) {
			return nil, ErrPaymentTimeout
		}
		if errors.Is(payErr, context.Canceled) {
			return nil, payErr
		}
		return nil, ErrPaymentDeclined
	}

	// The money has been taken, so the order is completed even if the claim
	// was released in the meantime. Only a terminal order is left alone.
	var unsettled models.OrderStatus
	err = s.repo.GetDB().WithContext(finishCtx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(finishCtx, tx, claimed.ID)
		if err != nil {
			return err
		}
		switch order.Status {
		case models.OrderProcessing:
		case models.OrderPending:
			s.log.Warn("payment claim released before the charge settled", "order_id", order.ID)
		default:
			unsettled = order.Status
			return nil
		}

		paidAt := s.now().UTC()
		order.Status = models.OrderCompleted
		order.PaymentMethod = string(req.Method)
		order.PaidAt = &paidAt
		order.ClaimedAt = nil
		if who.UserID != 0 {
			order.UserID = who.UserRef()
		}
		return s.repo.Save(finishCtx, tx, order)
	})
	if err != nil {
		s.log.Error("complete paid order", "order_id", claimed.ID, "method", req.Method, "error", err)
		return nil, s.orderErr("complete order", err)
	}

	order, err := s.load(finishCtx, claimed.ID)
	if err != nil {
		return nil, err
	}

	if unsettled != "" {
		s.log.Error("charge collected for an order that is no longer payable, refund required",
			"order_id", order.ID, "status", unsettled, "method", req.Method, "total", order.Total.StringFixed(2))
		return &PaymentResult{Order: order, Method: req.Method, Paid: order.Total, Change: change}, nil
	}

	s.log.Info("payment completed", "order_id", order.ID, "method", req.Method, "total", order.Total.StringFixed(2))
	s.events.emit(finishCtx, EventOrderCompleted, orderSubject(order.ID), order)
	return &PaymentResult{Order: order, Method: req.Method, Paid: order.Total, Change: change}, nil
}

func (s *orderService) releaseClaim(ctx context.Context, orderID uint) error {
	return s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderProcessing {
			return nil
		}
		order.Status = models.OrderPending
		order.ClaimedAt = nil
		return s.repo.Save(ctx, tx, order)
	})
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r != ' ' && r != '-' {
			return ""
		}
	}
	return b.String()
}
