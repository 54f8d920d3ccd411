package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderDraft      OrderStatus = "Draft"
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderCompleted  OrderStatus = "Completed"
	OrderCancelled  OrderStatus = "Cancelled"
)

// Processing -> Pending releases a payment claim after a failed attempt.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderDraft:      {OrderPending, OrderCancelled},
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderCompleted, OrderPending, OrderCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderDraft, OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderNumber    string          `gorm:"size:32;not null;uniqueIndex" json:"order_number"`
	OrderDate      time.Time       `gorm:"not null" json:"order_date"`
	NumberOfGuests int             `gorm:"not null" json:"number_of_guests"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	Tax            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax"`
	Total          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	Notes          string          `gorm:"size:500" json:"notes"`
	SessionKey     string          `gorm:"size:64;index" json:"-"`
	UserID         *uint           `gorm:"index" json:"user_id,omitempty"`
	PaymentMethod  string          `gorm:"size:10" json:"payment_method,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	ClaimedAt      *time.Time      `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	MenuItemID uint            `gorm:"not null;index" json:"menu_item_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	Notes      string          `gorm:"size:500" json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`

	MenuItem *MenuItem `gorm:"foreignKey:MenuItemID;constraint:OnDelete:RESTRICT" json:"menu_item,omitempty"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
