package dto

import (
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/service"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Location string            `json:"location,omitempty"`
}

type IdentityResponse struct {
	UserID uint        `json:"user_id,omitempty"`
	Role   models.Role `json:"role"`
}

type ReservationResponse struct {
	ID              uint                     `json:"id"`
	CustomerName    string                   `json:"customer_name"`
	PhoneNumber     string                   `json:"phone_number"`
	Email           string                   `json:"email"`
	NumberOfGuests  int                      `json:"number_of_guests"`
	ReservationDate string                   `json:"reservation_date"`
	ReservationTime string                   `json:"reservation_time"`
	TableNumber     int                      `json:"table_number"`
	Status          models.ReservationStatus `json:"status"`
	SpecialRequests string                   `json:"special_requests"`
	Notes           string                   `json:"notes"`
	CreatedAt       time.Time                `json:"created_at"`
}

type AvailabilityResponse struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	TableNumber int    `json:"table_number"`
}

type OrderItemResponse struct {
	ID         uint   `json:"id"`
	MenuItemID uint   `json:"menu_item_id"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	LineTotal  string `json:"line_total"`
	Notes      string `json:"notes"`
}

type OrderResponse struct {
	ID             uint                `json:"id"`
	OrderNumber    string              `json:"order_number"`
	OrderDate      time.Time           `json:"order_date"`
	NumberOfGuests int                 `json:"number_of_guests"`
	Status         models.OrderStatus  `json:"status"`
	Subtotal       string              `json:"subtotal"`
	Tax            string              `json:"tax"`
	Total          string              `json:"total"`
	Notes          string              `json:"notes"`
	PaymentMethod  string              `json:"payment_method,omitempty"`
	PaidAt         *time.Time          `json:"paid_at,omitempty"`
	Items          []OrderItemResponse `json:"items"`
}

type PaymentResponse struct {
	Order         OrderResponse `json:"order"`
	PaymentMethod string        `json:"payment_method"`
	AmountPaid    string        `json:"amount_paid"`
	Change        string        `json:"change"`
}

type UserDashboardResponse struct {
	UpcomingReservations []ReservationResponse `json:"upcoming_reservations"`
	RecentOrders         []OrderResponse       `json:"recent_orders"`
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		CustomerName:    r.CustomerName,
		PhoneNumber:     r.PhoneNumber,
		Email:           r.Email,
		NumberOfGuests:  r.NumberOfGuests,
		ReservationDate: r.Day().Format(time.DateOnly),
		ReservationTime: time.Time{}.Add(r.TimeOfDay()).Format("15:04"),
		TableNumber:     r.TableNumber,
		Status:          r.Status,
		SpecialRequests: r.SpecialRequests,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
	}
}

func ToReservationResponses(list []models.Reservation) []ReservationResponse {
	resp := make([]ReservationResponse, len(list))
	for i := range list {
		resp[i] = ToReservationResponse(&list[i])
	}
	return resp
}

func ToOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			LineTotal:  item.LineTotal().StringFixed(2),
			Notes:      item.Notes,
		}
		if item.MenuItem != nil {
			items[i].Name = item.MenuItem.Name
		}
	}

	return OrderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		OrderDate:      o.OrderDate,
		NumberOfGuests: o.NumberOfGuests,
		Status:         o.Status,
		Subtotal:       o.Subtotal.StringFixed(2),
		Tax:            o.Tax.StringFixed(2),
		Total:          o.Total.StringFixed(2),
		Notes:          o.Notes,
		PaymentMethod:  o.PaymentMethod,
		PaidAt:         o.PaidAt,
		Items:          items,
	}
}

func ToOrderResponses(list []models.Order) []OrderResponse {
	resp := make([]OrderResponse, len(list))
	for i := range list {
		resp[i] = ToOrderResponse(&list[i])
	}
	return resp
}

func ToPaymentResponse(r *service.PaymentResult) PaymentResponse {
	return PaymentResponse{
		Order:         ToOrderResponse(r.Order),
		PaymentMethod: string(r.Method),
		AmountPaid:    r.Paid.StringFixed(2),
		Change:        r.Change.StringFixed(2),
	}
}
