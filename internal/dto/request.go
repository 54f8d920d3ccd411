package dto

import "github.com/shopspring/decimal"

type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type CreateReservationRequest struct {
	CustomerName    string `json:"customer_name"`
	PhoneNumber     string `json:"phone_number"`
	Email           string `json:"email"`
	NumberOfGuests  int    `json:"number_of_guests"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
	SpecialRequests string `json:"special_requests"`
	Notes           string `json:"notes"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type UpdateDraftRequest struct {
	NumberOfGuests int    `json:"number_of_guests"`
	Notes          string `json:"notes"`
}

type AddItemRequest struct {
	MenuItemID uint   `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
}

type ChangeQuantityRequest struct {
	Change int `json:"change"`
}

// PaymentRequest accepts amounts as JSON numbers or strings.
type PaymentRequest struct {
	OrderID        uint            `json:"order_id"`
	PaymentMethod  string          `json:"payment_method"`
	Amount         decimal.Decimal `json:"amount"`
	AmountReceived decimal.Decimal `json:"amount_received"`
	CardNumber     string          `json:"card_number"`
	ExpiryDate     string          `json:"expiry_date"`
	CVV            string          `json:"cvv"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

type DishRatingRequest struct {
	MenuItemID uint `json:"menu_item_id"`
	Rating     int  `json:"rating"`
}

type FeedbackRequest struct {
	OrderID             uint                `json:"order_id"`
	FoodQualityRating   int                 `json:"food_quality_rating"`
	ServiceRating       int                 `json:"service_rating"`
	AmbianceRating      int                 `json:"ambiance_rating"`
	CleanlinessRating   int                 `json:"cleanliness_rating"`
	ValueForMoneyRating int                 `json:"value_for_money_rating"`
	Comments            string              `json:"comments"`
	Dishes              []DishRatingRequest `json:"dishes"`
}
