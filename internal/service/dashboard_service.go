package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
	dashboardListSize    = 5
)

type AdminDashboard struct {
	TodayReservations int64           `json:"today_reservations"`
	PendingOrders     int64           `json:"pending_orders"`
	ProcessingOrders  int64           `json:"processing_orders"`
	TodayRevenue      decimal.Decimal `json:"today_revenue"`
	StaffCount        int64           `json:"staff_count"`
}

type UserDashboard struct {
	UpcomingReservations []models.Reservation `json:"upcoming_reservations"`
	RecentOrders         []models.Order       `json:"recent_orders"`
}

type DashboardService interface {
	AdminDashboard(ctx context.Context) (*AdminDashboard, error)
	UserDashboard(ctx context.Context, who models.Identity) (*UserDashboard, error)
	RecentActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

type dashboardService struct {
	reservations repository.ReservationRepository
	orders       repository.OrderRepository
	staff        repository.StaffRepository
	activity     repository.ActivityRepository
	log          *slog.Logger
	now          func() time.Time
}

func NewDashboardService(
	reservations repository.ReservationRepository,
	orders repository.OrderRepository,
	staff repository.StaffRepository,
	activity repository.ActivityRepository,
	log *slog.Logger,
) DashboardService {
	return &dashboardService{
		reservations: reservations,
		orders:       orders,
		staff:        staff,
		activity:     activity,
		log:          log.With("component", "dashboard"),
		now:          time.Now,
	}
}

func (s *dashboardService) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	now := s.now()
	today := dateOf(now)
	var (
		out AdminDashboard
		err error
	)

	if out.TodayReservations, err = s.reservations.CountOnDate(ctx, today); err != nil {
		return nil, storageErr("count reservations", err)
	}
	if out.PendingOrders, err = s.orders.CountByStatus(ctx, models.OrderPending); err != nil {
		return nil, storageErr("count pending orders", err)
	}
	if out.ProcessingOrders, err = s.orders.CountByStatus(ctx, models.OrderProcessing); err != nil {
		return nil, storageErr("count processing orders", err)
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).UTC()
	if out.TodayRevenue, err = s.orders.RevenueBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1)); err != nil {
		return nil, storageErr("today revenue", err)
	}
	if out.StaffCount, err = s.staff.Count(ctx); err != nil {
		return nil, storageErr("count staff", err)
	}
	return &out, nil
}

// UserDashboard lists the caller's next reservations and latest orders.
func (s *dashboardService) UserDashboard(ctx context.Context, who models.Identity) (*UserDashboard, error) {
	out := &UserDashboard{
		UpcomingReservations: []models.Reservation{},
		RecentOrders:         []models.Order{},
	}
	if who.UserID == 0 {
		return out, nil
	}

	upcoming, err := s.reservations.FindUpcomingByUser(ctx, who.UserID, dateOf(s.now()), dashboardListSize)
	if err != nil {
		return nil, storageErr("upcoming reservations", err)
	}
	recent, err := s.orders.FindByUser(ctx, who.UserID, "", dashboardListSize)
	if err != nil {
		return nil, storageErr("recent orders", err)
	}

	if upcoming != nil {
		out.UpcomingReservations = upcoming
	}
	if recent != nil {
		out.RecentOrders = recent
	}
	return out, nil
}

func (s *dashboardService) RecentActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	limit = min(limit, maxActivityLimit)

	entries, err := s.activity.ListRecent(ctx, limit)
	if err != nil {
		return nil, storageErr("recent activity", err)
	}
	return entries, nil
}
