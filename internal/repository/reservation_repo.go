package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationFilter struct {
	Date      *time.Time
	Status    models.ReservationStatus
	CreatedBy *uint
}

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, r *models.Reservation) error
	FindByID(ctx context.Context, id uint) (*models.Reservation, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error)
	LockDay(ctx context.Context, tx *gorm.DB, day time.Time) error
	FindActiveOnDate(ctx context.Context, tx *gorm.DB, day time.Time) ([]models.Reservation, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ReservationStatus) error
	List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error)
	CountOnDate(ctx context.Context, day time.Time) (int64, error)
	FindUpcomingByUser(ctx context.Context, userID uint, from time.Time, limit int) ([]models.Reservation, error)
	GetDB() *gorm.DB
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, res *models.Reservation) error {
	return tx.WithContext(ctx).Create(res).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// LockDay makes sure the anchor row for day exists and holds a row lock on it
// until tx ends. Every table assignment for the same date queues behind it.
func (r *reservationRepository) LockDay(ctx context.Context, tx *gorm.DB, day time.Time) error {
	key := day.Format(time.DateOnly)
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ReservationDay{Day: key}).Error; err != nil {
		return err
	}

	var anchor models.ReservationDay
	return tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("day = ?", key).
		First(&anchor).Error
}

func (r *reservationRepository) FindActiveOnDate(ctx context.Context, tx *gorm.DB, day time.Time) ([]models.Reservation, error) {
	var list []models.Reservation
	err := tx.WithContext(ctx).
		Where("reservation_date = ? AND status <> ?", datatypes.Date(day), models.ReservationCancelled).
		Find(&list).Error
	return list, err
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ReservationStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// List filters with a parameterized statement; every user-supplied value is
// bound, never spliced into the SQL text.
func (r *reservationRepository) List(ctx context.Context, f ReservationFilter) ([]models.Reservation, error) {
	query := "SELECT * FROM reservations WHERE 1 = 1"
	var args []interface{}

	if f.Date != nil {
		query += " AND reservation_date = ?"
		args = append(args, datatypes.Date(*f.Date))
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.CreatedBy != nil {
		query += " AND created_by = ?"
		args = append(args, *f.CreatedBy)
	}
	query += " ORDER BY reservation_date DESC, reservation_time ASC, id ASC"

	var list []models.Reservation
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reservationRepository) CountOnDate(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("reservation_date = ? AND status <> ?", datatypes.Date(day), models.ReservationCancelled).
		Count(&count).Error
	return count, err
}

func (r *reservationRepository) FindUpcomingByUser(ctx context.Context, userID uint, from time.Time, limit int) ([]models.Reservation, error) {
	var list []models.Reservation
	err := r.db.WithContext(ctx).
		Where("created_by = ? AND reservation_date >= ? AND status <> ?", userID, datatypes.Date(from), models.ReservationCancelled).
		Order("reservation_date ASC, reservation_time ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
