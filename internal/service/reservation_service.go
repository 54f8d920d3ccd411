package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/Eursukkul/restaurant-service/pkg/database"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxGuests       = 20
	emptyNoteValue  = "None"
	maxNoteLength   = 500
	maxNameLength   = 100
	dateLayout      = time.DateOnly
	clockLayout     = "15:04"
	clockLayoutSecs = time.TimeOnly
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{7,20}$`)

type ReservationSettings struct {
	MaxTables     int
	OverlapWindow time.Duration
	OpeningTime   time.Duration
	ClosingTime   time.Duration
}

type ReservationInput struct {
	CustomerName    string
	PhoneNumber     string
	Email           string
	NumberOfGuests  int
	Date            string
	Time            string
	SpecialRequests string
	Notes           string
}

type ReservationQuery struct {
	Date   string
	Status string
}

type ReservationService interface {
	CreateReservation(ctx context.Context, who models.Identity, in ReservationInput) (*models.Reservation, error)
	ListReservations(ctx context.Context, who models.Identity, q ReservationQuery) ([]models.Reservation, error)
	GetReservation(ctx context.Context, who models.Identity, id uint) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id uint, status models.ReservationStatus) (*models.Reservation, error)
	CancelReservation(ctx context.Context, id uint) (*models.Reservation, error)
	CheckAvailability(ctx context.Context, date, clock string) (int, error)
}

type reservationService struct {
	repo     repository.ReservationRepository
	settings ReservationSettings
	events   eventEmitter
	log      *slog.Logger
	now      func() time.Time
}

func NewReservationService(repo repository.ReservationRepository, settings ReservationSettings, publisher EventPublisher, log *slog.Logger) ReservationService {
	log = log.With("component", "reservations")
	return &reservationService{
		repo:     repo,
		settings: settings,
		events:   eventEmitter{publisher: publisher, log: log},
		log:      log,
		now:      time.Now,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, who models.Identity, in ReservationInput) (*models.Reservation, error) {
	day, clock, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	res := &models.Reservation{
		CustomerName:    strings.TrimSpace(in.CustomerName),
		PhoneNumber:     strings.TrimSpace(in.PhoneNumber),
		Email:           strings.TrimSpace(in.Email),
		NumberOfGuests:  in.NumberOfGuests,
		ReservationDate: datatypes.Date(day),
		ReservationTime: datatypes.Time(clock),
		Status:          models.ReservationPending,
		SpecialRequests: noteOrNone(in.SpecialRequests),
		Notes:           noteOrNone(in.Notes),
		CreatedBy:       who.UserRef(),
	}

	err = database.WithRetry(ctx, database.RetryOnConflict, func() error {
		res.ID = 0
		return s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.LockDay(ctx, tx, day); err != nil {
				return err
			}

			existing, err := s.repo.FindActiveOnDate(ctx, tx, day)
			if err != nil {
				return err
			}

			table, err := AssignTable(existing, clock, s.settings.OverlapWindow, s.settings.MaxTables)
			if err != nil {
				return err
			}

			res.TableNumber = table
			return s.repo.Create(ctx, tx, res)
		})
	})
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			return nil, err
		}
		return nil, storageErr("create reservation", err)
	}

	s.log.Info("reservation created", "id", res.ID, "date", day.Format(dateLayout), "table", res.TableNumber)
	s.events.emit(ctx, EventReservationCreated, reservationSubject(res.ID), res)
	return res, nil
}

// ListReservations returns every reservation for admins, filtered by date and
// status, and only the caller's own bookings for users.
func (s *reservationService) ListReservations(ctx context.Context, who models.Identity, q ReservationQuery) ([]models.Reservation, error) {
	var f repository.ReservationFilter

	if q.Date != "" {
		day, err := time.Parse(dateLayout, q.Date)
		if err != nil {
			return nil, fieldError("date", "must be formatted as YYYY-MM-DD")
		}
		f.Date = &day
	}
	if q.Status != "" {
		status := models.ReservationStatus(q.Status)
		if !status.Valid() {
			return nil, fieldError("status", "must be Pending, Confirmed or Cancelled")
		}
		f.Status = status
	}
	if !who.IsAdmin() {
		uid := who.UserID
		f.CreatedBy = &uid
	}

	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, storageErr("list reservations", err)
	}
	return list, nil
}

func (s *reservationService) GetReservation(ctx context.Context, who models.Identity, id uint) (*models.Reservation, error) {
	res, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.IsAdmin() && (res.CreatedBy == nil || *res.CreatedBy != who.UserID) {
		return nil, ErrReservationNotFound
	}
	return res, nil
}

func (s *reservationService) UpdateStatus(ctx context.Context, id uint, status models.ReservationStatus) (*models.Reservation, error) {
	if !status.Valid() {
		return nil, fieldError("status", "must be Pending, Confirmed or Cancelled")
	}

	var result *models.Reservation
	err := s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		if !res.Status.CanTransitionTo(status) {
			return ErrInvalidTransition
		}

		if err := s.repo.UpdateStatus(ctx, tx, id, status); err != nil {
			return err
		}
		res.Status = status
		result = res
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrReservationNotFound) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return nil, storageErr("update reservation status", err)
	}

	s.log.Info("reservation status changed", "id", id, "status", status)
	s.events.emit(ctx, EventReservationStatusChanged, reservationSubject(id), result)
	return result, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	return s.UpdateStatus(ctx, id, models.ReservationCancelled)
}

// CheckAvailability reports the table a booking at date and clock would get
// right now, without reserving it.
func (s *reservationService) CheckAvailability(ctx context.Context, date, clock string) (int, error) {
	var v validator
	day, err := time.Parse(dateLayout, date)
	v.check(err == nil, "date", "must be formatted as YYYY-MM-DD")
	at, ok := parseClock(clock)
	v.check(ok, "time", "must be formatted as HH:MM")
	if err := v.err(); err != nil {
		return 0, err
	}

	existing, err := s.repo.FindActiveOnDate(ctx, s.repo.GetDB(), day)
	if err != nil {
		return 0, storageErr("check availability", err)
	}
	return AssignTable(existing, at, s.settings.OverlapWindow, s.settings.MaxTables)
}

func (s *reservationService) find(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, storageErr("find reservation", err)
	}
	return res, nil
}

func (s *reservationService) validate(in ReservationInput) (time.Time, time.Duration, error) {
	var v validator

	name := strings.TrimSpace(in.CustomerName)
	v.check(name != "", "customer_name", "is required")
	v.maxChars(name, maxNameLength, "customer_name")
	v.check(phonePattern.MatchString(strings.TrimSpace(in.PhoneNumber)), "phone_number", "is not a valid phone number")
	v.check(validEmail(in.Email), "email", "is not a valid email address")
	v.check(in.NumberOfGuests >= 1 && in.NumberOfGuests <= maxGuests, "number_of_guests", "must be between 1 and 20")
	v.maxChars(in.SpecialRequests, maxNoteLength, "special_requests")
	v.maxChars(in.Notes, maxNoteLength, "notes")

	day, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		v.add("reservation_date", "must be formatted as YYYY-MM-DD")
	} else {
		v.check(!day.Before(dateOf(s.now())), "reservation_date", "must not be in the past")
	}

	clock, ok := parseClock(in.Time)
	if !ok {
		v.add("reservation_time", "must be formatted as HH:MM")
	} else {
		v.check(clock >= s.settings.OpeningTime && clock <= s.settings.ClosingTime,
			"reservation_time", "must be within opening hours")
	}

	return day, clock, v.err()
}

func parseClock(value string) (time.Duration, bool) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		t, err = time.Parse(clockLayoutSecs, value)
		if err != nil {
			return 0, false
		}
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// dateOf returns the calendar date of t, in t's zone, as UTC midnight.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validEmail(value string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	return err == nil && addr.Address == strings.TrimSpace(value)
}

func noteOrNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return emptyNoteValue
	}
	return strings.TrimSpace(value)
}
