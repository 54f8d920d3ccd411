package service

import (
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
)

// AssignTable returns the lowest table number in 1..maxTables that no
// non-cancelled reservation in existing holds within window of at. existing
// must already be limited to the requested date.
func AssignTable(existing []models.Reservation, at, window time.Duration, maxTables int) (int, error) {
	used := make(map[int]bool, len(existing))
	for i := range existing {
		r := &existing[i]
		if r.Status == models.ReservationCancelled {
			continue
		}
		if absDuration(r.TimeOfDay()-at) < window {
			used[r.TableNumber] = true
		}
	}

	for table := 1; table <= maxTables; table++ {
		if !used[table] {
			return table, nil
		}
	}
	return 0, ErrCapacityExceeded
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
