package schedule

import (
	"context"
	"fmt"

	"studyroom/internal/models"
)

// Store is the read side of the storage port the checker needs.
type Store interface {
	FindByResource(ctx context.Context, pool models.Pool, resource string, dates []string) ([]models.Booking, error)
	FindByLeader(ctx context.Context, pool models.Pool, leaderID string, dates []string) ([]models.Booking, error)
}

// Conflict describes the existing booking that blocks a candidate.
type Conflict struct {
	Booking   models.Booking
	StartHour int
	EndHour   int
}

// Interval renders the blocking slot for user-facing messages. The end
// hour is shown raw, so a slot rolling past midnight reads e.g. 23:00-26:00.
func (c *Conflict) Interval() string {
	return fmt.Sprintf("%s %02d:00-%02d:00", c.Booking.Date, c.StartHour, c.EndHour)
}

// Checker tests candidate cell-sets against stored bookings. A candidate
// based on date D can only touch D and D+1, but a stored booking dated
// D-1 can roll into D, so three dates are fetched per check.
type Checker struct {
	store Store
}

// NewChecker creates a conflict checker over the given store.
func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// SameResource reports the first booking on (pool, resource) whose cells
// intersect the candidate set. excludeID skips the caller's own booking
// during extension. Intervals are half-open, so adjacency never conflicts.
func (c *Checker) SameResource(ctx context.Context, pool models.Pool, resource, baseDate string, candidate []Cell, excludeID int64) (*Conflict, error) {
	existing, err := c.store.FindByResource(ctx, pool, resource, fetchDates(baseDate))
	if err != nil {
		return nil, fmt.Errorf("find by resource: %w", err)
	}
	return firstOverlap(existing, candidate, excludeID)
}

// CrossPool reports the first booking held by leaderID in the given pool
// whose cells intersect the candidate set. Callers check the opposite
// pool from the one they are about to write to.
func (c *Checker) CrossPool(ctx context.Context, pool models.Pool, leaderID, baseDate string, candidate []Cell) (*Conflict, error) {
	existing, err := c.store.FindByLeader(ctx, pool, leaderID, fetchDates(baseDate))
	if err != nil {
		return nil, fmt.Errorf("find by leader: %w", err)
	}
	return firstOverlap(existing, candidate, 0)
}

func fetchDates(baseDate string) []string {
	return []string{PrevDate(baseDate), baseDate, NextDate(baseDate)}
}

// firstOverlap fails closed: a stored row whose hour does not parse is an
// error here, unlike the best-effort availability views.
func firstOverlap(existing []models.Booking, candidate []Cell, excludeID int64) (*Conflict, error) {
	set := NewCellSet(candidate)
	for _, b := range existing {
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		start, dur, err := b.Slot()
		if err != nil {
			return nil, fmt.Errorf("booking %d has malformed hour %q: %w", b.ID, b.Hour, err)
		}
		if set.Intersects(Expand(b.Date, start, dur)) {
			return &Conflict{Booking: b, StartHour: start, EndHour: start + dur}, nil
		}
	}
	return nil, nil
}
