// Package view aggregates occupancy grids for display: which (date, hour)
// cells of a resource are taken over a rolling window, and by whom.
package view

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"studyroom/internal/models"
	"studyroom/internal/schedule"
)

// Store is the read capability the builder needs.
type Store interface {
	FindByResource(ctx context.Context, pool models.Pool, resource string, dates []string) ([]models.Booking, error)
}

// Grid is the occupancy of one resource over consecutive dates. Owners
// maps occupied cells to their display label.
type Grid struct {
	Pool     models.Pool
	Resource string
	Days     []string
	Hours    []int
	Owners   map[schedule.Cell]string
}

// Occupied reports whether a cell is taken.
func (g *Grid) Occupied(date string, hour int) bool {
	_, ok := g.Owners[schedule.Cell{Date: date, Hour: hour}]
	return ok
}

// Owner returns the display label for a cell, or "" when free.
func (g *Grid) Owner(date string, hour int) string {
	return g.Owners[schedule.Cell{Date: date, Hour: hour}]
}

// Builder builds availability grids. Rendering is best-effort: a stored
// row whose hour does not parse is logged and skipped, never failing the
// whole view.
type Builder struct {
	store  Store
	clock  schedule.Clock
	logger *zerolog.Logger
}

func NewBuilder(store Store, clock schedule.Clock, logger *zerolog.Logger) *Builder {
	return &Builder{store: store, clock: clock, logger: logger}
}

// Resource builds the grid for one resource over a window of days
// starting today. Bookings dated one day either side of the window are
// fetched too, so slots rolling across midnight land in the right cells.
func (b *Builder) Resource(ctx context.Context, pool models.Pool, resource string, days int) (*Grid, error) {
	window := schedule.Dates(schedule.Today(b.clock), days)
	if len(window) == 0 {
		return nil, fmt.Errorf("empty date window")
	}

	fetch := make([]string, 0, len(window)+2)
	fetch = append(fetch, schedule.PrevDate(window[0]))
	fetch = append(fetch, window...)
	fetch = append(fetch, schedule.NextDate(window[len(window)-1]))

	bookings, err := b.store.FindByResource(ctx, pool, resource, fetch)
	if err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}

	grid := &Grid{
		Pool:     pool,
		Resource: resource,
		Days:     window,
		Hours:    hours24(),
		Owners:   make(map[schedule.Cell]string),
	}
	displayed := make(map[string]struct{}, len(window))
	for _, d := range window {
		displayed[d] = struct{}{}
	}

	for i := range bookings {
		b.markBooking(grid, &bookings[i], displayed)
	}
	return grid, nil
}

// AllResources builds one grid per resource, preserving input order.
func (b *Builder) AllResources(ctx context.Context, pool models.Pool, resources []string, days int) ([]*Grid, error) {
	grids := make([]*Grid, 0, len(resources))
	for _, r := range resources {
		g, err := b.Resource(ctx, pool, r, days)
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
	return grids, nil
}

// markBooking expands one row into cells. Label collisions keep the
// first writer.
func (b *Builder) markBooking(grid *Grid, booking *models.Booking, displayed map[string]struct{}) {
	start, dur, err := booking.Slot()
	if err != nil {
		b.logger.Warn().
			Int64("id", booking.ID).
			Str("pool", string(booking.Pool)).
			Str("hour", booking.Hour).
			Msg("skipping booking with malformed hour")
		return
	}

	label := booking.Label()
	for _, cell := range schedule.Expand(booking.Date, start, dur) {
		if _, ok := displayed[cell.Date]; !ok {
			continue
		}
		if _, taken := grid.Owners[cell]; taken {
			continue
		}
		grid.Owners[cell] = label
	}
}

func hours24() []int {
	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}
	return hours
}
