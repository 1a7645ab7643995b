// Package booking implements the reservation lifecycle: creation with
// conflict checks, extension of currently active bookings, and bulk
// cancellation by identity.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studyroom/internal/metrics"
	"studyroom/internal/models"
	"studyroom/internal/schedule"
)

// ExtendWindow is how long before a booking's end the holder may request
// an extension.
const ExtendWindow = 20 * time.Minute

// Store is the storage port the lifecycle manager is built on.
type Store interface {
	schedule.Store
	FindByLeaderName(ctx context.Context, leaderName, leaderID string, dates []string) ([]models.Booking, error)
	FindByIdentity(ctx context.Context, ident models.Identity) ([]models.Booking, error)
	GetBooking(ctx context.Context, pool models.Pool, id int64) (*models.Booking, error)
	InsertBooking(ctx context.Context, b *models.Booking) error
	UpdateBookingSlot(ctx context.Context, pool models.Pool, id int64, date string, duration int) error
	DeleteBooking(ctx context.Context, pool models.Pool, id int64, ident models.Identity) (bool, error)
}

// Service is the reservation lifecycle manager.
type Service struct {
	store   Store
	checker *schedule.Checker
	clock   schedule.Clock
	locks   *resourceLocks
	logger  *zerolog.Logger
}

// NewService creates a lifecycle manager over the given store.
func NewService(store Store, clock schedule.Clock, logger *zerolog.Logger) *Service {
	return &Service{
		store:   store,
		checker: schedule.NewChecker(store),
		clock:   clock,
		locks:   newResourceLocks(),
		logger:  logger,
	}
}

// CreateRequest carries the form input for a new booking. Members apply
// to the group pool only.
type CreateRequest struct {
	Pool        models.Pool
	Resource    string
	Date        string
	Hour        int
	Duration    int
	LeaderName  string
	LeaderID    string
	LeaderPhone string
	Members     []models.Member
}

// Create validates, checks both conflict scopes and persists a booking.
// The check and the insert run under a per-resource (and per-leader)
// advisory lock so concurrent requests cannot double-book.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	name := strings.TrimSpace(req.LeaderName)
	leaderID := strings.ToUpper(strings.TrimSpace(req.LeaderID))
	phone := strings.TrimSpace(req.LeaderPhone)

	if name == "" || leaderID == "" || phone == "" {
		return nil, &ValidationError{Reason: "leader name, id and phone are required"}
	}
	if name == leaderID {
		return nil, &ValidationError{Reason: "leader name and id must differ"}
	}
	if req.Hour < 0 || req.Hour > 23 {
		return nil, &ValidationError{Reason: "start hour must be between 0 and 23"}
	}
	if req.Duration < 1 {
		return nil, &ValidationError{Reason: "duration must be at least 1 hour"}
	}
	if _, err := schedule.Midnight(req.Date); err != nil {
		return nil, &ValidationError{Reason: "date must be YYYY-MM-DD"}
	}
	if req.Resource == "" {
		return nil, &ValidationError{Reason: "resource is required"}
	}

	cells := schedule.Expand(req.Date, req.Hour, req.Duration)

	release := s.locks.Acquire(resourceKey(req.Pool, req.Resource), leaderKey(leaderID))
	defer release()

	// A person cannot hold a room and a seat at the same time, so the
	// caller's own bookings in the other pool compete too.
	conflict, err := s.checker.CrossPool(ctx, otherPool(req.Pool), leaderID, req.Date, cells)
	if err != nil {
		return nil, fmt.Errorf("cross-pool check: %w", err)
	}
	if conflict != nil {
		s.logConflict(req, conflict, true)
		return nil, &ConflictError{Conflict: conflict, CrossPool: true}
	}

	conflict, err = s.checker.SameResource(ctx, req.Pool, req.Resource, req.Date, cells, 0)
	if err != nil {
		return nil, fmt.Errorf("same-resource check: %w", err)
	}
	if conflict != nil {
		s.logConflict(req, conflict, false)
		return nil, &ConflictError{Conflict: conflict}
	}

	members := filterMembers(req.Members)
	b := &models.Booking{
		Pool:        req.Pool,
		Resource:    req.Resource,
		Date:        req.Date,
		Hour:        strconv.Itoa(req.Hour),
		Duration:    req.Duration,
		LeaderName:  name,
		LeaderID:    leaderID,
		LeaderPhone: phone,
		Members:     members,
		TotalPeople: 1 + len(members),
	}
	if err := s.store.InsertBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	metrics.IncBookingCreated(string(req.Pool))
	s.logger.Info().
		Str("pool", string(req.Pool)).
		Str("resource", req.Resource).
		Str("date", req.Date).
		Int("hour", req.Hour).
		Int("duration", req.Duration).
		Str("leader_id", leaderID).
		Msg("booking created")
	return b, nil
}

// FindActive locates the caller's currently active booking by (name, id).
// A booking is active when now is within [end - ExtendWindow, end] in the
// fixed civil calendar.
func (s *Service) FindActive(ctx context.Context, leaderName, leaderID string) (*models.Booking, error) {
	name := strings.TrimSpace(leaderName)
	id := strings.ToUpper(strings.TrimSpace(leaderID))
	if name == "" || id == "" {
		return nil, &ValidationError{Reason: "leader name and id are required"}
	}

	now := s.clock.Now().In(schedule.KST)
	today := now.Format(schedule.DateFormat)
	yesterday := now.AddDate(0, 0, -1).Format(schedule.DateFormat)

	// A booking ending now may be dated yesterday if it rolled past
	// midnight, so both dates are candidates.
	candidates, err := s.store.FindByLeaderName(ctx, name, id, []string{yesterday, today})
	if err != nil {
		return nil, fmt.Errorf("find active: %w", err)
	}

	for i := range candidates {
		active, err := s.isActive(&candidates[i], now)
		if err != nil {
			continue // malformed row; the views skip these too
		}
		if active {
			return &candidates[i], nil
		}
	}
	return nil, &NotFoundError{What: "active booking"}
}

// Extend lengthens an active booking by extendHours. The extension
// interval must be free on the same resource; the booking's own row is
// excluded from the check. The start hour never changes; the stored date
// rolls forward when the extension starts past midnight.
func (s *Service) Extend(ctx context.Context, pool models.Pool, id int64, extendHours int) (*models.Booking, error) {
	if extendHours < 1 {
		return nil, &ValidationError{Reason: "extension must be at least 1 hour"}
	}

	b, err := s.store.GetBooking(ctx, pool, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{What: "booking"}
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	// Re-validate the window at confirmation time; stale links must not
	// extend a booking that already ended.
	now := s.clock.Now().In(schedule.KST)
	active, err := s.isActive(b, now)
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	if !active {
		return nil, &NotFoundError{What: "active booking"}
	}

	start, dur, err := b.Slot()
	if err != nil {
		return nil, fmt.Errorf("booking %d: %w", b.ID, err)
	}
	extension := schedule.Expand(b.Date, start+dur, extendHours)

	release := s.locks.Acquire(resourceKey(pool, b.Resource))
	defer release()

	conflict, err := s.checker.SameResource(ctx, pool, b.Resource, b.Date, extension, b.ID)
	if err != nil {
		return nil, fmt.Errorf("extension check: %w", err)
	}
	if conflict != nil {
		s.logger.Info().
			Str("pool", string(pool)).
			Int64("id", id).
			Str("blocking", conflict.Interval()).
			Msg("extension blocked")
		return nil, &ExtensionBlockedError{Conflict: conflict}
	}

	newDate := b.Date
	if start+dur >= 24 {
		newDate = schedule.NextDate(b.Date)
	}
	if err := s.store.UpdateBookingSlot(ctx, pool, b.ID, newDate, dur+extendHours); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	b.Date = newDate
	b.Duration = dur + extendHours
	metrics.IncBookingExtended(string(pool))
	s.logger.Info().
		Str("pool", string(pool)).
		Int64("id", id).
		Int("extend_hours", extendHours).
		Str("date", newDate).
		Msg("booking extended")
	return b, nil
}

// ListByIdentity returns every booking matching the full identity triple,
// across both pools, ordered by (date, start hour). No matches is a valid
// empty result, not an error.
func (s *Service) ListByIdentity(ctx context.Context, ident models.Identity) ([]models.Booking, error) {
	ident = normalizeIdentity(ident)
	if ident.LeaderName == "" || ident.LeaderID == "" || ident.LeaderPhone == "" {
		return nil, &ValidationError{Reason: "name, id and phone are all required"}
	}
	return s.store.FindByIdentity(ctx, ident)
}

// Selection picks one booking for bulk cancellation.
type Selection struct {
	Pool models.Pool
	ID   int64
}

// CancelBulk deletes the selected bookings that also match the full
// identity triple and reports how many rows were removed. Selections
// that match nothing are skipped, not errors.
func (s *Service) CancelBulk(ctx context.Context, ident models.Identity, selections []Selection) (int, error) {
	ident = normalizeIdentity(ident)
	if ident.LeaderName == "" || ident.LeaderID == "" || ident.LeaderPhone == "" {
		return 0, &ValidationError{Reason: "name, id and phone are all required"}
	}

	deleted := 0
	for _, sel := range selections {
		ok, err := s.store.DeleteBooking(ctx, sel.Pool, sel.ID, ident)
		if err != nil {
			return deleted, fmt.Errorf("delete %s/%d: %w", sel.Pool, sel.ID, err)
		}
		if ok {
			deleted++
		}
	}
	if deleted > 0 {
		metrics.AddBookingsCancelled(deleted)
		s.logger.Info().
			Str("leader_id", ident.LeaderID).
			Int("deleted", deleted).
			Msg("bookings cancelled")
	}
	return deleted, nil
}

// EndTime returns the booking's end instant in the fixed civil calendar.
func EndTime(b *models.Booking) (time.Time, error) {
	start, dur, err := b.Slot()
	if err != nil {
		return time.Time{}, err
	}
	midnight, err := schedule.Midnight(b.Date)
	if err != nil {
		return time.Time{}, err
	}
	return midnight.Add(time.Duration(start+dur) * time.Hour), nil
}

func (s *Service) isActive(b *models.Booking, now time.Time) (bool, error) {
	end, err := EndTime(b)
	if err != nil {
		return false, err
	}
	return !now.Before(end.Add(-ExtendWindow)) && !now.After(end), nil
}

func (s *Service) logConflict(req CreateRequest, conflict *schedule.Conflict, crossPool bool) {
	metrics.IncConflict(string(req.Pool))
	s.logger.Info().
		Str("pool", string(req.Pool)).
		Str("resource", req.Resource).
		Str("date", req.Date).
		Bool("cross_pool", crossPool).
		Str("blocking", conflict.Interval()).
		Msg("booking conflict")
}

func otherPool(p models.Pool) models.Pool {
	if p == models.PoolGroup {
		return models.PoolSeat
	}
	return models.PoolGroup
}

func resourceKey(pool models.Pool, resource string) string {
	return string(pool) + ":" + resource
}

func leaderKey(id string) string {
	return "leader:" + id
}

func filterMembers(members []models.Member) []models.Member {
	var out []models.Member
	for _, m := range members {
		name := strings.TrimSpace(m.Name)
		id := strings.ToUpper(strings.TrimSpace(m.ID))
		if name == "" && id == "" {
			continue
		}
		out = append(out, models.Member{Name: name, ID: id})
		if len(out) == models.MaxMembers {
			break
		}
	}
	return out
}

func normalizeIdentity(ident models.Identity) models.Identity {
	return models.Identity{
		LeaderName:  strings.TrimSpace(ident.LeaderName),
		LeaderID:    strings.ToUpper(strings.TrimSpace(ident.LeaderID)),
		LeaderPhone: strings.TrimSpace(ident.LeaderPhone),
	}
}
