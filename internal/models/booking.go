package models

import (
	"strconv"
	"strings"
	"time"
)

// Pool identifies which reservation pool a booking belongs to.
type Pool string

const (
	PoolGroup Pool = "group"
	PoolSeat  Pool = "seat"
)

// MaxMembers is the number of extra member slots on a group booking.
const MaxMembers = 5

// Member is an additional participant on a group booking.
type Member struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Identity is the triple used to look up and authorize cancellation.
type Identity struct {
	LeaderName  string `json:"leader_name"`
	LeaderID    string `json:"leader_id"`
	LeaderPhone string `json:"leader_phone"`
}

// Booking is a reservation row from either pool. Resource is the room id
// for PoolGroup and the seat number (1..7) for PoolSeat. Date is a civil
// date "YYYY-MM-DD"; Hour is kept as stored text and parsed on use.
type Booking struct {
	ID          int64     `json:"id"`
	Pool        Pool      `json:"pool"`
	Resource    string    `json:"resource"`
	Date        string    `json:"date"`
	Hour        string    `json:"hour"`
	Duration    int       `json:"duration"`
	LeaderName  string    `json:"leader_name"`
	LeaderID    string    `json:"leader_id"`
	LeaderPhone string    `json:"leader_phone"`
	Members     []Member  `json:"members,omitempty"`
	TotalPeople int       `json:"total_people"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slot parses the stored hour and returns (startHour, duration).
// A missing or non-positive duration counts as one hour.
func (b *Booking) Slot() (start, duration int, err error) {
	start, err = strconv.Atoi(strings.TrimSpace(b.Hour))
	if err != nil {
		return 0, 0, err
	}
	duration = b.Duration
	if duration < 1 {
		duration = 1
	}
	return start, duration, nil
}

// EndHour returns start+duration; may exceed 24 when the booking rolls
// past midnight.
func (b *Booking) EndHour() (int, error) {
	start, dur, err := b.Slot()
	if err != nil {
		return 0, err
	}
	return start + dur, nil
}

// Label is the owner tag shown in availability grids. The name is
// omitted when it duplicates the id.
func (b *Booking) Label() string {
	name := strings.TrimSpace(b.LeaderName)
	id := strings.ToUpper(strings.TrimSpace(b.LeaderID))
	if name == "" || name == id {
		return id
	}
	return id + " " + name
}
