package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"studyroom/internal/config"
	"studyroom/internal/metrics"
	"studyroom/internal/models"
)

type indexPage struct {
	Rooms []config.RoomConfig
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("index")
	inv := s.getInventory()
	var rooms []config.RoomConfig
	if inv != nil {
		for _, room := range inv.Rooms {
			if room.IsActive {
				rooms = append(rooms, room)
			}
		}
	}
	s.renderPage(w, http.StatusOK, "index.html", indexPage{Rooms: rooms})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("export")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if err := s.exporter.WriteWorkbook(r.Context(), w); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
	}
}

// knownRoom reports whether id is an active room from the inventory.
func (s *Server) knownRoom(id string) bool {
	inv := s.getInventory()
	if inv == nil {
		return false
	}
	for _, roomID := range inv.ActiveRoomIDs() {
		if roomID == id {
			return true
		}
	}
	return false
}

// knownSeat reports whether id is a configured seat number.
func (s *Server) knownSeat(id string) bool {
	inv := s.getInventory()
	if inv == nil {
		return false
	}
	for _, seatID := range inv.SeatIDs() {
		if seatID == id {
			return true
		}
	}
	return false
}

func formIdentity(r *http.Request) models.Identity {
	return models.Identity{
		LeaderName:  strings.TrimSpace(r.FormValue("leader_name")),
		LeaderID:    strings.TrimSpace(r.FormValue("leader_id")),
		LeaderPhone: strings.TrimSpace(r.FormValue("leader_phone")),
	}
}

// formInt parses a numeric form field, returning fallback when the
// field is absent or malformed. The service layer re-validates ranges.
func formInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	if err != nil {
		return fallback
	}
	return v
}

func formMembers(r *http.Request) []models.Member {
	var members []models.Member
	for i := 1; i <= models.MaxMembers; i++ {
		idx := strconv.Itoa(i)
		name := strings.TrimSpace(r.FormValue("member_" + idx + "_name"))
		id := strings.TrimSpace(r.FormValue("member_" + idx + "_id"))
		if name == "" && id == "" {
			continue
		}
		members = append(members, models.Member{Name: name, ID: id})
	}
	return members
}
