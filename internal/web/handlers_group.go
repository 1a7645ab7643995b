package web

import (
	"bytes"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"studyroom/internal/booking"
	"studyroom/internal/metrics"
	"studyroom/internal/models"
	"studyroom/internal/view"
)

type roomDetailPage struct {
	Grid        *view.Grid
	MemberSlots []int
}

func memberSlots() []int {
	slots := make([]int, models.MaxMembers)
	for i := range slots {
		slots[i] = i + 1
	}
	return slots
}

func (s *Server) handleRoomDetail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("room_detail")
	room := r.URL.Query().Get("room")
	if !s.knownRoom(room) {
		s.renderMessage(w, http.StatusNotFound, "Unknown room", "That room does not exist.", "/")
		return
	}

	cacheKey := "group:" + room
	if body, ok := s.cache.Get(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
		return
	}

	grid, err := s.views.Resource(r.Context(), models.PoolGroup, room, s.cfg.RoomWindow())
	if err != nil {
		s.renderDomainError(w, r, err, "/", "/")
		return
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "room_detail.html", roomDetailPage{Grid: grid, MemberSlots: memberSlots()}); err != nil {
		s.logger.Error().Err(err).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.cache.Set(r.Context(), cacheKey, buf.Bytes())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("reserve")
	if err := r.ParseForm(); err != nil {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", "Could not read the form.", "/")
		return
	}

	room := r.FormValue("room")
	backURL := "/room_detail?room=" + room
	if !s.knownRoom(room) {
		s.renderMessage(w, http.StatusNotFound, "Unknown room", "That room does not exist.", "/")
		return
	}

	ident := formIdentity(r)
	req := booking.CreateRequest{
		Pool:        models.PoolGroup,
		Resource:    room,
		Date:        r.FormValue("date"),
		Hour:        formInt(r, "hour", -1),
		Duration:    formInt(r, "duration", 0),
		LeaderName:  ident.LeaderName,
		LeaderID:    ident.LeaderID,
		LeaderPhone: ident.LeaderPhone,
		Members:     formMembers(r),
	}

	b, err := s.svc.Create(r.Context(), req)
	if err != nil {
		s.renderDomainError(w, r, err, backURL, backURL)
		return
	}

	s.cache.Invalidate(r.Context())
	s.renderMessage(w, http.StatusOK, "Reservation complete",
		"Room "+b.Resource+" reserved on "+b.Date+" from "+b.Hour+":00.", backURL)
}
