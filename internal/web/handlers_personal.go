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

type seatsPage struct {
	Grids   []*view.Grid
	SeatIDs []string
}

func (s *Server) handleSeatAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("personal_all")
	inv := s.getInventory()
	if inv == nil {
		s.renderMessage(w, http.StatusServiceUnavailable, "Not ready", "Seat inventory is not loaded yet.", "/")
		return
	}

	cacheKey := "seat:all"
	if body, ok := s.cache.Get(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
		return
	}

	grids, err := s.views.AllResources(r.Context(), models.PoolSeat, inv.SeatIDs(), s.cfg.SeatWindow())
	if err != nil {
		s.renderDomainError(w, r, err, "/", "/")
		return
	}
	s.renderSeats(w, r, cacheKey, seatsPage{Grids: grids, SeatIDs: inv.SeatIDs()})
}

func (s *Server) handleSeatDetail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("personal_detail")
	seat := r.URL.Query().Get("seat")
	if !s.knownSeat(seat) {
		s.renderMessage(w, http.StatusNotFound, "Unknown seat", "That seat does not exist.", "/personal_all")
		return
	}

	cacheKey := "seat:" + seat
	if body, ok := s.cache.Get(r.Context(), cacheKey); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
		return
	}

	grid, err := s.views.Resource(r.Context(), models.PoolSeat, seat, s.cfg.SeatWindow())
	if err != nil {
		s.renderDomainError(w, r, err, "/personal_all", "/personal_all")
		return
	}
	s.renderSeats(w, r, cacheKey, seatsPage{Grids: []*view.Grid{grid}, SeatIDs: []string{seat}})
}

func (s *Server) renderSeats(w http.ResponseWriter, r *http.Request, cacheKey string, page seatsPage) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "seats.html", page); err != nil {
		s.logger.Error().Err(err).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.cache.Set(r.Context(), cacheKey, buf.Bytes())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleSeatReserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("personal_reserve")
	if err := r.ParseForm(); err != nil {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", "Could not read the form.", "/personal_all")
		return
	}

	seat := r.FormValue("seat")
	if !s.knownSeat(seat) {
		s.renderMessage(w, http.StatusNotFound, "Unknown seat", "That seat does not exist.", "/personal_all")
		return
	}

	ident := formIdentity(r)
	req := booking.CreateRequest{
		Pool:        models.PoolSeat,
		Resource:    seat,
		Date:        r.FormValue("date"),
		Hour:        formInt(r, "hour", -1),
		Duration:    formInt(r, "duration", 0),
		LeaderName:  ident.LeaderName,
		LeaderID:    ident.LeaderID,
		LeaderPhone: ident.LeaderPhone,
	}

	b, err := s.svc.Create(r.Context(), req)
	if err != nil {
		s.renderDomainError(w, r, err, "/personal_all", "/personal_all")
		return
	}

	s.cache.Invalidate(r.Context())
	s.renderMessage(w, http.StatusOK, "Reservation complete",
		"Seat "+b.Resource+" reserved on "+b.Date+" from "+b.Hour+":00.", "/personal_all")
}
