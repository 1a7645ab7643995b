package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"studyroom/internal/booking"
	"studyroom/internal/metrics"
	"studyroom/internal/models"
)

type cancelFormPage struct {
	Notice string
}

type cancelListPage struct {
	Identity models.Identity
	Bookings []models.Booking
}

func (s *Server) handleCancelForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("cancel_all")
	s.renderPage(w, http.StatusOK, "cancel_form.html", cancelFormPage{Notice: r.URL.Query().Get("notice")})
}

func (s *Server) handleCancelLookup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("cancel_all")
	if err := r.ParseForm(); err != nil {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", "Could not read the form.", "/cancel_all")
		return
	}

	ident := formIdentity(r)
	bookings, err := s.svc.ListByIdentity(r.Context(), ident)
	if err != nil {
		s.renderDomainError(w, r, err, "/cancel_all", "/cancel_all")
		return
	}
	if len(bookings) == 0 {
		s.renderPage(w, http.StatusOK, "cancel_form.html",
			cancelFormPage{Notice: "No reservations found for that name, id and phone."})
		return
	}
	s.renderPage(w, http.StatusOK, "cancel_list.html", cancelListPage{Identity: ident, Bookings: bookings})
}

func (s *Server) handleCancelConfirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("cancel_all_confirm")
	if err := r.ParseForm(); err != nil {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", "Could not read the form.", "/cancel_all")
		return
	}

	ident := formIdentity(r)
	selections := parseSelections(r.Form["sel"])
	count, err := s.svc.CancelBulk(r.Context(), ident, selections)
	if err != nil {
		s.renderDomainError(w, r, err, "/cancel_all", "/cancel_all")
		return
	}

	if count > 0 {
		s.cache.Invalidate(r.Context())
	}
	s.renderMessage(w, http.StatusOK, "Cancellation complete",
		strconv.Itoa(count)+" reservation(s) cancelled.", "/")
}

// parseSelections turns checkbox values of the form "pool:id" into
// selections, dropping anything malformed.
func parseSelections(values []string) []booking.Selection {
	var selections []booking.Selection
	for _, v := range values {
		pool, rawID, ok := strings.Cut(v, ":")
		if !ok {
			continue
		}
		p := models.Pool(pool)
		if p != models.PoolGroup && p != models.PoolSeat {
			continue
		}
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			continue
		}
		selections = append(selections, booking.Selection{Pool: p, ID: id})
	}
	return selections
}
