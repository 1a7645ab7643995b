package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"studyroom/internal/metrics"
	"studyroom/internal/models"
)

type extendFormPage struct {
	Notice string
}

type extendConfirmPage struct {
	Booking *models.Booking
}

func (s *Server) handleExtendForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("extend_page")
	s.renderPage(w, http.StatusOK, "extend_form.html", extendFormPage{Notice: r.URL.Query().Get("notice")})
}

func (s *Server) handleExtendLookup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("extend_page")
	if err := r.ParseForm(); err != nil {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", "Could not read the form.", "/extend_page")
		return
	}

	name := strings.TrimSpace(r.FormValue("leader_name"))
	id := strings.TrimSpace(r.FormValue("leader_id"))
	if name == "" || id == "" {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", "Name and student id are both required.", "/extend_page")
		return
	}

	b, err := s.svc.FindActive(r.Context(), name, id)
	if err != nil {
		s.renderDomainError(w, r, err, "/extend_page",
			"/extend_page?notice="+noticeNoActive)
		return
	}
	s.renderPage(w, http.StatusOK, "extend_confirm.html", extendConfirmPage{Booking: b})
}

const noticeNoActive = "No+reservation+is+currently+in+its+extension+window."

func (s *Server) handleExtendConfirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	metrics.IncHTTP("extend_confirm")
	if err := r.ParseForm(); err != nil {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", "Could not read the form.", "/extend_page")
		return
	}

	pool := models.Pool(r.FormValue("res_type"))
	if pool != models.PoolGroup && pool != models.PoolSeat {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", "Unknown reservation type.", "/extend_page")
		return
	}
	id, err := strconv.ParseInt(r.FormValue("res_id"), 10, 64)
	if err != nil {
		s.renderMessage(w, http.StatusBadRequest, "Invalid input", "Unknown reservation.", "/extend_page")
		return
	}
	hours := formInt(r, "extend_hours", 0)

	b, err := s.svc.Extend(r.Context(), pool, id, hours)
	if err != nil {
		s.renderDomainError(w, r, err, "/extend_page",
			"/extend_page?notice="+noticeNoActive)
		return
	}

	s.cache.Invalidate(r.Context())
	s.renderMessage(w, http.StatusOK, "Extension complete",
		"Your reservation now runs for "+strconv.Itoa(b.Duration)+" hour(s).", "/")
}
