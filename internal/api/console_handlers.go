package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/cms"
	"github.com/paycms/console/internal/domain"
	"github.com/paycms/console/internal/repository"
)

// --- MockStatus ---

func (h *Handlers) MockStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cms.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "running",
		"stats":  stats,
	})
}

// --- ListMembers ---

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := parseStatus(q.Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "status must be a number")
		return
	}
	filter := repository.MemberFilter{
		ServiceID: q.Get("serviceId"),
		ServiceCd: q.Get("serviceCd"),
		Page: repository.Page{
			Page:  parseIntDefault(q.Get("page"), 1),
			Limit: parseIntDefault(q.Get("limit"), 50),
		},
	}
	if status != nil {
		s := domain.MemberStatus(*status)
		filter.Status = &s
	}

	members, total, err := h.cms.ListMembers(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"members": members,
		"total":   total,
		"page":    filter.Page.Page,
		"limit":   filter.Page.Limit,
	})
}

// --- ImportMembers ---

func (h *Handlers) ImportMembers(w http.ResponseWriter, r *http.Request) {
	// Accept multipart form.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	serviceID := r.FormValue("serviceId")
	format := r.FormValue("format")
	if serviceID == "" || format == "" {
		writeError(w, http.StatusBadRequest, "serviceId and format are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.importer.Import(r.Context(), serviceID, data, format)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- GetEvidence ---

func (h *Handlers) GetEvidence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	serviceID, memberID := q.Get("serviceId"), q.Get("memberId")
	if serviceID == "" || memberID == "" {
		writeError(w, http.StatusBadRequest, "serviceId and memberId are required")
		return
	}

	f, err := h.cms.GetEvidence(r.Context(), serviceID, memberID)
	if errors.Is(err, cms.ErrEvidenceMissing) {
		writeError(w, http.StatusNotFound, "evidence file not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// --- ListPayments ---

func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status, err := parseStatus(q.Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "status must be a number")
		return
	}
	filter := repository.PaymentFilter{
		ServiceID: q.Get("serviceId"),
		MemberID:  q.Get("memberId"),
		SendDt:    q.Get("sendDt"),
		Page: repository.Page{
			Page:  parseIntDefault(q.Get("page"), 1),
			Limit: parseIntDefault(q.Get("limit"), 50),
		},
	}
	if status != nil {
		s := domain.PaymentStatus(*status)
		filter.Status = &s
	}

	payments, total, err := h.cms.ListPayments(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"total":    total,
		"page":     filter.Page.Page,
		"limit":    filter.Page.Limit,
	})
}

// --- SettlementSummary ---

func (h *Handlers) SettlementSummary(w http.ResponseWriter, r *http.Request) {
	serviceID := r.URL.Query().Get("serviceId")
	if serviceID == "" {
		writeError(w, http.StatusBadRequest, "serviceId is required")
		return
	}

	summary, err := h.reconciler.Summarize(r.Context(), serviceID, chi.URLParam(r, "sendDt"))
	if errors.Is(err, calendar.ErrMalformedDate) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
