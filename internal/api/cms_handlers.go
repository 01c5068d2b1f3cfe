package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paycms/console/internal/cms"
	"github.com/paycms/console/internal/domain"
)

// --- evidence ---

func (h *Handlers) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeResult(w, cms.ErrParameter, nil)
		return
	}

	up := cms.EvidenceUpload{
		AgreeType: domain.EvidenceType(r.FormValue("agreetype")),
		FileExt:   r.FormValue("fileext"),
	}
	if file, _, err := r.FormFile("filename"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "read file: "+err.Error())
			return
		}
		up.Content = data
	}

	_, err := h.cms.UploadEvidence(r.Context(), chi.URLParam(r, "serviceId"), chi.URLParam(r, "memberId"), up)
	h.writeResult(w, err, nil)
}

type encodedEvidence struct {
	AgreeType domain.EvidenceType `json:"agreetype"`
	FileExt   string              `json:"fileext"`
	EncData   string              `json:"encData"`
}

func (h *Handlers) UploadEvidenceEncoded(w http.ResponseWriter, r *http.Request) {
	var body encodedEvidence
	if err := decodeBody(r, &body, false); err != nil {
		h.writeResult(w, cms.ErrParameter, nil)
		return
	}
	_, err := h.cms.UploadEvidenceEncoded(r.Context(),
		chi.URLParam(r, "serviceId"), chi.URLParam(r, "memberId"),
		body.AgreeType, body.FileExt, body.EncData,
	)
	h.writeResult(w, err, nil)
}

func (h *Handlers) DeleteEvidence(w http.ResponseWriter, r *http.Request) {
	err := h.cms.DeleteEvidence(r.Context(), chi.URLParam(r, "serviceId"), chi.URLParam(r, "memberId"))
	h.writeResult(w, err, nil)
}

// --- members ---

func (h *Handlers) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var req domain.MemberRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeResult(w, cms.ErrParameter, nil)
		return
	}

	reg, err := h.cms.RegisterMember(r.Context(), chi.URLParam(r, "serviceId"), chi.URLParam(r, "memberId"), req)
	if err != nil {
		h.writeResult(w, err, nil)
		return
	}
	extra := map[string]any{
		"bankSendDt": reg.BankSendDt,
		"resultDt":   reg.ResultDt,
		"resultTime": reg.ResultTime,
	}
	if reg.Window.Note != "" {
		extra["note"] = reg.Window.Note
	}
	h.writeResult(w, nil, extra)
}

func (h *Handlers) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.cms.GetMember(r.Context(), chi.URLParam(r, "serviceId"), chi.URLParam(r, "memberId"))
	if err != nil {
		h.writeResult(w, err, nil)
		return
	}
	h.writeResult(w, nil, map[string]any{"memberInfo": m})
}

func (h *Handlers) ModifyMember(w http.ResponseWriter, r *http.Request) {
	var upd cms.MemberUpdate
	if err := decodeBody(r, &upd, false); err != nil {
		h.writeResult(w, cms.ErrParameter, nil)
		return
	}
	err := h.cms.ModifyMember(r.Context(), chi.URLParam(r, "serviceId"), chi.URLParam(r, "memberId"), upd)
	h.writeResult(w, err, nil)
}

func (h *Handlers) CancelMember(w http.ResponseWriter, r *http.Request) {
	err := h.cms.CancelMember(r.Context(), chi.URLParam(r, "serviceId"), chi.URLParam(r, "memberId"))
	h.writeResult(w, err, nil)
}

// ChangeHistory answers with a bare array on success, as the provider does.
func (h *Handlers) ChangeHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	changes, err := h.cms.ChangeHistory(chi.URLParam(r, "serviceId"), q.Get("status"), q.Get("searchDt"))
	if err != nil {
		h.writeResult(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

// --- payments ---

func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req domain.PaymentRequest
	if err := decodeBody(r, &req, false); err != nil {
		h.writeResult(w, cms.ErrParameter, nil)
		return
	}

	reg, err := h.cms.CreatePayment(r.Context(),
		chi.URLParam(r, "serviceId"), chi.URLParam(r, "sendDt"), chi.URLParam(r, "messageNo"), req)
	if err != nil {
		h.writeResult(w, err, nil)
		return
	}
	h.writeResult(w, nil, map[string]any{
		"registrationDt": reg.RegistrationDate,
		"deadline":       reg.Deadline,
	})
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.cms.GetPayment(r.Context(),
		chi.URLParam(r, "serviceId"), chi.URLParam(r, "sendDt"), chi.URLParam(r, "messageNo"))
	if err != nil {
		h.writeResult(w, err, nil)
		return
	}
	h.writeResult(w, nil, map[string]any{"payInfo": p})
}

func (h *Handlers) DeletePayment(w http.ResponseWriter, r *http.Request) {
	err := h.cms.DeletePayment(r.Context(),
		chi.URLParam(r, "serviceId"), chi.URLParam(r, "sendDt"), chi.URLParam(r, "messageNo"))
	h.writeResult(w, err, nil)
}

type cancelRequest struct {
	CancelDt string `json:"cancelDt"`
}

func (h *Handlers) CancelPayment(w http.ResponseWriter, r *http.Request) {
	var body cancelRequest
	if err := decodeBody(r, &body, true); err != nil {
		h.writeResult(w, cms.ErrParameter, nil)
		return
	}
	err := h.cms.CancelPayment(r.Context(),
		chi.URLParam(r, "serviceId"), chi.URLParam(r, "sendDt"), chi.URLParam(r, "messageNo"), body.CancelDt)
	h.writeResult(w, err, nil)
}

// --- settlements ---

func (h *Handlers) SettlementDueDate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	due, err := h.cms.SettlementStatus(q.Get("sendDt"), q.Get("serviceCd"))
	if err != nil {
		h.writeResult(w, err, nil)
		return
	}
	extra := map[string]any{
		"settleDt": due.SettleDt,
		"settleSt": due.SettleSt,
	}
	if due.RealSettleDt != "" {
		extra["realSettleDt"] = due.RealSettleDt
	}
	h.writeResult(w, nil, extra)
}
