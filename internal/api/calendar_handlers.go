package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paycms/console/internal/calendar"
	"github.com/paycms/console/internal/domain"
)

func (h *Handlers) MonthlyCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be a number")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be a number")
		return
	}

	cal := h.cms.Calendar()
	policy := h.cms.Policy()
	days, err := cal.MonthlyCalendar(year, time.Month(month), policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":            year,
		"month":           month,
		"policy":          policy.Name(),
		"holidaysCovered": cal.Holidays().Covers(year),
		"days":            days,
	})
}

type dayView struct {
	Date                string                  `json:"date"`
	Weekday             string                  `json:"weekday"`
	IsBusinessDay       bool                    `json:"isBusinessDay"`
	Holiday             string                  `json:"holiday,omitempty"`
	NextBusinessDay     string                  `json:"nextBusinessDay"`
	PreviousBusinessDay string                  `json:"previousBusinessDay"`
	WithdrawalDeadline  string                  `json:"withdrawalDeadline"`
	Settlement          *calendar.DaySettlement `json:"settlementDate"`
}

func (h *Handlers) CalendarDay(w http.ResponseWriter, r *http.Request) {
	d, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cal := h.cms.Calendar()
	policy := h.cms.Policy()
	bank, err := cal.SettlementDate(d, domain.ServiceBank, policy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	card, err := cal.SettlementDate(d, domain.ServiceCard, policy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	view := dayView{
		Date:                calendar.FormatCanonical(d),
		Weekday:             d.Weekday().String(),
		IsBusinessDay:       cal.IsBusinessDay(d),
		NextBusinessDay:     calendar.FormatCanonical(cal.NextBusinessDay(d)),
		PreviousBusinessDay: calendar.FormatCanonical(cal.PreviousBusinessDay(d)),
		WithdrawalDeadline:  cal.WithdrawalDeadline(d),
		Settlement: &calendar.DaySettlement{
			Bank: calendar.FormatCanonical(bank.SettleDate),
			Card: calendar.FormatCanonical(card.SettleDate),
		},
	}
	if name, ok := cal.Holidays().Name(d); ok {
		view.Holiday = name
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) RegistrationCheck(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("withdrawalDate")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "withdrawalDate is required")
		return
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cal := h.cms.Calendar()
	now := h.cms.Now()
	adm := cal.RegistrationDeadlineCheck(d, now)
	writeJSON(w, http.StatusOK, map[string]any{
		"withdrawalDate":   calendar.FormatCanonical(d),
		"registrationDate": calendar.FormatCanonical(cal.RequiredRegistrationDate(d)),
		"deadline":         cal.WithdrawalDeadline(d),
		"checkedAt":        now.Format(time.RFC3339),
		"allowed":          adm.Allowed,
		"reason":           adm.Reason,
	})
}

func (h *Handlers) MemberWindow(w http.ResponseWriter, r *http.Request) {
	now := h.cms.Now()
	adm := h.cms.Calendar().MemberRegistrationWindow(now)
	writeJSON(w, http.StatusOK, map[string]any{
		"checkedAt": now.Format(time.RFC3339),
		"allowed":   adm.Allowed,
		"note":      adm.Note,
	})
}

func (h *Handlers) ResultAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	requested := h.cms.Now()
	if raw := q.Get("requestDate"); raw != "" {
		d, err := calendar.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		requested = d
	}
	kind := calendar.RequestKind(q.Get("kind"))
	if kind == "" {
		kind = calendar.RequestMember
	}

	avail, err := h.cms.Calendar().ResultAvailability(requested, kind, domain.ServiceCode(q.Get("serviceCd")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requestDate":   calendar.FormatCanonical(requested),
		"kind":          kind,
		"availableDate": calendar.FormatCanonical(avail.Date),
		"availableTime": avail.Time,
	})
}

func (h *Handlers) ListHolidays(w http.ResponseWriter, r *http.Request) {
	hs := h.cms.Calendar().Holidays()
	first, last := hs.Horizon()
	writeJSON(w, http.StatusOK, map[string]any{
		"firstYear": first,
		"lastYear":  last,
		"count":     hs.Len(),
		"holidays":  hs.Holidays(),
	})
}
