package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/paycms/console/internal/cms"
	"github.com/paycms/console/internal/ingestion"
	"github.com/paycms/console/internal/logging"
	"github.com/paycms/console/internal/reconciliation"
	"github.com/paycms/console/internal/repository"
)

// NewRouter creates the Chi router with the mock CMS API, the console API and
// the metrics endpoint mounted.
func NewRouter(
	cmsSvc *cms.Service,
	importSvc *ingestion.Service,
	reconSvc *reconciliation.Service,
	users *repository.UserRepo,
	log *zap.Logger,
) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handlers{
		cms:        cmsSvc,
		importer:   importSvc,
		reconciler: reconSvc,
		users:      users,
		log:        log,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(log))
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		r.Get("/api/mock", h.MockStatus)

		// Mock CMS provider.
		r.Route("/thebill/retailers/{serviceId}", func(r chi.Router) {
			r.Use(requireAPIKey)

			r.Post("/members/{memberId}/agree", h.UploadEvidence)
			r.Post("/members/{memberId}/agree-enc", h.UploadEvidenceEncoded)
			r.Delete("/members/{memberId}/agreement", h.DeleteEvidence)

			r.Get("/members", h.ChangeHistory)
			r.Post("/members/{memberId}", h.RegisterMember)
			r.Get("/members/{memberId}", h.GetMember)
			r.Post("/members/{memberId}/modify", h.ModifyMember)
			r.Delete("/members/{memberId}", h.CancelMember)

			r.Post("/payments/{sendDt}/{messageNo}", h.CreatePayment)
			r.Get("/payments/{sendDt}/{messageNo}", h.GetPayment)
			r.Delete("/payments/{sendDt}/{messageNo}", h.DeletePayment)
			r.Post("/payments/{sendDt}/{messageNo}/cancel", h.CancelPayment)

			r.Get("/settlements/due-date", h.SettlementDueDate)
		})

		r.Route("/api/v1", func(r chi.Router) {
			// Calendar.
			r.Get("/calendar/months/{year}/{month}", h.MonthlyCalendar)
			r.Get("/calendar/days/{date}", h.CalendarDay)
			r.Get("/calendar/registration-check", h.RegistrationCheck)
			r.Get("/calendar/member-window", h.MemberWindow)
			r.Get("/calendar/result-availability", h.ResultAvailability)
			r.Get("/calendar/holidays", h.ListHolidays)

			// Members and payments.
			r.Get("/members", h.ListMembers)
			r.Post("/members/import", h.ImportMembers)
			r.Get("/payments", h.ListPayments)
			r.Get("/evidence", h.GetEvidence)

			// Operator accounts.
			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
			r.Get("/users/{id}", h.GetUser)
			r.Put("/users/{id}", h.UpdateUser)
			r.Delete("/users/{id}", h.DeleteUser)

			// Settlements.
			r.Get("/settlements/{sendDt}/summary", h.SettlementSummary)
		})
	})

	return r
}
