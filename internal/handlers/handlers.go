package handlers

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/mh26/services/docs"
	bookinghandlers "github.com/mh26/services/internal/handlers/bookings"
	ledgerhandlers "github.com/mh26/services/internal/handlers/ledger"
	notificationhandlers "github.com/mh26/services/internal/handlers/notifications"
	providerhandlers "github.com/mh26/services/internal/handlers/providers"
	reviewhandlers "github.com/mh26/services/internal/handlers/reviews"
	"github.com/mh26/services/internal/service"
	"github.com/mh26/services/pkg/auth"
)

type BookingHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	GetByReference(w http.ResponseWriter, r *http.Request)
	Transition(w http.ResponseWriter, r *http.Request)
	Events(w http.ResponseWriter, r *http.Request)
}

type LedgerHandler interface {
	RecordPayment(w http.ResponseWriter, r *http.Request)
	Refund(w http.ResponseWriter, r *http.Request)
	SettlePayout(w http.ResponseWriter, r *http.Request)
	Transactions(w http.ResponseWriter, r *http.Request)
	Reconcile(w http.ResponseWriter, r *http.Request)
}

type ReviewHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
}

type ProviderHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Services(w http.ResponseWriter, r *http.Request)
	Categories(w http.ResponseWriter, r *http.Request)
	ChangeStatus(w http.ResponseWriter, r *http.Request)
}

type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	MarkRead(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	BookingHandler      BookingHandler
	LedgerHandler       LedgerHandler
	ReviewHandler       ReviewHandler
	ProviderHandler     ProviderHandler
	NotificationHandler NotificationHandler

	authenticate func(http.Handler) http.Handler
}

func New(s *service.Services, tokens auth.JWTServiceInterface) *Handlers {
	return &Handlers{
		BookingHandler:      bookinghandlers.New(s.BookingService),
		LedgerHandler:       ledgerhandlers.New(s.LedgerService),
		ReviewHandler:       reviewhandlers.New(s.ReviewService),
		ProviderHandler:     providerhandlers.New(s.ProviderService),
		NotificationHandler: notificationhandlers.New(s.NotificationService),
		authenticate:        auth.AuthMiddleware(tokens, s.ProviderResolver),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Route("/bookings", func(r chi.Router) {
			r.With(auth.RequireRole(auth.RoleCustomer)).Post("/", h.BookingHandler.Create)
			r.Get("/ref/{reference}", h.BookingHandler.GetByReference)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.BookingHandler.Get)
				r.Post("/transitions", h.BookingHandler.Transition)
				r.Get("/events", h.BookingHandler.Events)
				r.Get("/transactions", h.LedgerHandler.Transactions)
				r.With(auth.RequireRole(auth.RoleCustomer)).Post("/payments", h.LedgerHandler.RecordPayment)
				r.With(auth.RequireRole(auth.RoleCustomer)).Post("/review", h.ReviewHandler.Submit)
				r.With(auth.RequireRole(auth.RoleAdmin)).Post("/refunds", h.LedgerHandler.Refund)
				r.With(auth.RequireRole(auth.RoleAdmin)).Post("/payout", h.LedgerHandler.SettlePayout)
			})
		})

		r.Get("/categories", h.ProviderHandler.Categories)
		r.Route("/providers/{id}", func(r chi.Router) {
			r.Get("/", h.ProviderHandler.Get)
			r.Get("/services", h.ProviderHandler.Services)
		})

		r.Route("/admin/providers/{id}", func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin))
			r.Put("/status", h.ProviderHandler.ChangeStatus)
			r.Post("/reconcile", h.LedgerHandler.Reconcile)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.NotificationHandler.List)
			r.Post("/{id}/read", h.NotificationHandler.MarkRead)
		})
	})

	return r
}
