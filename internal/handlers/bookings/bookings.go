package bookings

//go:generate mockgen -source=bookings.go -destination=mock_bookings.go -package=bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/dto"
	"github.com/mh26/services/internal/handlers/common"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/internal/service/bookingservice"
	"github.com/mh26/services/pkg/utils"
	"github.com/mh26/services/pkg/validate"
)

type Service interface {
	CreateBooking(ctx context.Context, actor lifecycle.Actor, in bookingservice.CreateInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, actor lifecycle.Actor, id int64) (*domain.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*domain.Booking, error)
	Transition(ctx context.Context, actor lifecycle.Actor, id int64, in bookingservice.TransitionInput) (*domain.Booking, error)
	History(ctx context.Context, actor lifecycle.Actor, id int64) ([]domain.BookingEvent, error)
}

type BookingHandler struct {
	bookingService Service
}

func New(bookingService Service) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// Create godoc
//
//	@Summary		Book a service
//	@Description	Create a PENDING booking for an active service of an approved provider.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateBookingRequestDTO	true	"Booking request"
//	@Success		201		{object}	dto.BookingResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request"
//	@Failure		403		{object}	utils.Response	"Only customers can book"
//	@Failure		404		{object}	utils.Response	"Service not found"
//	@Failure		422		{object}	utils.Response	"Provider is not accepting bookings"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/bookings [post]
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ServiceID <= 0 || req.ScheduledAt.IsZero() || strings.TrimSpace(req.Address) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "service_id, scheduled_at and address are required")
		return
	}

	booking, err := h.bookingService.CreateBooking(r.Context(), common.Actor(r), bookingservice.CreateInput{
		ServiceID:   req.ServiceID,
		ScheduledAt: req.ScheduledAt,
		Address:     strings.TrimSpace(req.Address),
	})
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewBookingResponse(booking))
}

// Get godoc
//
//	@Summary		Get a booking
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Booking id"
//	@Success		200	{object}	dto.BookingResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid id"
//	@Failure		403	{object}	utils.Response	"Not a party to the booking"
//	@Failure		404	{object}	utils.Response	"Booking not found"
//	@Router			/api/bookings/{id} [get]
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	booking, err := h.bookingService.GetBooking(r.Context(), common.Actor(r), id)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBookingResponse(booking))
}

// GetByReference godoc
//
//	@Summary		Find a booking by reference
//	@Description	The reference is a 10 digit number with a Luhn check digit.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			reference	path		string	true	"Booking reference"
//	@Success		200			{object}	dto.BookingResponseDTO
//	@Failure		404			{object}	utils.Response	"Booking not found"
//	@Failure		422			{object}	utils.Response	"Invalid reference"
//	@Router			/api/bookings/ref/{reference} [get]
func (h *BookingHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if !validate.IsReference(reference) {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid booking reference")
		return
	}
	booking, err := h.bookingService.GetBookingByReference(r.Context(), reference)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBookingResponse(booking))
}

// Transition godoc
//
//	@Summary		Move a booking through its lifecycle
//	@Description	Actions: accept, cancel, start, complete, dispute, resolve_complete, resolve_cancel.
//	@Description	A 409 with Retry-After means the booking was busy and the request may be retried.
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Booking id"
//	@Param			request	body		dto.TransitionRequestDTO	true	"Action"
//	@Success		200		{object}	dto.BookingResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request"
//	@Failure		403		{object}	utils.Response	"Actor may not perform the action"
//	@Failure		404		{object}	utils.Response	"Booking not found"
//	@Failure		409		{object}	utils.Response	"Invalid transition, terminal state or concurrent update"
//	@Failure		422		{object}	utils.Response	"Cancellation window expired or amount mismatch"
//	@Router			/api/bookings/{id}/transitions [post]
func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req dto.TransitionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Action == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "action is required")
		return
	}

	booking, err := h.bookingService.Transition(r.Context(), common.Actor(r), id, bookingservice.TransitionInput{
		Action:      lifecycle.Action(req.Action),
		ActualPrice: req.ActualPrice,
		Reason:      req.Reason,
	})
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBookingResponse(booking))
}

// Events godoc
//
//	@Summary		Booking audit trail
//	@Tags			Bookings
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Booking id"
//	@Success		200	{array}		dto.BookingEventResponseDTO
//	@Failure		403	{object}	utils.Response	"Not a party to the booking"
//	@Failure		404	{object}	utils.Response	"Booking not found"
//	@Router			/api/bookings/{id}/events [get]
func (h *BookingHandler) Events(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := h.bookingService.History(r.Context(), common.Actor(r), id)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBookingEventsResponse(events))
}
