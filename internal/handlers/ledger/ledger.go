package ledger

//go:generate mockgen -source=ledger.go -destination=mock_ledger.go -package=ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/dto"
	"github.com/mh26/services/internal/handlers/common"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/internal/service/bookingservice"
	"github.com/mh26/services/pkg/utils"
)

type Service interface {
	RecordPayment(ctx context.Context, actor lifecycle.Actor, id int64, in bookingservice.PaymentInput) (*domain.Transaction, error)
	Refund(ctx context.Context, id int64, amount float64) (*domain.Transaction, error)
	SettlePayout(ctx context.Context, id int64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, actor lifecycle.Actor, id int64) ([]domain.Transaction, error)
	Reconcile(ctx context.Context, providerID int64) (*domain.EarningsSnapshot, error)
}

type LedgerHandler struct {
	ledgerService Service
}

func New(ledgerService Service) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// RecordPayment godoc
//
//	@Summary		Record a customer payment
//	@Description	Idempotent on external_id: replaying a recorded payment returns the stored transaction.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Booking id"
//	@Param			request	body		dto.PaymentRequestDTO	true	"Payment"
//	@Success		200		{object}	dto.TransactionResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request"
//	@Failure		409		{object}	utils.Response	"Booking cannot take a payment"
//	@Failure		422		{object}	utils.Response	"Amount mismatch"
//	@Router			/api/bookings/{id}/payments [post]
func (h *LedgerHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req dto.PaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ExternalID) == "" || strings.TrimSpace(req.Method) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "method and external_id are required")
		return
	}

	payment, err := h.ledgerService.RecordPayment(r.Context(), common.Actor(r), id, bookingservice.PaymentInput{
		Amount:     req.Amount,
		Method:     req.Method,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(payment))
}

// Refund godoc
//
//	@Summary		Refund a payment
//	@Description	Amount 0 or omitted refunds the whole payment. A pending payout is voided.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Booking id"
//	@Param			request	body		dto.RefundRequestDTO	false	"Refund"
//	@Success		200		{object}	dto.TransactionResponseDTO
//	@Failure		403		{object}	utils.Response	"Admin only"
//	@Failure		409		{object}	utils.Response	"Booking is not paid"
//	@Failure		422		{object}	utils.Response	"Amount exceeds payment"
//	@Router			/api/bookings/{id}/refunds [post]
func (h *LedgerHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req dto.RefundRequestDTO
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	refund, err := h.ledgerService.Refund(r.Context(), id, req.Amount)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(refund))
}

// SettlePayout godoc
//
//	@Summary		Settle the pending payout of a booking
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Booking id"
//	@Success		200	{object}	dto.TransactionResponseDTO
//	@Failure		403	{object}	utils.Response	"Admin only"
//	@Failure		409	{object}	utils.Response	"Nothing to settle"
//	@Router			/api/bookings/{id}/payout [post]
func (h *LedgerHandler) SettlePayout(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	payout, err := h.ledgerService.SettlePayout(r.Context(), id)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(payout))
}

// Transactions godoc
//
//	@Summary		Ledger entries of a booking
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Booking id"
//	@Success		200	{array}		dto.TransactionResponseDTO
//	@Failure		403	{object}	utils.Response	"Not a party to the booking"
//	@Failure		404	{object}	utils.Response	"Booking not found"
//	@Router			/api/bookings/{id}/transactions [get]
func (h *LedgerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	transactions, err := h.ledgerService.ListTransactions(r.Context(), common.Actor(r), id)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	response := make([]dto.TransactionResponseDTO, 0, len(transactions))
	for i := range transactions {
		response = append(response, dto.NewTransactionResponse(&transactions[i]))
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Reconcile godoc
//
//	@Summary		Recompute provider earnings from the ledger
//	@Description	Stored counters are overwritten when they drift from the payout ledger.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Provider id"
//	@Success		200	{object}	domain.EarningsSnapshot
//	@Failure		403	{object}	utils.Response	"Admin only"
//	@Failure		404	{object}	utils.Response	"Provider not found"
//	@Router			/api/admin/providers/{id}/reconcile [post]
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	snapshot, err := h.ledgerService.Reconcile(r.Context(), id)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, snapshot)
}
