package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/service"
	"github.com/segyhp/deposit-engine/pkg/response"
	"github.com/segyhp/deposit-engine/pkg/utils"
)

// DepositHandler serves the product catalog, positions and interest endpoints.
type DepositHandler struct {
	catalog    *service.CatalogService
	calculator *service.AccrualCalculator
	recorder   *service.InterestLedgerRecorder
	validator  *validator.Validate
}

func NewDepositHandler(
	catalog *service.CatalogService,
	calculator *service.AccrualCalculator,
	recorder *service.InterestLedgerRecorder,
) *DepositHandler {
	return &DepositHandler{
		catalog:    catalog,
		calculator: calculator,
		recorder:   recorder,
		validator:  NewValidator(),
	}
}

func (h *DepositHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/products", h.CreateProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/{productId}", h.GetProduct).Methods(http.MethodGet)

	api.HandleFunc("/positions", h.OpenPosition).Methods(http.MethodPost)
	api.HandleFunc("/positions/{positionId}", h.GetPosition).Methods(http.MethodGet)
	api.HandleFunc("/positions/{positionId}/interest", h.CalculateInterest).Methods(http.MethodGet)
	api.HandleFunc("/positions/{positionId}/interest/records", h.RecordInterest).Methods(http.MethodPost)
	api.HandleFunc("/positions/{positionId}/interest/payments", h.PayInterest).Methods(http.MethodPost)
	api.HandleFunc("/positions/{positionId}/interest/payments", h.PaymentHistory).Methods(http.MethodGet)
	api.HandleFunc("/positions/{positionId}/transactions", h.ListTransactions).Methods(http.MethodGet)

	api.HandleFunc("/users/me/interest", h.BatchCalculateInterest).Methods(http.MethodGet)
}

func (h *DepositHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if err := decodeAndValidate(r, h.validator, &req, false); err != nil {
		response.WriteError(w, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), &req)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Created(w, product)
}

func (h *DepositHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		response.WriteError(w, err)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, product)
}

func (h *DepositHandler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	var req domain.OpenPositionRequest
	if err := decodeAndValidate(r, h.validator, &req, false); err != nil {
		response.WriteError(w, err)
		return
	}

	position, err := h.catalog.OpenPosition(r.Context(), user, &req)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Created(w, position)
}

func (h *DepositHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	position, err := h.ownedPosition(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, position)
}

// CalculateInterest previews the interest accrued up to as_of without storing it.
func (h *DepositHandler) CalculateInterest(w http.ResponseWriter, r *http.Request) {
	result, err := h.calculate(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, result)
}

// RecordInterest calculates and stores the result as a CALCULATED record.
func (h *DepositHandler) RecordInterest(w http.ResponseWriter, r *http.Request) {
	result, err := h.calculate(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	recordID, err := h.recorder.RecordInterestCalculation(r.Context(), result)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Created(w, domain.RecordInterestResponse{RecordID: recordID, Result: result})
}

func (h *DepositHandler) PayInterest(w http.ResponseWriter, r *http.Request) {
	position, err := h.ownedPosition(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	var req domain.PayInterestRequest
	if err := decodeAndValidate(r, h.validator, &req, false); err != nil {
		response.WriteError(w, err)
		return
	}

	var paymentDate time.Time
	if req.PaymentDate != "" {
		// the validator has already checked the layout
		paymentDate, _ = time.Parse(utils.DateLayout, req.PaymentDate)
	}

	record, err := h.recorder.PayInterest(r.Context(), position.ID, req.Amount, paymentDate, req.InterestType)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Created(w, record)
}

// PaymentHistory lists PAID records between from and to. from defaults to the
// earliest date and to defaults to today.
func (h *DepositHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	position, err := h.ownedPosition(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	from, err := queryDate(r, "from")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	records, err := h.recorder.GetInterestPaymentHistory(r.Context(), position.ID, from, to)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, records)
}

func (h *DepositHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	position, err := h.ownedPosition(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	txs, err := h.recorder.ListTransactions(r.Context(), position.ID)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, txs)
}

// BatchCalculateInterest previews interest for every position of the caller.
func (h *DepositHandler) BatchCalculateInterest(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	asOf, err := queryDate(r, "as_of")
	if err != nil {
		response.WriteError(w, err)
		return
	}
	cfg, err := calculationConfig(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	batch, err := h.calculator.BatchCalculateInterest(r.Context(), user, asOf, cfg)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, batch)
}

func (h *DepositHandler) calculate(r *http.Request) (*domain.InterestCalculationResult, error) {
	position, err := h.ownedPosition(r)
	if err != nil {
		return nil, err
	}

	asOf, err := queryDate(r, "as_of")
	if err != nil {
		return nil, err
	}
	cfg, err := calculationConfig(r)
	if err != nil {
		return nil, err
	}

	return h.calculator.CalculateInterest(r.Context(), position.ID, asOf, cfg)
}

// ownedPosition loads the {positionId} position and checks it belongs to the caller.
func (h *DepositHandler) ownedPosition(r *http.Request) (*domain.DepositPosition, error) {
	user, err := userID(r)
	if err != nil {
		return nil, err
	}
	positionID, err := pathUUID(r, "positionId")
	if err != nil {
		return nil, err
	}
	return h.catalog.GetPosition(r.Context(), user, positionID)
}
