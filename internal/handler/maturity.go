package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/service"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
	"github.com/segyhp/deposit-engine/pkg/response"
)

// MaturityHandler serves maturity alerts and maturity actions.
type MaturityHandler struct {
	catalog       *service.CatalogService
	scanner       *service.MaturityScanner
	processor     *service.MaturityProcessor
	scanDaysAhead int
	validator     *validator.Validate
}

func NewMaturityHandler(
	catalog *service.CatalogService,
	scanner *service.MaturityScanner,
	processor *service.MaturityProcessor,
	scanDaysAhead int,
) *MaturityHandler {
	return &MaturityHandler{
		catalog:       catalog,
		scanner:       scanner,
		processor:     processor,
		scanDaysAhead: scanDaysAhead,
		validator:     NewValidator(),
	}
}

func (h *MaturityHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/maturities/scan", h.Scan).Methods(http.MethodPost)
	api.HandleFunc("/maturities/notifications", h.PendingNotifications).Methods(http.MethodGet)
	api.HandleFunc("/maturities/options", h.UpdateOptions).Methods(http.MethodPut)

	api.HandleFunc("/alerts", h.ListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{alertId}", h.GetAlert).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{alertId}/acknowledge", h.AcknowledgeAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{alertId}/cancel", h.CancelAlert).Methods(http.MethodPost)

	api.HandleFunc("/positions/{positionId}/alerts", h.CreateAlert).Methods(http.MethodPost)
	api.HandleFunc("/positions/{positionId}/maturity", h.ProcessMaturity).Methods(http.MethodPost)
}

// Scan raises alerts for time deposits maturing within days_ahead days.
func (h *MaturityHandler) Scan(w http.ResponseWriter, r *http.Request) {
	daysAhead, err := queryInt(r, "days_ahead", h.scanDaysAhead)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	alerts, err := h.scanner.ScanUpcomingMaturityDeposits(r.Context(), daysAhead)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, alerts)
}

func (h *MaturityHandler) PendingNotifications(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.scanner.GetPendingNotifications(r.Context())
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, alerts)
}

func (h *MaturityHandler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	var req domain.BatchMaturityOptionsRequest
	if err := decodeAndValidate(r, h.validator, &req, false); err != nil {
		response.WriteError(w, err)
		return
	}

	result, err := h.processor.BatchUpdateMaturityOptions(r.Context(), user, req.Updates)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, result)
}

// ListAlerts returns the caller's alerts, filtered by ?status= when given.
func (h *MaturityHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	var status *domain.AlertStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.AlertStatus(s)
		switch st {
		case domain.AlertStatusPending, domain.AlertStatusNotified, domain.AlertStatusProcessed, domain.AlertStatusCancelled:
			status = &st
		default:
			response.WriteError(w, customError.WrapInvalidArgument("unknown alert status "+s))
			return
		}
	}

	alerts, err := h.scanner.ListAlerts(r.Context(), user, status)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, alerts)
}

func (h *MaturityHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	user, alertID, err := h.alertRequest(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	alert, err := h.scanner.GetAlert(r.Context(), user, alertID)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, alert)
}

func (h *MaturityHandler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	user, alertID, err := h.alertRequest(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	alert, err := h.scanner.AcknowledgeAlert(r.Context(), user, alertID)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, alert)
}

func (h *MaturityHandler) CancelAlert(w http.ResponseWriter, r *http.Request) {
	user, alertID, err := h.alertRequest(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	alert, err := h.scanner.CancelAlert(r.Context(), user, alertID)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, alert)
}

func (h *MaturityHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	positionID, err := pathUUID(r, "positionId")
	if err != nil {
		response.WriteError(w, err)
		return
	}

	var req domain.CreateAlertRequest
	if err := decodeAndValidate(r, h.validator, &req, true); err != nil {
		response.WriteError(w, err)
		return
	}

	alert, err := h.scanner.CreateAlert(r.Context(), user, positionID, req)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Created(w, alert)
}

// ProcessMaturity applies RENEW, TRANSFER_TO_DEMAND or WITHDRAW to one of the
// caller's positions.
func (h *MaturityHandler) ProcessMaturity(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		response.WriteError(w, err)
		return
	}
	positionID, err := pathUUID(r, "positionId")
	if err != nil {
		response.WriteError(w, err)
		return
	}

	var req domain.ProcessMaturityRequest
	if err := decodeAndValidate(r, h.validator, &req, false); err != nil {
		response.WriteError(w, err)
		return
	}

	if _, err := h.catalog.GetPosition(r.Context(), user, positionID); err != nil {
		response.WriteError(w, err)
		return
	}

	result, err := h.processor.ProcessMaturity(r.Context(), positionID, req.Action, req.NewTermMonths)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *MaturityHandler) alertRequest(r *http.Request) (string, uuid.UUID, error) {
	user, err := userID(r)
	if err != nil {
		return "", uuid.Nil, err
	}
	alertID, err := pathUUID(r, "alertId")
	if err != nil {
		return "", uuid.Nil, err
	}
	return user, alertID, nil
}
