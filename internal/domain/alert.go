package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertStatus is the lifecycle of a maturity alert.
type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "PENDING"
	AlertStatusNotified  AlertStatus = "NOTIFIED"
	AlertStatusProcessed AlertStatus = "PROCESSED"
	AlertStatusCancelled AlertStatus = "CANCELLED"
)

// Active reports whether the alert still blocks a new alert for its position.
func (s AlertStatus) Active() bool {
	switch s {
	case AlertStatusPending, AlertStatusNotified:
		return true
	case AlertStatusProcessed, AlertStatusCancelled:
		return false
	}
	return false
}

// CanTransitionTo lists the allowed alert status moves.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch s {
	case AlertStatusPending:
		return next == AlertStatusNotified || next == AlertStatusProcessed || next == AlertStatusCancelled
	case AlertStatusNotified:
		return next == AlertStatusProcessed || next == AlertStatusCancelled
	case AlertStatusProcessed, AlertStatusCancelled:
		return false
	}
	return false
}

// ActiveAlertStatuses are the statuses covered by the one-active-alert rule.
var ActiveAlertStatuses = []AlertStatus{AlertStatusPending, AlertStatusNotified}

// RenewalOption is what should happen to a time deposit when it matures.
type RenewalOption string

const (
	RenewalAuto             RenewalOption = "AUTO"
	RenewalManual           RenewalOption = "MANUAL"
	RenewalTransferToDemand RenewalOption = "TRANSFER_TO_DEMAND"
)

func (o RenewalOption) Valid() bool {
	switch o {
	case RenewalAuto, RenewalManual, RenewalTransferToDemand:
		return true
	}
	return false
}

// MaturityAction is an explicit maturity transition.
type MaturityAction string

const (
	ActionRenew            MaturityAction = "RENEW"
	ActionTransferToDemand MaturityAction = "TRANSFER_TO_DEMAND"
	ActionWithdraw         MaturityAction = "WITHDRAW"
)

func (a MaturityAction) Valid() bool {
	switch a {
	case ActionRenew, ActionTransferToDemand, ActionWithdraw:
		return true
	}
	return false
}

// MaturityAlert announces an upcoming maturity. At most one alert per position
// may be PENDING or NOTIFIED at any time.
type MaturityAlert struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	PositionID        uuid.UUID       `json:"position_id" db:"position_id"`
	UserID            string          `json:"user_id" db:"user_id"`
	MaturityDate      time.Time       `json:"maturity_date" db:"maturity_date"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	EstimatedInterest decimal.Decimal `json:"estimated_interest" db:"estimated_interest"`
	AlertDaysBefore   int             `json:"alert_days_before" db:"alert_days_before"`
	AlertDate         time.Time       `json:"alert_date" db:"alert_date"`
	RenewalOption     RenewalOption   `json:"renewal_option" db:"renewal_option"`
	NewTermMonths     *int            `json:"new_term_months,omitempty" db:"new_term_months"`
	Status            AlertStatus     `json:"status" db:"status"`
	NotifiedAt        *time.Time      `json:"notified_at,omitempty" db:"notified_at"`
	ProcessedAt       *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateAlertRequest struct {
	RenewalOption RenewalOption `json:"renewal_option" validate:"omitempty,oneof=AUTO MANUAL TRANSFER_TO_DEMAND"`
	NewTermMonths *int          `json:"new_term_months,omitempty" validate:"omitempty,gt=0"`
}

type ProcessMaturityRequest struct {
	Action        MaturityAction `json:"action" validate:"required"`
	NewTermMonths *int           `json:"new_term_months,omitempty" validate:"omitempty,gt=0"`
}

// ProcessMaturityResult reports what a maturity action did.
type ProcessMaturityResult struct {
	PositionID       uuid.UUID              `json:"position_id"`
	Action           MaturityAction         `json:"action"`
	Product          *DepositProductDetails `json:"product,omitempty"`
	WithdrawnAmount  decimal.Decimal        `json:"withdrawn_amount"`
	TransactionID    *uuid.UUID             `json:"transaction_id,omitempty"`
	AlertsReconciled int                    `json:"alerts_reconciled"`
}

type MaturityOptionUpdate struct {
	PositionID    uuid.UUID     `json:"position_id" validate:"required"`
	RenewalOption RenewalOption `json:"renewal_option" validate:"required,oneof=AUTO MANUAL TRANSFER_TO_DEMAND"`
	NewTermMonths *int          `json:"new_term_months,omitempty" validate:"omitempty,gt=0"`
}

type BatchMaturityOptionsRequest struct {
	Updates []MaturityOptionUpdate `json:"updates" validate:"required,min=1,dive"`
}

type BatchMaturityOptionsResponse struct {
	Updated int `json:"updated"`
}
