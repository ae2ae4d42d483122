package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
	"github.com/segyhp/deposit-engine/pkg/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var daysPerYear = decimal.NewFromInt(365)

// AlertDaysBefore is the lead time, in days, of an alert for a deposit that
// matures daysToMaturity days from now.
func AlertDaysBefore(daysToMaturity int) int {
	switch {
	case daysToMaturity <= 7:
		if daysToMaturity-1 < 1 {
			return 1
		}
		return daysToMaturity - 1
	case daysToMaturity <= 30:
		return 7
	case daysToMaturity <= 90:
		return 14
	default:
		return 30
	}
}

// EstimateMaturityInterest is the simple ACTUAL_365 interest principal earns over
// the remaining days, rounded to cents.
func EstimateMaturityInterest(principal, rate decimal.Decimal, daysToMaturity int) decimal.Decimal {
	return principal.Mul(rate).Div(daysPerYear).Mul(decimal.NewFromInt(int64(daysToMaturity))).Round(2)
}

// MaturityScanner finds time deposits that are about to mature and manages the
// alerts raised for them.
type MaturityScanner struct {
	store repository.Store
	now   func() time.Time
}

func NewMaturityScanner(store repository.Store, opts ...Option) *MaturityScanner {
	o := applyOptions(opts)
	return &MaturityScanner{
		store: store,
		now:   o.now,
	}
}

// ScanUpcomingMaturityDeposits raises a PENDING alert for every TIME deposit
// maturing within daysAhead days that has no active alert yet, and returns the
// alerts it created. Running it twice creates nothing new.
func (s *MaturityScanner) ScanUpcomingMaturityDeposits(ctx context.Context, daysAhead int) ([]*domain.MaturityAlert, error) {
	if daysAhead < 0 {
		return nil, customError.WrapInvalidArgument("days ahead must not be negative")
	}

	today := utils.Today(s.now)
	repos := s.store.Repos()

	candidates, err := repos.Positions.ListMaturingBetween(ctx, today, utils.AddDays(today, daysAhead))
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}

	created := make([]*domain.MaturityAlert, 0, len(candidates))
	for _, c := range candidates {
		logger := log.WithField("position_id", c.Position.ID)

		alert := s.newAlert(c.Position, c.Product, today)
		if err := repos.Alerts.Create(ctx, alert); err != nil {
			if errors.Is(err, repository.ErrActiveAlertExists) {
				logger.Debug("Maturity alert already active")
				continue
			}
			logger.WithError(err).Error("Failed to create maturity alert")
			continue
		}

		logger.WithFields(log.Fields{
			"alert_id":      alert.ID,
			"maturity_date": alert.MaturityDate.Format(utils.DateLayout),
			"alert_date":    alert.AlertDate.Format(utils.DateLayout),
		}).Info("Maturity alert created")
		created = append(created, alert)
	}

	return created, nil
}

// GetPendingNotifications returns PENDING alerts whose alert date has come.
func (s *MaturityScanner) GetPendingNotifications(ctx context.Context) ([]*domain.MaturityAlert, error) {
	alerts, err := s.store.Repos().Alerts.ListPendingDue(ctx, utils.Today(s.now))
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}
	if alerts == nil {
		alerts = []*domain.MaturityAlert{}
	}
	return alerts, nil
}

// MarkNotificationSent moves a PENDING alert to NOTIFIED.
func (s *MaturityScanner) MarkNotificationSent(ctx context.Context, alertID uuid.UUID) error {
	_, err := s.transition(ctx, "", alertID, domain.AlertStatusNotified)
	return err
}

// AcknowledgeAlert is MarkNotificationSent on behalf of the alert owner.
func (s *MaturityScanner) AcknowledgeAlert(ctx context.Context, userID string, alertID uuid.UUID) (*domain.MaturityAlert, error) {
	return s.transition(ctx, userID, alertID, domain.AlertStatusNotified)
}

// CancelAlert withdraws a PENDING or NOTIFIED alert. The position may be
// alerted again by a later scan.
func (s *MaturityScanner) CancelAlert(ctx context.Context, userID string, alertID uuid.UUID) (*domain.MaturityAlert, error) {
	return s.transition(ctx, userID, alertID, domain.AlertStatusCancelled)
}

// CreateAlert raises an alert for one of the user's time deposits outside of
// the scheduled scan.
func (s *MaturityScanner) CreateAlert(ctx context.Context, userID string, positionID uuid.UUID, req domain.CreateAlertRequest) (*domain.MaturityAlert, error) {
	if req.RenewalOption != "" && !req.RenewalOption.Valid() {
		return nil, customError.WrapInvalidArgument(fmt.Sprintf("unsupported renewal option %q", req.RenewalOption))
	}
	if req.NewTermMonths != nil && *req.NewTermMonths <= 0 {
		return nil, customError.WrapInvalidArgument("new term must be greater than 0 months")
	}

	repos := s.store.Repos()
	position, err := repos.Positions.GetByID(ctx, positionID)
	if err != nil {
		if isNotFound(err) {
			return nil, customError.WrapPositionNotFound(positionID)
		}
		return nil, customError.WrapPersistenceFailure(err)
	}
	if !position.BelongsTo(userID) {
		return nil, customError.WrapUnauthorized(userID, positionID)
	}

	// the unique index still catches a concurrent insert
	active, err := repos.Alerts.HasActiveAlert(ctx, positionID)
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}
	if active {
		return nil, customError.WrapAlertAlreadyActive(positionID)
	}

	product, err := repos.Products.GetByID(ctx, position.ProductID)
	if err != nil {
		if isNotFound(err) {
			return nil, customError.WrapProductNotFound(position.ProductID)
		}
		return nil, customError.WrapPersistenceFailure(err)
	}
	if product.DepositType != domain.DepositTypeTime || product.MaturityDate == nil {
		return nil, customError.WrapInvalidArgument("only time deposits with a maturity date can be alerted")
	}

	today := utils.Today(s.now)
	if product.MaturityDate.Before(today) {
		return nil, customError.WrapInvalidArgument("deposit has already matured")
	}

	alert := s.newAlert(position, product, today)
	if req.RenewalOption != "" {
		alert.RenewalOption = req.RenewalOption
	}
	if req.NewTermMonths != nil {
		term := *req.NewTermMonths
		alert.NewTermMonths = &term
	}

	if err := repos.Alerts.Create(ctx, alert); err != nil {
		if errors.Is(err, repository.ErrActiveAlertExists) {
			return nil, customError.WrapAlertAlreadyActive(positionID)
		}
		return nil, customError.WrapPersistenceFailure(err)
	}

	return alert, nil
}

// ListAlerts returns the user's alerts, optionally only those in one status.
func (s *MaturityScanner) ListAlerts(ctx context.Context, userID string, status *domain.AlertStatus) ([]*domain.MaturityAlert, error) {
	alerts, err := s.store.Repos().Alerts.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}
	if alerts == nil {
		alerts = []*domain.MaturityAlert{}
	}
	return alerts, nil
}

func (s *MaturityScanner) GetAlert(ctx context.Context, userID string, alertID uuid.UUID) (*domain.MaturityAlert, error) {
	alert, err := s.store.Repos().Alerts.GetByID(ctx, alertID)
	if err != nil {
		if isNotFound(err) {
			return nil, customError.WrapAlertNotFound(alertID)
		}
		return nil, customError.WrapPersistenceFailure(err)
	}
	if alert.UserID != userID {
		return nil, customError.WrapUnauthorized(userID, alert.PositionID)
	}
	return alert, nil
}

func (s *MaturityScanner) newAlert(position *domain.DepositPosition, product *domain.DepositProductDetails, today time.Time) *domain.MaturityAlert {
	maturity := utils.TruncateToDate(*product.MaturityDate)
	daysToMaturity := utils.DaysBetween(today, maturity)
	lead := AlertDaysBefore(daysToMaturity)

	option := domain.RenewalManual
	if product.AutoRenewal {
		option = domain.RenewalAuto
	}

	var newTerm *int
	if product.TermMonths != nil {
		term := *product.TermMonths
		newTerm = &term
	}

	now := s.now().UTC()
	return &domain.MaturityAlert{
		ID:                uuid.New(),
		PositionID:        position.ID,
		UserID:            position.UserID,
		MaturityDate:      maturity,
		PrincipalAmount:   position.Principal,
		EstimatedInterest: EstimateMaturityInterest(position.Principal, product.InterestRate, daysToMaturity),
		AlertDaysBefore:   lead,
		AlertDate:         utils.AddDays(today, daysToMaturity-lead),
		RenewalOption:     option,
		NewTermMonths:     newTerm,
		Status:            domain.AlertStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// transition moves an alert to next. An empty userID skips the ownership check.
func (s *MaturityScanner) transition(ctx context.Context, userID string, alertID uuid.UUID, next domain.AlertStatus) (*domain.MaturityAlert, error) {
	var updated *domain.MaturityAlert
	err := s.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		alert, err := repos.Alerts.GetByID(ctx, alertID)
		if err != nil {
			if isNotFound(err) {
				return customError.WrapAlertNotFound(alertID)
			}
			return err
		}
		if userID != "" && alert.UserID != userID {
			return customError.WrapUnauthorized(userID, alert.PositionID)
		}
		if !alert.Status.CanTransitionTo(next) {
			return customError.WrapInvalidStatusTransition(string(alert.Status), string(next))
		}

		now := s.now().UTC()
		alert.Status = next
		alert.UpdatedAt = now
		if next == domain.AlertStatusNotified {
			alert.NotifiedAt = &now
		}

		if err := repos.Alerts.Update(ctx, alert); err != nil {
			return err
		}
		updated = alert
		return nil
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	return updated, nil
}
