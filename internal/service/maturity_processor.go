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

const autoMaturityJobName = "auto-maturity"

// MaturityProcessor applies maturity actions to time deposits.
type MaturityProcessor struct {
	store repository.Store
	now   func() time.Time
}

func NewMaturityProcessor(store repository.Store, opts ...Option) *MaturityProcessor {
	o := applyOptions(opts)
	return &MaturityProcessor{
		store: store,
		now:   o.now,
	}
}

// ProcessMaturity applies action to the position in one transaction and marks
// the position's PENDING and NOTIFIED alerts PROCESSED.
//
//	RENEW               restart the term today for newTermMonths, or the current term when nil
//	TRANSFER_TO_DEMAND  turn the product into a daily-compounding demand deposit
//	WITHDRAW            delete the position and book its balance as a WITHDRAWAL
func (p *MaturityProcessor) ProcessMaturity(ctx context.Context, positionID uuid.UUID, action domain.MaturityAction, newTermMonths *int) (*domain.ProcessMaturityResult, error) {
	if !action.Valid() {
		return nil, customError.WrapInvalidAction(string(action))
	}
	if newTermMonths != nil && *newTermMonths <= 0 {
		return nil, customError.WrapInvalidArgument("new term must be greater than 0 months")
	}

	today := utils.Today(p.now)
	now := p.now().UTC()

	result := &domain.ProcessMaturityResult{
		PositionID:      positionID,
		Action:          action,
		WithdrawnAmount: decimal.Zero,
	}

	err := p.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		position, err := repos.Positions.GetForUpdate(ctx, positionID)
		if err != nil {
			if isNotFound(err) {
				return customError.WrapPositionNotFound(positionID)
			}
			return err
		}

		product, err := repos.Products.GetByID(ctx, position.ProductID)
		if err != nil {
			if isNotFound(err) {
				return customError.WrapProductNotFound(position.ProductID)
			}
			return err
		}

		switch action {
		case domain.ActionRenew:
			if product.DepositType != domain.DepositTypeTime {
				return customError.WrapInvalidArgument(fmt.Sprintf("position %s is not a time deposit", positionID))
			}
			term := newTermMonths
			if term == nil {
				term = product.TermMonths
			}
			if term == nil || *term <= 0 {
				return customError.WrapInvalidArgument("a term in months is required to renew")
			}
			product.Renew(today, *term)
			if err := repos.Products.Update(ctx, product); err != nil {
				return err
			}
			result.Product = product

		case domain.ActionTransferToDemand:
			if product.DepositType != domain.DepositTypeTime {
				return customError.WrapInvalidArgument(fmt.Sprintf("position %s is not a time deposit", positionID))
			}
			product.TransferToDemand()
			product.AutoRenewal = false
			if err := repos.Products.Update(ctx, product); err != nil {
				return err
			}
			result.Product = product

		case domain.ActionWithdraw:
			if err := repos.Positions.Delete(ctx, position.ID); err != nil {
				return err
			}
			tx := &domain.Transaction{
				ID:              uuid.New(),
				PositionID:      position.ID,
				PortfolioID:     position.PortfolioID,
				UserID:          position.UserID,
				Kind:            domain.TransactionKindWithdrawal,
				Amount:          position.Balance,
				Currency:        product.Currency,
				TransactionDate: today,
				Description:     "Withdrawal at maturity",
				CreatedAt:       now,
			}
			if err := repos.Ledger.Append(ctx, tx); err != nil {
				return err
			}
			result.WithdrawnAmount = position.Balance
			result.TransactionID = &tx.ID
		}

		reconciled, err := repos.Alerts.MarkProcessed(ctx, position.ID, domain.ActiveAlertStatuses, now)
		if err != nil {
			return err
		}
		result.AlertsReconciled = reconciled

		return nil
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	log.WithFields(log.Fields{
		"position_id":       positionID,
		"action":            action,
		"alerts_reconciled": result.AlertsReconciled,
	}).Info("Maturity processed")

	return result, nil
}

// ProcessAutoMaturityDeposits renews every deposit maturing today whose active
// alert asks for AUTO renewal. A deposit that fails to renew has its alert
// downgraded to MANUAL and the sweep continues.
func (p *MaturityProcessor) ProcessAutoMaturityDeposits(ctx context.Context) (*domain.JobSummary, error) {
	today := utils.Today(p.now)

	alerts, err := p.store.Repos().Alerts.ListAutoRenewalsDue(ctx, today)
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}

	summary := &domain.JobSummary{
		Job:      autoMaturityJobName,
		RunDate:  today,
		Failures: []domain.PositionFailure{},
	}

	for _, alert := range alerts {
		summary.Processed++
		logger := log.WithFields(log.Fields{
			"alert_id":    alert.ID,
			"position_id": alert.PositionID,
		})

		if _, err := p.ProcessMaturity(ctx, alert.PositionID, domain.ActionRenew, alert.NewTermMonths); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, domain.PositionFailure{PositionID: alert.PositionID, Error: err.Error()})
			logger.WithError(err).Error("Auto renewal failed, downgrading alert to MANUAL")

			if derr := p.downgradeToManual(ctx, alert.ID); derr != nil {
				logger.WithError(derr).Error("Failed to downgrade alert to MANUAL")
			}
			continue
		}
		summary.Succeeded++
	}

	log.WithFields(log.Fields{
		"job":       summary.Job,
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("Auto maturity sweep finished")

	return summary, nil
}

func (p *MaturityProcessor) downgradeToManual(ctx context.Context, alertID uuid.UUID) error {
	return p.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		alert, err := repos.Alerts.GetByID(ctx, alertID)
		if err != nil {
			return err
		}
		if !alert.Status.Active() {
			return nil
		}
		alert.RenewalOption = domain.RenewalManual
		alert.UpdatedAt = p.now().UTC()
		return repos.Alerts.Update(ctx, alert)
	})
}

// BatchUpdateMaturityOptions stores the user's renewal choices for several
// positions. Every position must belong to userID; one bad item rejects the
// whole batch.
func (p *MaturityProcessor) BatchUpdateMaturityOptions(ctx context.Context, userID string, updates []domain.MaturityOptionUpdate) (*domain.BatchMaturityOptionsResponse, error) {
	if len(updates) == 0 {
		return nil, customError.WrapInvalidArgument("at least one update is required")
	}
	for _, u := range updates {
		if !u.RenewalOption.Valid() {
			return nil, customError.WrapInvalidArgument(fmt.Sprintf("unsupported renewal option %q", u.RenewalOption))
		}
		if u.NewTermMonths != nil && *u.NewTermMonths <= 0 {
			return nil, customError.WrapInvalidArgument("new term must be greater than 0 months")
		}
	}

	now := p.now().UTC()
	updated := 0

	err := p.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		for _, u := range updates {
			position, err := repos.Positions.GetForUpdate(ctx, u.PositionID)
			if err != nil {
				if isNotFound(err) {
					return customError.WrapPositionNotFound(u.PositionID)
				}
				return err
			}
			if !position.BelongsTo(userID) {
				return customError.WrapUnauthorized(userID, u.PositionID)
			}

			product, err := repos.Products.GetByID(ctx, position.ProductID)
			if err != nil {
				if isNotFound(err) {
					return customError.WrapProductNotFound(position.ProductID)
				}
				return err
			}
			if product.DepositType != domain.DepositTypeTime {
				return customError.WrapInvalidArgument(fmt.Sprintf("position %s is not a time deposit", u.PositionID))
			}
			product.AutoRenewal = u.RenewalOption == domain.RenewalAuto
			if err := repos.Products.Update(ctx, product); err != nil {
				return err
			}

			alert, err := repos.Alerts.GetActiveByPosition(ctx, position.ID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
			case err != nil:
				return err
			default:
				alert.RenewalOption = u.RenewalOption
				if u.NewTermMonths != nil {
					term := *u.NewTermMonths
					alert.NewTermMonths = &term
				}
				alert.UpdatedAt = now
				if err := repos.Alerts.Update(ctx, alert); err != nil {
					return err
				}
			}

			updated++
		}
		return nil
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	return &domain.BatchMaturityOptionsResponse{Updated: updated}, nil
}
