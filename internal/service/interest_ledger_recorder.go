package service

import (
	"context"
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

// InterestLedgerRecorder persists interest calculations and pays interest into
// position balances.
type InterestLedgerRecorder struct {
	store repository.Store
	now   func() time.Time
}

func NewInterestLedgerRecorder(store repository.Store, opts ...Option) *InterestLedgerRecorder {
	o := applyOptions(opts)
	return &InterestLedgerRecorder{
		store: store,
		now:   o.now,
	}
}

// RecordInterestCalculation stores result as a CALCULATED record. No money moves.
func (r *InterestLedgerRecorder) RecordInterestCalculation(ctx context.Context, result *domain.InterestCalculationResult) (uuid.UUID, error) {
	if result == nil {
		return uuid.Nil, customError.WrapInvalidArgument("calculation result is required")
	}

	record := &domain.InterestRecord{
		ID:                uuid.New(),
		PositionID:        result.PositionID,
		CalculationDate:   utils.TruncateToDate(result.CalculationDate),
		PrincipalAmount:   result.PrincipalAmount,
		InterestRate:      result.InterestRate,
		CalculationMethod: result.CalculationMethod,
		DayCount:          result.DayCount,
		SimpleInterest:    result.SimpleInterest,
		CompoundInterest:  result.CompoundInterest,
		AccruedInterest:   result.AccruedToDate,
		InterestAmount:    result.AppliedInterest,
		TotalAmount:       result.TotalAmount,
		EffectiveRate:     result.EffectiveRate,
		InterestType:      domain.InterestTypeRegular,
		Status:            domain.InterestStatusCalculated,
		CreatedAt:         r.now().UTC(),
	}

	if err := r.store.Repos().InterestRecords.Create(ctx, record); err != nil {
		return uuid.Nil, customError.WrapPersistenceFailure(err)
	}

	return record.ID, nil
}

// PayInterest credits amount to the position balance, stores a PAID record and
// appends an INTEREST transaction. The three writes commit together or not at all.
// A zero paymentDate means today and an empty interestType means REGULAR.
func (r *InterestLedgerRecorder) PayInterest(
	ctx context.Context,
	positionID uuid.UUID,
	amount decimal.Decimal,
	paymentDate time.Time,
	interestType domain.InterestType,
) (*domain.InterestRecord, error) {
	if !amount.IsPositive() {
		return nil, customError.WrapInvalidArgument("interest amount must be greater than 0")
	}
	if interestType == "" {
		interestType = domain.InterestTypeRegular
	}
	if !interestType.Valid() {
		return nil, customError.WrapInvalidArgument(fmt.Sprintf("unsupported interest type %q", interestType))
	}
	if paymentDate.IsZero() {
		paymentDate = r.now()
	}
	paymentDate = utils.TruncateToDate(paymentDate)
	now := r.now().UTC()

	var record *domain.InterestRecord
	err := r.store.WithTransaction(ctx, func(repos repository.Repositories) error {
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

		newBalance := position.Balance.Add(amount)
		if err := repos.Positions.SetBalance(ctx, position.ID, newBalance); err != nil {
			return err
		}

		paidOn := paymentDate
		record = &domain.InterestRecord{
			ID:              uuid.New(),
			PositionID:      position.ID,
			CalculationDate: paymentDate,
			PrincipalAmount: position.Principal,
			InterestRate:    product.InterestRate,
			InterestAmount:  amount,
			TotalAmount:     newBalance,
			InterestType:    interestType,
			Status:          domain.InterestStatusPaid,
			PaymentDate:     &paidOn,
			CreatedAt:       now,
		}
		if err := repos.InterestRecords.Create(ctx, record); err != nil {
			return err
		}

		return repos.Ledger.Append(ctx, &domain.Transaction{
			ID:              uuid.New(),
			PositionID:      position.ID,
			PortfolioID:     position.PortfolioID,
			UserID:          position.UserID,
			Kind:            domain.TransactionKindInterest,
			Amount:          amount,
			Currency:        product.Currency,
			TransactionDate: paymentDate,
			Description:     fmt.Sprintf("%s interest payment", interestType),
			CreatedAt:       now,
		})
	})
	if err != nil {
		log.WithFields(log.Fields{
			"position_id": positionID,
			"amount":      amount.String(),
		}).WithError(err).Error("Interest payment rolled back")
		return nil, persistenceError(err)
	}

	return record, nil
}

// GetInterestPaymentHistory returns PAID records with a payment date in
// [from, to], newest first. A zero to means today.
func (r *InterestLedgerRecorder) GetInterestPaymentHistory(ctx context.Context, positionID uuid.UUID, from, to time.Time) ([]*domain.InterestRecord, error) {
	if to.IsZero() {
		to = r.now()
	}
	from, to = utils.TruncateToDate(from), utils.TruncateToDate(to)
	if to.Before(from) {
		return nil, customError.WrapInvalidArgument("date range end is before its start")
	}

	repos := r.store.Repos()
	if _, err := repos.Positions.GetByID(ctx, positionID); err != nil {
		if isNotFound(err) {
			return nil, customError.WrapPositionNotFound(positionID)
		}
		return nil, customError.WrapPersistenceFailure(err)
	}

	records, err := repos.InterestRecords.ListPaid(ctx, positionID, from, to)
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}
	if records == nil {
		records = []*domain.InterestRecord{}
	}

	return records, nil
}

// ListTransactions returns the ledger lines written for a position, newest first.
func (r *InterestLedgerRecorder) ListTransactions(ctx context.Context, positionID uuid.UUID) ([]*domain.Transaction, error) {
	txs, err := r.store.Repos().Ledger.ListByPosition(ctx, positionID)
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	return txs, nil
}
