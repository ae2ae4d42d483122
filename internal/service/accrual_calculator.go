package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
	"github.com/segyhp/deposit-engine/pkg/interest"
	"github.com/segyhp/deposit-engine/pkg/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// AccrualCalculator computes accrued interest for deposit positions.
type AccrualCalculator struct {
	store    repository.Store
	defaults domain.CalculationConfig
	now      func() time.Time
}

func NewAccrualCalculator(store repository.Store, defaults domain.CalculationConfig, opts ...Option) *AccrualCalculator {
	o := applyOptions(opts)
	return &AccrualCalculator{
		store:    store,
		defaults: defaults.WithDefaults(),
		now:      o.now,
	}
}

// CalculateInterest computes the interest a position has accrued from its start
// date to asOf, or to today when asOf is zero. Unset fields of cfg fall back to
// the calculator defaults.
func (c *AccrualCalculator) CalculateInterest(ctx context.Context, positionID uuid.UUID, asOf time.Time, cfg domain.CalculationConfig) (*domain.InterestCalculationResult, error) {
	repos := c.store.Repos()

	position, err := repos.Positions.GetByID(ctx, positionID)
	if err != nil {
		if isNotFound(err) {
			return nil, customError.WrapPositionNotFound(positionID)
		}
		return nil, customError.WrapPersistenceFailure(err)
	}

	product, err := repos.Products.GetByID(ctx, position.ProductID)
	if err != nil {
		if isNotFound(err) {
			return nil, customError.WrapProductNotFound(position.ProductID)
		}
		return nil, customError.WrapPersistenceFailure(err)
	}

	return c.calculate(ctx, repos, position, product, asOf, cfg)
}

// BatchCalculateInterest runs CalculateInterest over every DEMAND and TIME
// position of the user. A position that fails is reported in Failures and the
// batch moves on.
func (c *AccrualCalculator) BatchCalculateInterest(ctx context.Context, userID string, asOf time.Time, cfg domain.CalculationConfig) (*domain.BatchCalculationResult, error) {
	repos := c.store.Repos()

	positions, err := repos.Positions.ListByUser(ctx, userID)
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}

	if asOf.IsZero() {
		asOf = c.now()
	}

	batch := &domain.BatchCalculationResult{
		UserID:   userID,
		AsOf:     utils.TruncateToDate(asOf),
		Results:  make([]*domain.InterestCalculationResult, 0, len(positions)),
		Failures: []domain.PositionFailure{},
	}

	for _, position := range positions {
		logger := log.WithFields(log.Fields{
			"user_id":     userID,
			"position_id": position.ID,
		})

		product, err := repos.Products.GetByID(ctx, position.ProductID)
		if err != nil {
			if isNotFound(err) {
				err = customError.WrapProductNotFound(position.ProductID)
			}
			err = customError.WrapCalculationFailure(position.ID, err)
			logger.WithError(err).Warn("Skipping position in interest batch")
			batch.Failures = append(batch.Failures, domain.PositionFailure{PositionID: position.ID, Error: err.Error()})
			continue
		}

		if !product.DepositType.Accrues() {
			batch.Skipped++
			continue
		}

		result, err := c.calculate(ctx, repos, position, product, asOf, cfg)
		if err != nil {
			logger.WithError(err).Warn("Interest calculation failed in batch")
			batch.Failures = append(batch.Failures, domain.PositionFailure{PositionID: position.ID, Error: err.Error()})
			continue
		}
		batch.Results = append(batch.Results, result)
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"as_of":     batch.AsOf.Format(utils.DateLayout),
		"succeeded": len(batch.Results),
		"failed":    len(batch.Failures),
		"skipped":   batch.Skipped,
	}).Debug("Interest batch finished")

	return batch, nil
}

func (c *AccrualCalculator) resolve(cfg domain.CalculationConfig) (domain.CalculationConfig, error) {
	if cfg.Method == "" {
		cfg.Method = c.defaults.Method
	}
	if cfg.Rounding.Method == "" {
		cfg.Rounding = c.defaults.Rounding
	}
	if !cfg.Method.Valid() {
		return cfg, customError.WrapInvalidArgument(fmt.Sprintf("unsupported calculation method %q", cfg.Method))
	}
	if !cfg.Rounding.Method.Valid() {
		return cfg, customError.WrapInvalidArgument(fmt.Sprintf("unsupported rounding method %q", cfg.Rounding.Method))
	}
	if cfg.Rounding.Places < 0 {
		return cfg, customError.WrapInvalidArgument("decimal places must not be negative")
	}
	return cfg, nil
}

func (c *AccrualCalculator) calculate(
	ctx context.Context,
	repos repository.Repositories,
	position *domain.DepositPosition,
	product *domain.DepositProductDetails,
	asOf time.Time,
	cfg domain.CalculationConfig,
) (*domain.InterestCalculationResult, error) {
	cfg, err := c.resolve(cfg)
	if err != nil {
		return nil, err
	}

	if asOf.IsZero() {
		asOf = c.now()
	}

	start := product.StartDate
	if start.IsZero() {
		start = position.CreatedAt
	}
	start = utils.TruncateToDate(start)
	asOf = utils.TruncateToDate(asOf)

	if asOf.Before(start) {
		return nil, customError.WrapCalculationFailure(position.ID, customError.WrapInvalidArgument(
			fmt.Sprintf("as-of date %s is before start date %s", asOf.Format(utils.DateLayout), start.Format(utils.DateLayout)),
		))
	}

	dc, err := interest.CountDays(start, asOf, cfg.Method)
	if err != nil {
		return nil, customError.WrapCalculationFailure(position.ID, err)
	}

	simple := interest.SimpleInterest(position.Principal, product.InterestRate, dc)
	compound, err := interest.CompoundInterest(position.Principal, product.InterestRate, dc, product.CompoundingFrequency)
	if err != nil {
		return nil, customError.WrapCalculationFailure(position.ID, err)
	}

	applied := compound
	if product.CompoundingFrequency == interest.CompoundMaturity {
		applied = simple
	}

	effective, err := interest.EffectiveRate(product.InterestRate, product.CompoundingFrequency, dc.YearBasis)
	if err != nil {
		return nil, customError.WrapCalculationFailure(position.ID, err)
	}

	accrued, err := repos.InterestRecords.SumInterestUpTo(ctx, position.ID, asOf)
	if err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}

	for _, amount := range []*decimal.Decimal{&simple, &compound, &applied, &accrued} {
		rounded, err := cfg.Rounding.Apply(*amount)
		if err != nil {
			return nil, customError.WrapCalculationFailure(position.ID, err)
		}
		*amount = rounded
	}

	return &domain.InterestCalculationResult{
		PositionID:           position.ID,
		CalculationDate:      asOf,
		StartDate:            start,
		PrincipalAmount:      position.Principal,
		InterestRate:         product.InterestRate,
		CalculationMethod:    cfg.Method,
		CompoundingFrequency: product.CompoundingFrequency,
		DayCount:             dc.Days,
		YearBasis:            dc.YearBasis,
		SimpleInterest:       simple,
		CompoundInterest:     compound,
		AppliedInterest:      applied,
		AccruedToDate:        accrued,
		TotalAmount:          position.Principal.Add(applied),
		EffectiveRate:        effective.Round(interest.RatePlaces),
	}, nil
}
