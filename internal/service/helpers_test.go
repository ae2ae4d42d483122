package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	"github.com/segyhp/deposit-engine/internal/service"
	"github.com/segyhp/deposit-engine/pkg/interest"
	"github.com/segyhp/deposit-engine/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// today is the business date every service in these tests sees.
var today = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() service.Option {
	return service.WithClock(func() time.Time { return today })
}

func date(s string) time.Time {
	t, err := time.Parse(utils.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type depositSpec struct {
	user        string
	depositType domain.DepositType
	rate        string
	compounding interest.Compounding
	start       string
	termMonths  int
	autoRenewal bool
	principal   string
}

func timeDeposit(user, start string) depositSpec {
	return depositSpec{
		user:        user,
		depositType: domain.DepositTypeTime,
		rate:        "0.05",
		compounding: interest.CompoundMaturity,
		start:       start,
		termMonths:  12,
		principal:   "10000",
	}
}

func demandDeposit(user, start string) depositSpec {
	return depositSpec{
		user:        user,
		depositType: domain.DepositTypeDemand,
		rate:        "0.05",
		compounding: interest.CompoundMonthly,
		start:       start,
		principal:   "10000",
	}
}

func seedDeposit(t *testing.T, store repository.Store, spec depositSpec) (*domain.DepositProductDetails, *domain.DepositPosition) {
	t.Helper()
	ctx := context.Background()

	product := &domain.DepositProductDetails{
		ID:                   uuid.New(),
		Name:                 string(spec.depositType) + " deposit",
		Bank:                 "Bank Jago",
		Currency:             "IDR",
		DepositType:          spec.depositType,
		InterestRate:         dec(spec.rate),
		RateType:             domain.RateTypeFixed,
		CompoundingFrequency: spec.compounding,
		StartDate:            date(spec.start),
		AutoRenewal:          spec.autoRenewal,
		CreatedAt:            today,
		UpdatedAt:            today,
	}
	if spec.termMonths > 0 {
		product.Renew(date(spec.start), spec.termMonths)
	}
	require.NoError(t, store.Repos().Products.Create(ctx, product))

	position := &domain.DepositPosition{
		ID:          uuid.New(),
		UserID:      spec.user,
		PortfolioID: uuid.New(),
		ProductID:   product.ID,
		Principal:   dec(spec.principal),
		Balance:     dec(spec.principal),
		CreatedAt:   date(spec.start),
		UpdatedAt:   date(spec.start),
	}
	require.NoError(t, store.Repos().Positions.Create(ctx, position))

	return product, position
}

func reloadProduct(t *testing.T, store repository.Store, id uuid.UUID) *domain.DepositProductDetails {
	t.Helper()
	product, err := store.Repos().Products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return product
}
