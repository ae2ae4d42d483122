package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	"github.com/segyhp/deposit-engine/pkg/utils"
	"github.com/shopspring/decimal"
)

type interestRecordRepository struct {
	view
}

func (r *interestRecordRepository) Create(_ context.Context, record *domain.InterestRecord) error {
	st, unlock := r.acquire()
	defer unlock()

	st.records = append(st.records, *record)
	return nil
}

func (r *interestRecordRepository) SumInterestUpTo(_ context.Context, positionID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	st, unlock := r.acquire()
	defer unlock()

	total := decimal.Zero
	for _, rec := range st.records {
		if rec.PositionID != positionID || rec.CalculationDate.After(asOf) {
			continue
		}
		if rec.Status == domain.InterestStatusCalculated || rec.Status == domain.InterestStatusPaid {
			total = total.Add(rec.InterestAmount)
		}
	}
	return total, nil
}

func (r *interestRecordRepository) ListPaid(_ context.Context, positionID uuid.UUID, from, to time.Time) ([]*domain.InterestRecord, error) {
	st, unlock := r.acquire()
	defer unlock()

	var result []*domain.InterestRecord
	for _, rec := range st.records {
		if rec.PositionID != positionID || rec.Status != domain.InterestStatusPaid || rec.PaymentDate == nil {
			continue
		}
		if rec.PaymentDate.Before(from) || rec.PaymentDate.After(to) {
			continue
		}
		rec := rec
		result = append(result, &rec)
	}
	sort.SliceStable(result, func(i, j int) bool {
		pi, pj := *result[i].PaymentDate, *result[j].PaymentDate
		if pi.Equal(pj) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return pi.After(pj)
	})
	return result, nil
}

type ledgerRepository struct {
	view
}

func (r *ledgerRepository) Append(_ context.Context, tx *domain.Transaction) error {
	st, unlock := r.acquire()
	defer unlock()

	st.ledger = append(st.ledger, *tx)
	return nil
}

func (r *ledgerRepository) ListByPosition(_ context.Context, positionID uuid.UUID) ([]*domain.Transaction, error) {
	st, unlock := r.acquire()
	defer unlock()

	var result []*domain.Transaction
	for _, tx := range st.ledger {
		if tx.PositionID == positionID {
			tx := tx
			result = append(result, &tx)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].TransactionDate.Equal(result[j].TransactionDate) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].TransactionDate.After(result[j].TransactionDate)
	})
	return result, nil
}

type accrualRunRepository struct {
	view
}

func (r *accrualRunRepository) GetByDate(_ context.Context, date time.Time) (*domain.AccrualRun, error) {
	st, unlock := r.acquire()
	defer unlock()

	for _, run := range st.runs {
		if utils.SameDate(run.RunDate, date) {
			run := run
			return &run, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accrualRunRepository) Create(_ context.Context, run *domain.AccrualRun) error {
	st, unlock := r.acquire()
	defer unlock()

	for _, existing := range st.runs {
		if utils.SameDate(existing.RunDate, run.RunDate) {
			return repository.ErrAccrualRunExists
		}
	}
	st.runs = append(st.runs, *run)
	return nil
}

func (r *accrualRunRepository) GetLatest(_ context.Context) (*domain.AccrualRun, error) {
	st, unlock := r.acquire()
	defer unlock()

	if len(st.runs) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := st.runs[0]
	for _, run := range st.runs[1:] {
		if run.RunDate.After(latest.RunDate) {
			latest = run
		}
	}
	return &latest, nil
}
