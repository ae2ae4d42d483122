package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	"github.com/segyhp/deposit-engine/pkg/utils"
)

func (s *state) activeAlert(positionID uuid.UUID) *domain.MaturityAlert {
	for _, a := range s.alerts {
		if a.PositionID == positionID && a.Status.Active() {
			a := a
			return &a
		}
	}
	return nil
}

type alertRepository struct {
	view
}

func (r *alertRepository) Create(_ context.Context, alert *domain.MaturityAlert) error {
	st, unlock := r.acquire()
	defer unlock()

	if alert.Status.Active() && st.activeAlert(alert.PositionID) != nil {
		return repository.ErrActiveAlertExists
	}
	st.alerts[alert.ID] = *alert
	return nil
}

func (r *alertRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.MaturityAlert, error) {
	st, unlock := r.acquire()
	defer unlock()

	a, ok := st.alerts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *alertRepository) GetActiveByPosition(_ context.Context, positionID uuid.UUID) (*domain.MaturityAlert, error) {
	st, unlock := r.acquire()
	defer unlock()

	if a := st.activeAlert(positionID); a != nil {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (r *alertRepository) HasActiveAlert(_ context.Context, positionID uuid.UUID) (bool, error) {
	st, unlock := r.acquire()
	defer unlock()

	return st.activeAlert(positionID) != nil, nil
}

func (r *alertRepository) ListPendingDue(_ context.Context, asOf time.Time) ([]*domain.MaturityAlert, error) {
	return r.filter(func(a domain.MaturityAlert) bool {
		return a.Status == domain.AlertStatusPending && !a.AlertDate.After(asOf)
	}, func(a, b *domain.MaturityAlert) bool {
		if !a.AlertDate.Equal(b.AlertDate) {
			return a.AlertDate.Before(b.AlertDate)
		}
		return a.MaturityDate.Before(b.MaturityDate)
	}), nil
}

func (r *alertRepository) ListAutoRenewalsDue(_ context.Context, maturityDate time.Time) ([]*domain.MaturityAlert, error) {
	return r.filter(func(a domain.MaturityAlert) bool {
		return a.RenewalOption == domain.RenewalAuto && a.Status.Active() && utils.SameDate(a.MaturityDate, maturityDate)
	}, func(a, b *domain.MaturityAlert) bool {
		return a.ID.String() < b.ID.String()
	}), nil
}

func (r *alertRepository) ListByUser(_ context.Context, userID string, status *domain.AlertStatus) ([]*domain.MaturityAlert, error) {
	return r.filter(func(a domain.MaturityAlert) bool {
		return a.UserID == userID && (status == nil || a.Status == *status)
	}, func(a, b *domain.MaturityAlert) bool {
		if !a.MaturityDate.Equal(b.MaturityDate) {
			return a.MaturityDate.Before(b.MaturityDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}), nil
}

func (r *alertRepository) Update(_ context.Context, alert *domain.MaturityAlert) error {
	st, unlock := r.acquire()
	defer unlock()

	current, ok := st.alerts[alert.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if alert.Status.Active() && !current.Status.Active() {
		if other := st.activeAlert(alert.PositionID); other != nil && other.ID != alert.ID {
			return repository.ErrActiveAlertExists
		}
	}
	st.alerts[alert.ID] = *alert
	return nil
}

func (r *alertRepository) MarkProcessed(_ context.Context, positionID uuid.UUID, from []domain.AlertStatus, at time.Time) (int, error) {
	st, unlock := r.acquire()
	defer unlock()

	n := 0
	for id, a := range st.alerts {
		if a.PositionID != positionID || !containsStatus(from, a.Status) {
			continue
		}
		processedAt := at
		a.Status = domain.AlertStatusProcessed
		a.ProcessedAt = &processedAt
		a.UpdatedAt = at
		st.alerts[id] = a
		n++
	}
	return n, nil
}

func (r *alertRepository) filter(keep func(domain.MaturityAlert) bool, less func(a, b *domain.MaturityAlert) bool) []*domain.MaturityAlert {
	st, unlock := r.acquire()
	defer unlock()

	var result []*domain.MaturityAlert
	for _, a := range st.alerts {
		if keep(a) {
			a := a
			result = append(result, &a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

func containsStatus(statuses []domain.AlertStatus, s domain.AlertStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
