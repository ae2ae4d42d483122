package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	"github.com/shopspring/decimal"
)

type positionRepository struct {
	view
}

func (r *positionRepository) Create(_ context.Context, position *domain.DepositPosition) error {
	st, unlock := r.acquire()
	defer unlock()

	st.positions[position.ID] = *position
	return nil
}

func (r *positionRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.DepositPosition, error) {
	st, unlock := r.acquire()
	defer unlock()

	p, ok := st.positions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *positionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DepositPosition, error) {
	return r.GetByID(ctx, id)
}

func (r *positionRepository) ListByUser(_ context.Context, userID string) ([]*domain.DepositPosition, error) {
	st, unlock := r.acquire()
	defer unlock()

	var result []*domain.DepositPosition
	for _, p := range st.positions {
		if p.UserID == userID {
			p := p
			result = append(result, &p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *positionRepository) CountByProduct(_ context.Context, productID uuid.UUID) (int, error) {
	st, unlock := r.acquire()
	defer unlock()

	count := 0
	for _, p := range st.positions {
		if p.ProductID == productID {
			count++
		}
	}
	return count, nil
}

func (r *positionRepository) ListOwners(_ context.Context) ([]string, error) {
	st, unlock := r.acquire()
	defer unlock()

	seen := make(map[string]struct{})
	var owners []string
	for _, p := range st.positions {
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		owners = append(owners, p.UserID)
	}
	sort.Strings(owners)
	return owners, nil
}

func (r *positionRepository) ListMaturingBetween(_ context.Context, from, to time.Time) ([]repository.PositionWithProduct, error) {
	st, unlock := r.acquire()
	defer unlock()

	var result []repository.PositionWithProduct
	for _, p := range st.positions {
		product, ok := st.products[p.ProductID]
		if !ok || product.DepositType != domain.DepositTypeTime || product.MaturityDate == nil {
			continue
		}
		m := *product.MaturityDate
		if m.Before(from) || m.After(to) {
			continue
		}
		if st.activeAlert(p.ID) != nil {
			continue
		}
		p := p
		result = append(result, repository.PositionWithProduct{Position: &p, Product: &product})
	}
	sort.Slice(result, func(i, j int) bool {
		mi, mj := *result[i].Product.MaturityDate, *result[j].Product.MaturityDate
		if mi.Equal(mj) {
			return result[i].Position.ID.String() < result[j].Position.ID.String()
		}
		return mi.Before(mj)
	})
	return result, nil
}

func (r *positionRepository) SetBalance(_ context.Context, id uuid.UUID, balance decimal.Decimal) error {
	st, unlock := r.acquire()
	defer unlock()

	p, ok := st.positions[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Balance = balance
	p.UpdatedAt = time.Now().UTC()
	st.positions[id] = p
	return nil
}

func (r *positionRepository) Delete(_ context.Context, id uuid.UUID) error {
	st, unlock := r.acquire()
	defer unlock()

	if _, ok := st.positions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(st.positions, id)
	return nil
}

type productRepository struct {
	view
}

func (r *productRepository) Create(_ context.Context, product *domain.DepositProductDetails) error {
	st, unlock := r.acquire()
	defer unlock()

	st.products[product.ID] = *product
	return nil
}

func (r *productRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.DepositProductDetails, error) {
	st, unlock := r.acquire()
	defer unlock()

	p, ok := st.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *productRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DepositProductDetails, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepository) Update(_ context.Context, product *domain.DepositProductDetails) error {
	st, unlock := r.acquire()
	defer unlock()

	if _, ok := st.products[product.ID]; !ok {
		return repository.ErrNotFound
	}
	product.UpdatedAt = time.Now().UTC()
	st.products[product.ID] = *product
	return nil
}
