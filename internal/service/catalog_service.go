package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/deposit-engine/internal/domain"
	"github.com/segyhp/deposit-engine/internal/repository"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
)

// CatalogService onboards deposit products and the positions that hold them.
type CatalogService struct {
	store repository.Store
	now   func() time.Time
}

func NewCatalogService(store repository.Store, opts ...Option) *CatalogService {
	o := applyOptions(opts)
	return &CatalogService{
		store: store,
		now:   o.now,
	}
}

// CreateProduct stores new deposit product details
func (s *CatalogService) CreateProduct(ctx context.Context, req *domain.CreateProductRequest) (*domain.DepositProductDetails, error) {
	if !req.DepositType.Valid() {
		return nil, customError.WrapInvalidArgument(fmt.Sprintf("unsupported deposit type %q", req.DepositType))
	}
	if !req.RateType.Valid() {
		return nil, customError.WrapInvalidArgument(fmt.Sprintf("unsupported rate type %q", req.RateType))
	}
	if !req.CompoundingFrequency.Valid() {
		return nil, customError.WrapInvalidArgument(fmt.Sprintf("unsupported compounding frequency %q", req.CompoundingFrequency))
	}

	product, err := req.ToProduct(s.now().UTC())
	if err != nil {
		return nil, customError.WrapInvalidArgument(err.Error())
	}

	if err := s.store.Repos().Products.Create(ctx, product); err != nil {
		return nil, customError.WrapPersistenceFailure(err)
	}

	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.DepositProductDetails, error) {
	product, err := s.store.Repos().Products.GetByID(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, customError.WrapProductNotFound(productID)
		}
		return nil, customError.WrapPersistenceFailure(err)
	}
	return product, nil
}

// OpenPosition creates a position for userID with balance equal to principal.
// A TIME product accepts a single position.
func (s *CatalogService) OpenPosition(ctx context.Context, userID string, req *domain.OpenPositionRequest) (*domain.DepositPosition, error) {
	if userID == "" {
		return nil, customError.WrapInvalidArgument("user id is required")
	}
	if !req.Principal.IsPositive() {
		return nil, customError.WrapInvalidArgument("principal must be greater than 0")
	}

	now := s.now().UTC()
	position := &domain.DepositPosition{
		ID:          uuid.New(),
		UserID:      userID,
		PortfolioID: req.PortfolioID,
		ProductID:   req.ProductID,
		Principal:   req.Principal,
		Balance:     req.Principal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.WithTransaction(ctx, func(repos repository.Repositories) error {
		product, err := repos.Products.GetForUpdate(ctx, req.ProductID)
		if err != nil {
			if isNotFound(err) {
				return customError.WrapProductNotFound(req.ProductID)
			}
			return err
		}

		// maturity actions rewrite a TIME product, so it backs exactly one position
		if product.DepositType == domain.DepositTypeTime {
			count, err := repos.Positions.CountByProduct(ctx, product.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return customError.WrapProductInUse(product.ID)
			}
		}
		return repos.Positions.Create(ctx, position)
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	return position, nil
}

// GetPosition returns the position when it belongs to userID
func (s *CatalogService) GetPosition(ctx context.Context, userID string, positionID uuid.UUID) (*domain.DepositPosition, error) {
	position, err := s.store.Repos().Positions.GetByID(ctx, positionID)
	if err != nil {
		if isNotFound(err) {
			return nil, customError.WrapPositionNotFound(positionID)
		}
		return nil, customError.WrapPersistenceFailure(err)
	}
	if !position.BelongsTo(userID) {
		return nil, customError.WrapUnauthorized(userID, positionID)
	}
	return position, nil
}
