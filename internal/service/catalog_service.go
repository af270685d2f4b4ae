package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hazina/sacco-engine/internal/domain"
	"github.com/hazina/sacco-engine/internal/repository"
	customError "github.com/hazina/sacco-engine/pkg/errors"
	"github.com/hazina/sacco-engine/pkg/utils"
)

// CatalogService manages the loan product catalog. Products are created and
// tuned by admins and read by everyone.
type CatalogService struct {
	products repository.LoanProductRepository
}

func NewCatalogService(products repository.LoanProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) Create(ctx context.Context, actor domain.Actor, req *domain.CreateLoanProductRequest) (*domain.LoanProduct, error) {
	if !actor.IsAdmin() {
		return nil, customError.WrapForbidden("only admins may create loan products")
	}

	if req.MaxAmount.LessThanOrEqual(decimal.Zero) {
		return nil, customError.WrapValidation("max_amount must be positive")
	}
	if req.MinAmount.GreaterThan(req.MaxAmount) {
		return nil, customError.WrapValidation("min_amount cannot exceed max_amount")
	}

	now := time.Now()
	product := &domain.LoanProduct{
		ID:            uuid.New(),
		Reference:     utils.NewReference("LP"),
		Name:          req.Name,
		InterestRate:  req.InterestRate,
		MinAmount:     req.MinAmount,
		MaxAmount:     req.MaxAmount,
		MaxTermMonths: req.MaxTermMonths,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, actor domain.Actor, reference string, req *domain.UpdateLoanProductRequest) (*domain.LoanProduct, error) {
	if !actor.IsAdmin() {
		return nil, customError.WrapForbidden("only admins may update loan products")
	}

	product, err := s.products.GetByReference(ctx, reference)
	if err != nil {
		return nil, asNotFound(err, "loan product", reference)
	}

	if req.InterestRate != nil {
		product.InterestRate = *req.InterestRate
	}
	if req.MinAmount != nil {
		product.MinAmount = *req.MinAmount
	}
	if req.MaxAmount != nil {
		product.MaxAmount = *req.MaxAmount
	}
	if req.MaxTermMonths != nil {
		product.MaxTermMonths = *req.MaxTermMonths
	}

	if product.MinAmount.GreaterThan(product.MaxAmount) {
		return nil, customError.WrapValidation("min_amount cannot exceed max_amount")
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return product, nil
}

func (s *CatalogService) Get(ctx context.Context, reference string) (*domain.LoanProduct, error) {
	product, err := s.products.GetByReference(ctx, reference)
	if err != nil {
		return nil, asNotFound(err, "loan product", reference)
	}
	return product, nil
}

func (s *CatalogService) List(ctx context.Context) ([]*domain.LoanProduct, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return products, nil
}
