package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/linekey"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo}
}

// クライアントがカートに入れるときの商品情報
type ProductResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Stock    int64  `json:"stock"`
	LineKey  string `json:"line_key"`
	IsActive bool   `json:"is_active"`
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		Stock:    p.Stock,
		LineKey:  linekey.Of(p.ID),
		IsActive: p.IsActive,
	}
}

// 公開中の商品だけ返す
func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (ProductResponse, error) {
	if productID <= 0 {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.IsActive {
		return ProductResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return toProductResponse(p), nil
}

type CreateProductInput struct {
	Title       string
	Description string
	Price       int64
	Stock       int64
	IsActive    bool
}

// デモデータ投入用（SEED_DEMO）
func (u *ProductUsecase) CreateProduct(ctx context.Context, in CreateProductInput) (ProductResponse, error) {
	if strings.TrimSpace(in.Title) == "" {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, "title required")
	}
	if in.Price < 0 {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return ProductResponse{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductResponse(p), nil
}
