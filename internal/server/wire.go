package server

import (
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type uuidGenerator struct{}

func (g uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c realClock) Now() time.Time {
	return time.Now()
}

// Repos はusecaseに渡す永続化（gormでもmemoryでも）
type Repos struct {
	Carts    repo.CartRepository
	Products repo.ProductRepository
	Tx       repo.TransactionManager
}

// Build はusecase→handler→echoを組み立てる
func Build(cfg config.Server, r Repos, logger *zap.Logger) *echo.Echo {
	issuer := usecase.NewJWTSessionIssuer(cfg.JWTSecret, cfg.SessionTTL)

	cartUC := usecase.NewCartUsecase(r.Carts, r.Products, r.Tx, cfg.Currency)
	sessionUC := usecase.NewSessionUsecase(r.Carts, uuidGenerator{}, realClock{}, issuer, cfg.Currency)
	productUC := usecase.NewProductUsecase(r.Products)

	return New(Handlers{
		Session: handler.NewSessionHandler(sessionUC),
		Cart:    handler.NewCartHandler(cartUC),
		Product: handler.NewProductHandler(productUC),
	}, cfg.JWTSecret, logger)
}
