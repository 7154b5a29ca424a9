package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/infra/db"
	"storefront/internal/infra/memory"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logging"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"go.uber.org/zap"
)

// デモ用の商品（SEED_DEMO=true）
var demoProducts = []usecase.CreateProductInput{
	{Title: "Coffee Beans", Description: "single origin, 200g", Price: 1200, Stock: 10, IsActive: true},
	{Title: "Mug", Description: "stoneware, 350ml", Price: 800, Stock: 5, IsActive: true},
	{Title: "Drip Kettle", Description: "gooseneck, 0.9L", Price: 4500, Stock: 3, IsActive: true},
}

func main() {
	cfg, err := config.LoadServer("../.env", ".env")
	if err != nil {
		panic(err)
	}

	logger := logging.Must(cfg.GoEnv)
	defer func() { _ = logger.Sync() }()

	//Repository生成（postgres or memory）
	repos, err := buildRepos(cfg, logger)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SeedDemo {
		seed(ctx, repos, logger)
	}

	e := server.Build(cfg, repos, logger)
	if err := server.Start(ctx, e, cfg.Addr(), logger); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func buildRepos(cfg config.Server, logger *zap.Logger) (server.Repos, error) {
	if cfg.Storage == "memory" {
		logger.Warn("using in-memory storage; carts are lost on restart")
		store := memory.NewStore()
		return server.Repos{Carts: store, Products: store, Tx: store}, nil
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return server.Repos{}, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return server.Repos{}, err
	}

	return server.Repos{
		Carts:    infraRepo.NewCartGormRepository(gormDB),
		Products: infraRepo.NewProductGormRepository(gormDB),
		Tx:       infraRepo.NewTxManagerGorm(gormDB),
	}, nil
}

func seed(ctx context.Context, repos server.Repos, logger *zap.Logger) {
	uc := usecase.NewProductUsecase(repos.Products)
	for _, in := range demoProducts {
		p, err := uc.CreateProduct(ctx, in)
		if err != nil {
			logger.Warn("seed product", zap.String("title", in.Title), zap.Error(err))
			continue
		}
		logger.Info("seeded product",
			zap.Int64("id", p.ID),
			zap.String("title", p.Title),
			zap.String("line_key", p.LineKey),
		)
	}
}
