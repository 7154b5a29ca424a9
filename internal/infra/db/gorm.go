package db

import (
	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Server) (*gorm.DB, error) {
	gcfg := &gorm.Config{}
	if cfg.GoEnv == "prod" {
		gcfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), gcfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	return gdb, nil
}

// Migrate はカートに必要なテーブルを作る
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}
