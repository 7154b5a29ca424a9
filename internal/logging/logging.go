package logging

import (
	"go.uber.org/zap"
)

// New はGO_ENVに応じたロガーを返す（prodはJSON、それ以外は開発用）
func New(goEnv string) (*zap.Logger, error) {
	switch goEnv {
	case "prod", "production":
		return zap.NewProduction()
	default:
		return zap.NewDevelopment()
	}
}

// Must は起動時用。作れなければNopに落とす。
func Must(goEnv string) *zap.Logger {
	logger, err := New(goEnv)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
