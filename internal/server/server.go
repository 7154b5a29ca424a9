package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Handlers struct {
	Session *handler.SessionHandler
	Cart    *handler.CartHandler
	Product *handler.ProductHandler
}

// New はルートを登録したechoを返す
func New(h Handlers, jwtSecret string, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// /cart/session はトークン不要なのでグループより先に登録
	h.Session.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, jwtSecret)
	h.Product.RegisterRoutes(e)
	return e
}

// Start はctxがキャンセルされるまで動かし、終了時は待ってから閉じる
func Start(ctx context.Context, e *echo.Echo, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
