package web

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/bronystylecrazy/layertrace/build"
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultTimeout = 2 * time.Second

func NewFiberApp(config FiberConfig) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      buildAppName(config.Name),
		ReadTimeout:  orDefault(config.ReadTimeout),
		WriteTimeout: orDefault(config.WriteTimeout),
		IdleTimeout:  orDefault(config.IdleTimeout),
	})
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}

func buildAppName(name string) string {
	if name == "" {
		name = build.Name
	}
	return fmt.Sprintf("%s (%s %s %s)", name, build.Version, build.Commit, build.BuildDate)
}

// NewAppRouter installs the request middleware on app and returns the
// traced root router. Panics escaping a layer become 500 responses after
// the request span has seen them.
func NewAppRouter(app *fiber.App, inst *Instrumentation) Router {
	inst.Handle(app)
	app.Use(recoverer.New(recoverer.Config{EnableStackTrace: build.IsDevelopment()}))
	return NewRouter(app, inst)
}

func RegisterFiberApp(lc fx.Lifecycle, app *fiber.App, logger *zap.Logger, config Config) {
	addr := net.JoinHostPort(config.Host, config.Port)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("starting fiber app", zap.String("addr", addr))
				err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: build.IsProduction()})
				if err != nil {
					logger.Error("failed to start fiber app", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}
