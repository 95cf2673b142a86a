package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bronystylecrazy/layertrace/cmd"
	"github.com/bronystylecrazy/layertrace/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type usersHandler struct {
	logger *zap.Logger
	users  map[string]string
}

func newUsersHandler(logger *zap.Logger) *usersHandler {
	return &usersHandler{
		logger: logger,
		users:  map[string]string{"1": "ada", "2": "grace"},
	}
}

func (h *usersHandler) Handle(r web.Router) {
	api := r.Group("/api")
	api.Use(web.Named("requestid", requestid.New()))

	users := api.Group("/users")
	users.Get("/", h.list)
	users.Get("/:id", h.get)
}

func (h *usersHandler) list(c fiber.Ctx) error {
	return c.JSON(h.users)
}

func (h *usersHandler) get(c fiber.Ctx) error {
	name, ok := h.users[c.Params("id")]
	if !ok {
		return fiber.ErrNotFound
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "name": name})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cmd.New(nil)
	err := root.Register(
		cmd.NewVersionCommand(),
		cmd.NewServeCommand(
			fx.Provide(
				web.AsHandler(web.NewHealthHandler),
				web.AsHandler(newUsersHandler),
			),
		),
	)
	if err == nil {
		err = root.Start(ctx)
	}
	if err != nil {
		root.PrintErrln(err)
		stop()
		os.Exit(1)
	}
}
