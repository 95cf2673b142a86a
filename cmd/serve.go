package cmd

import (
	"context"

	"github.com/bronystylecrazy/layertrace/cfg"
	"github.com/bronystylecrazy/layertrace/log"
	"github.com/bronystylecrazy/layertrace/otel"
	"github.com/bronystylecrazy/layertrace/web"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// ServeCommand boots the log, otel and web modules and serves until the
// command context ends or the app shuts itself down.
type ServeCommand struct {
	options []fx.Option
}

// NewServeCommand creates the serve command. options extend the web module,
// typically with handlers registered through web.AsHandler.
func NewServeCommand(options ...fx.Option) *ServeCommand {
	return &ServeCommand{options: options}
}

func (s *ServeCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "serve",
		Short:         "Start the HTTP server",
		SilenceErrors: true,
		RunE:          s.Run,
	}
	cmd.Flags().StringP("config", "c", cfg.DefaultFile, "config file")
	return cmd
}

// App builds the fx application for the given config file.
func (s *ServeCommand) App(file string, extra ...fx.Option) *fx.App {
	return fx.New(
		fx.Supply(cfg.Source{File: file}),
		log.Module(),
		otel.Module(),
		web.Module(s.options...),
		fx.Options(extra...),
	)
}

func (s *ServeCommand) Run(cmd *cobra.Command, args []string) error {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	app := s.App(file)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	select {
	case <-app.Done():
	case <-ctx.Done():
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()
	return app.Stop(stopCtx)
}
