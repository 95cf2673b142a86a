package web

import (
	"github.com/bronystylecrazy/layertrace/cfg"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ModuleName = "layertrace.web"

func Module(extends ...fx.Option) fx.Option {
	return fx.Module(
		ModuleName,
		cfg.Provide[Config]("web",
			cfg.WithDefault("web.host", "0.0.0.0"),
			cfg.WithDefault("web.port", "8080"),
		),
		cfg.Provide[FiberConfig]("web.fiber"),
		cfg.Provide[TraceConfig]("web.trace"),
		fx.Provide(
			NewFiberApp,
			NewInstrumentationFromConfig,
			NewAppRouter,
		),
		fx.Invoke(SetupHandlers, WatchTraceConfig, RegisterFiberApp),
		fx.Options(extends...),
	)
}

type watchTraceConfigIn struct {
	fx.In
	Source cfg.Source `optional:"true"`
	Config TraceConfig
	Inst   *Instrumentation
	Logger *zap.Logger
}

// WatchTraceConfig swaps the instrumentation filter whenever web.trace
// changes on disk. It does nothing unless web.trace.watch is set.
func WatchTraceConfig(in watchTraceConfigIn) error {
	if !in.Config.Watch {
		return nil
	}
	return cfg.Watch(in.Source, "web.trace", func(next TraceConfig) {
		f, err := next.Filter()
		if err != nil {
			in.Logger.Warn("keeping previous layer filter", zap.Error(err))
			return
		}
		in.Inst.SetFilter(f)
		in.Logger.Info("layer filter reloaded",
			zap.Strings("ignore_layers_type", next.IgnoreLayersType),
			zap.Strings("ignore_layers", next.IgnoreLayers),
		)
	}, in.Logger)
}
