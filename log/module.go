package log

import (
	"github.com/bronystylecrazy/layertrace/build"
	"github.com/bronystylecrazy/layertrace/cfg"
	"go.uber.org/fx"
)

var ModuleName = "layertrace.log"

func defaultLevel() string {
	if build.IsProduction() {
		return "info"
	}
	return "debug"
}

func Module(extends ...fx.Option) fx.Option {
	return fx.Module(
		ModuleName,
		cfg.Provide[Config]("log", cfg.WithDefault("log.level", defaultLevel())),
		fx.Provide(NewZapLogger),
		fx.WithLogger(NewEventLogger),
		fx.Options(extends...),
	)
}
