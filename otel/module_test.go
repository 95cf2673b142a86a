package otel

import (
	"path/filepath"
	"testing"

	"github.com/bronystylecrazy/layertrace/cfg"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestModuleProvidesObserverWithDefaults(t *testing.T) {
	var (
		config Config
		obs    *Observer
		lp     *LoggerProvider
	)
	app := fxtest.New(t,
		fx.Supply(cfg.Source{File: filepath.Join(t.TempDir(), "missing.toml")}),
		fx.Supply(zap.NewNop()),
		Module(),
		fx.Populate(&config, &obs, &lp),
	)
	app.RequireStart().RequireStop()

	if config.ServiceName != "layertrace" {
		t.Fatalf("unexpected service name: %q", config.ServiceName)
	}
	if config.TracesEnabled() || config.MetricsEnabled() {
		t.Fatalf("expected export to be disabled by default")
	}
	if config.OTLP.Protocol != "grpc" || config.OTLP.TimeoutMS != 10000 {
		t.Fatalf("unexpected otlp defaults: %+v", config.OTLP)
	}
	if obs == nil {
		t.Fatalf("expected observer to be provided")
	}
	if config.LogsEnabled() || config.Logs.Exporter != ExporterNone {
		t.Fatalf("expected log export to be disabled by default, got %q", config.Logs.Exporter)
	}
	if lp == nil {
		t.Fatalf("expected logger provider to be provided")
	}
}

func TestModuleEnvEnablesService(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "orders")

	var config Config
	app := fxtest.New(t,
		fx.Supply(cfg.Source{File: filepath.Join(t.TempDir(), "missing.toml")}),
		fx.Supply(zap.NewNop()),
		Module(),
		fx.Populate(&config),
	)
	app.RequireStart().RequireStop()

	if config.ServiceName != "orders" {
		t.Fatalf("expected env service name, got %q", config.ServiceName)
	}
}
