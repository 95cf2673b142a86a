package web

import (
	"time"

	"github.com/bronystylecrazy/layertrace/layer"
)

type Config struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port" validate:"omitempty,numeric"`
}

type FiberConfig struct {
	Name         string        `mapstructure:"name"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// TraceConfig selects the layers left out of tracing. Entries of
// IgnoreLayers match span names exactly unless prefixed with "regex:".
type TraceConfig struct {
	IgnoreLayersType []string `mapstructure:"ignore_layers_type" validate:"dive,oneof=router request_handler middleware"`
	IgnoreLayers     []string `mapstructure:"ignore_layers"`
	// Watch reloads the filter when the config file changes.
	Watch bool `mapstructure:"watch"`
}

func (c TraceConfig) Filter() (*layer.Filter, error) {
	return layer.NewFilter(c.IgnoreLayersType, c.IgnoreLayers)
}
