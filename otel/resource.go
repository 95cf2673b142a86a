package otel

import (
	"context"
	"os"
	"sort"

	"github.com/bronystylecrazy/layertrace/build"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

func NewResource(ctx context.Context, config Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(build.Version),
		semconv.DeploymentEnvironmentName(build.Environment()),
	}
	if config.Namespace != "" {
		attrs = append(attrs, semconv.ServiceNamespace(config.Namespace))
	}
	if hostName, err := os.Hostname(); err == nil {
		attrs = append(attrs, semconv.HostName(hostName))
	}

	keys := make([]string, 0, len(config.ResourceAttrs))
	for k := range config.ResourceAttrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, config.ResourceAttrs[k]))
	}

	return resource.New(ctx, resource.WithAttributes(attrs...))
}
