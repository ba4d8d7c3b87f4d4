// internal/pkg/tracing/tracer.go
package tracing

import (
	"bazaar/internal/pkg/logger"
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Options 描述 tracer provider 的初始化参数
type Options struct {
	ServiceName    string
	Environment    string
	JaegerEndpoint string  // 为空时不导出，只在进程内生成 span（本地开发、测试）
	SampleRatio    float64 // <=0 或 >=1 时全量采样
}

// InitTracerProvider initializes and registers a Jaeger TraceProvider.
func InitTracerProvider(opts Options) (*sdktrace.TracerProvider, error) {
	sampler := sdktrace.AlwaysSample()
	if opts.SampleRatio > 0 && opts.SampleRatio < 1 {
		// 尊重上游的采样决定，根 span 按比例采样
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
			semconv.DeploymentEnvironmentKey.String(opts.Environment),
		)),
	}

	if opts.JaegerEndpoint != "" {
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.JaegerEndpoint)))
		if err != nil {
			return nil, err
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	// 服务间传递 trace context 和 baggage
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Ctx(context.Background()).Info().
		Str("service", opts.ServiceName).
		Str("jaeger_endpoint", opts.JaegerEndpoint).
		Msg("Tracing initialized")
	return tp, nil
}
