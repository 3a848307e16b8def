package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"resumescreener/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "resume-screener"

// Manager owns the tracer and meter providers and the screening metrics.
// A disabled Manager records nothing and hands out no-op tracers.
type Manager struct {
	config         ObservabilityConfig
	logger         *errors.Logger
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	closers        []func(context.Context) error
}

// NewManager builds the providers described by obsConfig and installs them
// as the global OpenTelemetry providers.
func NewManager(obsConfig ObservabilityConfig, logger *errors.Logger) (*Manager, error) {
	return newManager(obsConfig, logger)
}

func newManager(obsConfig ObservabilityConfig, logger *errors.Logger, extraReaders ...sdkmetric.Reader) (*Manager, error) {
	om := &Manager{config: obsConfig, logger: logger}
	if !obsConfig.Enabled {
		return om, nil
	}
	if err := om.start(extraReaders); err != nil {
		_ = om.Shutdown(context.Background())
		return nil, err
	}

	logger.Info("Observability initialized",
		"service", obsConfig.ServiceName,
		"console", obsConfig.ConsoleOutput,
		"otlp", obsConfig.OTLP.Enabled,
		"prometheus", obsConfig.Prometheus.Enabled)
	return om, nil
}

func (om *Manager) start(extraReaders []sdkmetric.Reader) error {
	obsConfig := om.config

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(obsConfig.ServiceName),
		semconv.ServiceVersion(obsConfig.ServiceVersion),
		attribute.String("service.instance.id", om.instanceID()),
	))
	if err != nil {
		return fmt.Errorf("failed to initialize resource: %w", err)
	}

	if err := om.startTracing(res); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	readers, err := om.metricReaders()
	if err == nil {
		err = om.startMetrics(res, append(readers, extraReaders...))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return nil
}

// startTracing always installs a provider so trace context propagates. Spans
// are exported to the console when console output is on, else over OTLP when
// configured, else nowhere.
func (om *Manager) startTracing(res *resource.Resource) error {
	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	}

	var exporter trace.SpanExporter
	var err error
	switch {
	case om.config.ConsoleOutput:
		var stdoutOpts []stdouttrace.Option
		if om.config.PrettyPrint {
			stdoutOpts = append(stdoutOpts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(stdoutOpts...)
	case om.config.OTLP.Enabled:
		exporter, err = om.otlpSpanExporter()
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}
	if exporter != nil {
		opts = append(opts, trace.WithBatcher(exporter))
	}

	om.tracerProvider = trace.NewTracerProvider(opts...)
	om.closers = append(om.closers, om.tracerProvider.Shutdown)
	otel.SetTracerProvider(om.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return nil
}

func (om *Manager) otlpSpanExporter() (trace.SpanExporter, error) {
	otlp := om.config.OTLP
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlp.Headers))
	}
	return otlptracehttp.New(context.Background(), opts...)
}

// metricReaders creates one reader per configured sink.
func (om *Manager) metricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	periodic := func(exporter sdkmetric.Exporter) sdkmetric.Reader {
		return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.config.CollectionInterval))
	}

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, periodic(exporter))
	}

	if otlp := om.config.OTLP; otlp.Enabled {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlp.Endpoint)}
		if otlp.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(otlp.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(otlp.Headers))
		}
		exporter, err := otlpmetrichttp.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, periodic(exporter))
	}

	if om.config.Prometheus.Enabled {
		reader, stop, err := newPrometheusReader(om.config.Prometheus, om.logger)
		if err != nil {
			return nil, err
		}
		readers = append(readers, reader)
		om.closers = append(om.closers, stop)
	}
	return readers, nil
}

func (om *Manager) startMetrics(res *resource.Resource, readers []sdkmetric.Reader) error {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	om.meterProvider = sdkmetric.NewMeterProvider(opts...)
	om.closers = append(om.closers, om.meterProvider.Shutdown)
	otel.SetMeterProvider(om.meterProvider)

	metrics, err := newMetrics(om.meterProvider.Meter(om.config.ServiceName))
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

// HTTPMiddleware traces and measures every request. It is the identity when
// observability is disabled.
func (om *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if om.tracerProvider == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	return otelhttp.NewMiddleware(om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider))
}

func (om *Manager) Tracer(name string) oteltrace.Tracer {
	if om.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown flushes and closes everything in reverse order of creation.
func (om *Manager) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(om.closers) - 1; i >= 0; i-- {
		errs = append(errs, om.closers[i](ctx))
	}
	om.closers = nil
	return stderrors.Join(errs...)
}

func (om *Manager) instanceID() string {
	if om.config.ServiceInstance != "" {
		return om.config.ServiceInstance
	}
	return om.config.ServiceName + "-1"
}
