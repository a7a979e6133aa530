package xmetrics

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xloadkit/pkg/context/xctx"
)

const (
	defaultInstrumentationName = "github.com/omeyang/xloadkit/xmetrics"
	unknownName                = "unknown"

	metricOperationTotal    = "xloadkit.operation.total"
	metricOperationDuration = "xloadkit.operation.duration"
	metricFailureTotal      = "xloadkit.failure.total"
)

type otelConfig struct {
	instrumentationName string
	tracerProvider      trace.TracerProvider
	meterProvider       metric.MeterProvider
}

// Option OTel 配置选项，Observer 和 FailureCounter 共用。
type Option func(*otelConfig)

// WithInstrumentationName 设置 instrumentation 名称，空值忽略。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithTracerProvider 设置 TracerProvider，nil 忽略。
func WithTracerProvider(p trace.TracerProvider) Option {
	return func(cfg *otelConfig) {
		if p != nil {
			cfg.tracerProvider = p
		}
	}
}

// WithMeterProvider 设置 MeterProvider，nil 忽略。
func WithMeterProvider(p metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if p != nil {
			cfg.meterProvider = p
		}
	}
}

func newConfig(opts []Option) *otelConfig {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		tracerProvider:      otel.GetTracerProvider(),
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// NewOTelObserver 创建基于 OpenTelemetry 的 Observer，默认使用全局 provider。
func NewOTelObserver(opts ...Option) (Observer, error) {
	cfg := newConfig(opts)
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	total, err := meter.Int64Counter(metricOperationTotal,
		metric.WithDescription("total operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateCounter, err)
	}
	duration, err := meter.Float64Histogram(metricOperationDuration,
		metric.WithDescription("operation duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateHistogram, err)
	}

	return &otelObserver{
		tracer:   cfg.tracerProvider.Tracer(cfg.instrumentationName),
		total:    total,
		duration: duration,
	}, nil
}

type otelObserver struct {
	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

func (o *otelObserver) Start(ctx context.Context, opts SpanOptions) (context.Context, Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = ensureParentSpan(ctx)

	component := nonEmpty(opts.Component)
	operation := nonEmpty(opts.Operation)

	attrs := make([]attribute.KeyValue, 0, 2+len(opts.Attrs))
	attrs = append(attrs,
		attribute.String("component", component),
		attribute.String("operation", operation),
	)
	attrs = append(attrs, attrsToOTel(opts.Attrs)...)

	kind := trace.SpanKindInternal
	if opts.Kind == KindClient {
		kind = trace.SpanKindClient
	}
	ctx, span := o.tracer.Start(ctx, operation, trace.WithSpanKind(kind), trace.WithAttributes(attrs...))
	ctx = syncXctx(ctx, span.SpanContext())

	return ctx, &otelSpan{
		span:      span,
		observer:  o,
		ctx:       ctx,
		component: component,
		operation: operation,
		start:     time.Now(),
	}
}

type otelSpan struct {
	span      trace.Span
	observer  *otelObserver
	ctx       context.Context
	component string
	operation string
	start     time.Time
	endOnce   sync.Once
}

// End 幂等，只记录一次指标。
func (s *otelSpan) End(result Result) {
	s.endOnce.Do(func() {
		status := resolveStatus(result)
		if result.Err != nil {
			s.span.RecordError(result.Err)
		}
		if status == StatusError {
			msg := "operation failed"
			if result.Err != nil {
				msg = result.Err.Error()
			}
			s.span.SetStatus(codes.Error, msg)
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		if len(result.Attrs) > 0 {
			s.span.SetAttributes(attrsToOTel(result.Attrs)...)
		}
		s.span.End()

		// 请求 ctx 已取消时指标仍需记录
		ctx := context.WithoutCancel(s.ctx)
		set := metric.WithAttributes(
			attribute.String("component", s.component),
			attribute.String("operation", s.operation),
			attribute.String("status", string(status)),
		)
		s.observer.total.Add(ctx, 1, set)
		s.observer.duration.Record(ctx, time.Since(s.start).Seconds(), set)
	})
}

func nonEmpty(s string) string {
	if s == "" {
		return unknownName
	}
	return s
}

// ensureParentSpan 没有 OTel span 时用 xctx 中的 trace_id/span_id 构造远端父 span。
func ensureParentSpan(ctx context.Context) context.Context {
	if trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}
	traceID, err := trace.TraceIDFromHex(xctx.TraceID(ctx))
	if err != nil {
		return ctx
	}
	spanID, err := trace.SpanIDFromHex(xctx.SpanID(ctx))
	if err != nil {
		return ctx
	}
	var flags trace.TraceFlags
	if parsed, err := strconv.ParseUint(xctx.TraceFlags(ctx), 16, 8); err == nil {
		flags = trace.TraceFlags(parsed)
	}
	return trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	}))
}

// syncXctx 把新 span 的标识写回 xctx，日志可以直接关联。
func syncXctx(ctx context.Context, sc trace.SpanContext) context.Context {
	if !sc.IsValid() {
		return ctx
	}
	next, err := xctx.WithTrace(ctx, xctx.Trace{
		TraceID:    sc.TraceID().String(),
		SpanID:     sc.SpanID().String(),
		TraceFlags: fmt.Sprintf("%02x", byte(sc.TraceFlags())),
	})
	if err != nil {
		return ctx
	}
	return next
}
