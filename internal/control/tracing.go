package control

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/simdata/internal/logging"
	"github.com/signalsfoundry/simdata/internal/observability"
)

const tracerName = "github.com/signalsfoundry/simdata/internal/control"

// TracingUnaryServerInterceptor enriches RPC spans with standard attributes and
// ensures a server span exists when tracing interceptors are not configured.
func TracingUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		service, method := observability.SplitMethod(info.FullMethod)
		spanName := fmt.Sprintf("Control/%s/%s", service, method)
		span := trace.SpanFromContext(ctx)
		created := false
		if !span.SpanContext().IsValid() {
			ctx, span = tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
			created = true
		} else {
			span.SetName(spanName)
		}

		attrs := []attribute.KeyValue{
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", service),
			attribute.String("rpc.method", method),
			attribute.String("rpc.full_method", strings.TrimPrefix(info.FullMethod, "/")),
		}
		if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
			attrs = append(attrs, attribute.String("request_id", reqID))
		}
		span.SetAttributes(attrs...)

		resp, err := handler(ctx, req)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		if created {
			span.End()
		}
		return resp, err
	}
}

// startChildSpan starts a span for one store operation inside a handler.
func startChildSpan(ctx context.Context, name string, entityID uint64, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	attrs := make([]attribute.KeyValue, 0, len(extra)+1)
	attrs = append(attrs, attribute.Int64("entity_id", int64(entityID)))
	attrs = append(attrs, extra...)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
