package middleware

import (
	"context"

	"github.com/atriumcrm/atrium/pkg/trace"
	tracectx "github.com/atriumcrm/atrium/pkg/trace/context"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TraceMiddleware 链路追踪中间件
// 对 HTTP 服务器请求进行埋点
func TraceMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}

		ctx, span := trace.StartSpan(ctx, c.Method()+" "+c.Path(),
			oteltrace.WithSpanKind(oteltrace.SpanKindServer))
		defer span.End()

		trace.AddSpanAttributes(span,
			attribute.String("http.method", c.Method()),
			attribute.String("http.route", c.Path()),
		)

		// 将 trace context 设置回 fiber context，以便后续中间件和处理器使用
		c.SetUserContext(ctx)

		// goroutine-local copy, so the log core can attach trace_id without a ctx
		tracectx.SetContext(ctx)
		defer tracectx.ClearContext()

		err := c.Next()

		status := c.Response().StatusCode()
		trace.AddSpanAttributes(span, attribute.Int("http.status_code", status))
		if err != nil {
			trace.RecordError(span, err)
		} else if status >= fiber.StatusInternalServerError {
			trace.SetSpanStatus(span, codes.Error, "server error")
		}
		return err
	}
}
