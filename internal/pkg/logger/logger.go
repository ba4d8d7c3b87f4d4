// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是进程级的基础 logger，Init 之前也可以直接使用。
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init 设置服务名和日志级别，env 为 dev 时输出人类可读格式。
func Init(serviceName, level, env string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if env == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	Logger = zerolog.New(out).With().Timestamp().Str("service", serviceName).Logger()
}

// Ctx 返回一个附带了 trace_id / span_id 的 logger
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			l = l.With().
				Str("trace_id", sc.TraceID().String()).
				Str("span_id", sc.SpanID().String()).
				Logger()
		}
	}
	return &l
}
