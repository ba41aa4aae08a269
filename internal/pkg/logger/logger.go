// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Init 初始化全局 zerolog Logger。
// dev 模式下输出带颜色的控制台日志，否则输出 JSON。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var logger zerolog.Logger
	if os.Getenv("APP_ENV") == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	log.Logger = logger.With().Str("service", serviceName).Logger()
}

// Ctx 返回一个附带了当前 trace_id 的 Logger，
// 便于在 Jaeger 中按 trace 关联日志。
func Ctx(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &log.Logger
	}
	l := log.Logger.With().Str("trace_id", sc.TraceID().String()).Logger()
	return &l
}
