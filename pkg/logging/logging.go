// Package logging builds the structured logger shared by the service and the
// CLI: zap for encoding, exposed as a logr.Logger.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	TimeStampKey = "timestamp"
	MessageKey   = "message"
)

// Options selects the level and encoding. Level accepts zap level names
// ("debug", "info", "warn", "error"); Format is "json" (default) or
// "console". Output defaults to stderr.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New builds a logger and the flush function the caller must run before exit.
func New(opts Options) (logr.Logger, func(), error) {
	level := zapcore.InfoLevel
	if raw := strings.TrimSpace(opts.Level); raw != "" {
		parsed, err := zapcore.ParseLevel(raw)
		if err != nil {
			return logr.Discard(), func() {}, fmt.Errorf("logging: %w", err)
		}
		level = parsed
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "console":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return logr.Discard(), func() {}, fmt.Errorf("logging: unknown format %q", opts.Format)
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if opts.Output != nil {
		sink = zapcore.AddSync(opts.Output)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(level))
	zl := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)

	flush := func() {
		if err := zl.Sync(); err != nil && !isIgnorableSyncError(err) {
			fmt.Fprintf(os.Stderr, "WARNING: failed to sync zap logger: %v\n", err)
		}
	}
	return zapr.NewLogger(zl), flush, nil
}

// WithLogger attaches log to ctx.
func WithLogger(ctx context.Context, log logr.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger attached to ctx or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	if ctx == nil {
		return logr.Discard()
	}
	if log, ok := ctx.Value(loggerContextKey{}).(logr.Logger); ok {
		return log
	}
	return logr.Discard()
}

// isIgnorableSyncError reports the errors zap returns when syncing pipes and
// terminals.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}
