// Package logging builds the zap logger scope-service uses everywhere
// (transport, engine, analyzer, api).
//
// Grounded in pattern on device-service/internal/utils/logger.go's
// encoder/write-syncer/level assembly and lumberjack-backed file
// rotation, trimmed to the loggers this driver actually needs: a base
// logger plus a per-device wrapper and a per-operation wrapper. The
// payment/audit/security loggers in the teacher have no analogue here
// and are dropped rather than adapted into something with nothing to
// log.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"scope-service/internal/config"
)

// New builds a zap.Logger from cfg.
func New(cfg *config.LoggingConfig) (*zap.Logger, error) {
	encoderConfig := encoderConfigFor(cfg.Format)

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writer, err := writeSyncerFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create write syncer: %w", err)
	}

	level, err := levelFor(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	core := zapcore.NewCore(encoder, writer, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, nil
}

func encoderConfigFor(format string) zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	ec.LevelKey = "level"
	ec.EncodeLevel = zapcore.LowercaseLevelEncoder
	ec.CallerKey = "caller"
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	ec.MessageKey = "message"
	ec.StacktraceKey = "stacktrace"

	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	}
	return ec
}

func writeSyncerFor(cfg *config.LoggingConfig) (zapcore.WriteSyncer, error) {
	switch cfg.Output {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Output), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		lumber := &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		return zapcore.AddSync(lumber), nil
	}
}

func levelFor(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// DeviceLogger wraps a base logger with fields identifying one
// connected device, mirroring the base logger's contract (embed +
// pre-bound fields).
type DeviceLogger struct {
	*zap.Logger
	SerialOrBus string
}

// NewDeviceLogger returns a logger tagged with the connected device's
// identity.
func NewDeviceLogger(base *zap.Logger, displayName string, vendorID, productID uint16) *DeviceLogger {
	logger := base.With(
		zap.String("component", "device"),
		zap.String("model", displayName),
		zap.Uint16("vendor_id", vendorID),
		zap.Uint16("product_id", productID),
	)
	return &DeviceLogger{Logger: logger}
}

// LogConnection logs a connect/disconnect transition.
func (d *DeviceLogger) LogConnection(action string, err error) {
	fields := []zap.Field{zap.String("action", action)}
	if err != nil {
		d.Error("device connection event", append(fields, zap.Error(err))...)
		return
	}
	d.Info("device connection event", fields...)
}

// OperationLogger reports the start/success/failure of one
// parameter-resolution or acquisition operation with its elapsed time.
type OperationLogger struct {
	logger    *zap.Logger
	startTime time.Time
}

// NewOperationLogger starts timing an operation.
func NewOperationLogger(base *zap.Logger, operation string) *OperationLogger {
	return &OperationLogger{
		logger:    base.With(zap.String("operation", operation)),
		startTime: time.Now(),
	}
}

// Success logs successful completion with elapsed duration.
func (o *OperationLogger) Success(fields ...zap.Field) {
	allFields := append([]zap.Field{zap.Duration("duration", time.Since(o.startTime)), zap.Bool("success", true)}, fields...)
	o.logger.Info("operation completed", allFields...)
}

// Failure logs a failed operation with elapsed duration.
func (o *OperationLogger) Failure(err error, fields ...zap.Field) {
	allFields := append([]zap.Field{zap.Duration("duration", time.Since(o.startTime)), zap.Bool("success", false), zap.Error(err)}, fields...)
	o.logger.Error("operation failed", allFields...)
}
