// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package log

import (
	"io"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// DefaultLogger writes info entries and above to os.Stdout
	DefaultLogger Logger = NewZap(InfoLevel, os.Stdout)

	// DebugLogger writes every entry to os.Stdout
	DebugLogger Logger = NewZap(DebugLevel, os.Stdout)
)

// Zap is the zap backed Logger. Entries are JSON encoded.
type Zap struct {
	logger  *zap.Logger
	sugar   *zap.SugaredLogger
	level   Level
	outputs []io.Writer
}

// enforce compilation error
var _ Logger = (*Zap)(nil)

// NewZap creates a logger writing entries of at least level to writers
func NewZap(level Level, writers ...io.Writer) *Zap {
	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zap.CombineWriteSyncers(syncers...),
		zapLevel(level))

	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel))

	return &Zap{
		logger:  logger,
		sugar:   logger.Sugar(),
		level:   level,
		outputs: writers,
	}
}

func (z *Zap) Debug(v ...any)                 { z.sugar.Debug(v...) }
func (z *Zap) Debugf(format string, v ...any) { z.sugar.Debugf(format, v...) }
func (z *Zap) Info(v ...any)                  { z.sugar.Info(v...) }
func (z *Zap) Infof(format string, v ...any)  { z.sugar.Infof(format, v...) }
func (z *Zap) Warn(v ...any)                  { z.sugar.Warn(v...) }
func (z *Zap) Warnf(format string, v ...any)  { z.sugar.Warnf(format, v...) }
func (z *Zap) Error(v ...any)                 { z.sugar.Error(v...) }
func (z *Zap) Errorf(format string, v ...any) { z.sugar.Errorf(format, v...) }

// Enabled reports whether entries of the given level are written
func (z *Zap) Enabled(level Level) bool {
	return z.logger.Core().Enabled(zapLevel(level))
}

// LogLevel returns the minimum level written by the logger
func (z *Zap) LogLevel() Level {
	return z.level
}

// With returns a Logger adding the given key-value pairs to every entry
func (z *Zap) With(keyValues ...any) Logger {
	if len(keyValues) == 0 {
		return z
	}

	fields := make([]zap.Field, 0, (len(keyValues)+1)/2)
	for i := 0; i < len(keyValues); i += 2 {
		if i+1 >= len(keyValues) {
			fields = append(fields, zap.Any("_", keyValues[i]))
			break
		}

		if key, ok := keyValues[i].(string); ok {
			fields = append(fields, zap.Any(key, keyValues[i+1]))
		}
	}
	return z.derive(z.logger.With(fields...))
}

// Named returns a Logger whose entries carry the given component name
func (z *Zap) Named(name string) Logger {
	return z.derive(z.logger.Named(name))
}

// Flush syncs the file outputs. Standard streams are skipped.
func (z *Zap) Flush() error {
	var err error
	for _, output := range z.outputs {
		file, ok := output.(*os.File)
		if !ok || file == os.Stdout || file == os.Stderr {
			continue
		}
		err = multierr.Append(err, file.Sync())
	}
	return err
}

func (z *Zap) derive(logger *zap.Logger) *Zap {
	return &Zap{
		logger:  logger,
		sugar:   logger.Sugar(),
		level:   z.level,
		outputs: z.outputs,
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "component",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format(time.RFC3339Nano))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarningLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case OffLevel:
		return zapcore.InvalidLevel
	default:
		return zapcore.DebugLevel
	}
}
