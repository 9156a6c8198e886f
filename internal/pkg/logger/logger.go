package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Itera/unger-agentic-insight/internal/config"
)

type Fields = logrus.Fields

// Logger wraps logrus with the variadic key/value helpers the services
// use, plus workflow/agent/service logging shortcuts.
type Logger struct {
	entry *logrus.Entry
}

func New(cfg config.LogConfig) (*Logger, error) {
	base := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	base.SetLevel(level)

	switch cfg.Format {
	case "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	var output io.Writer
	switch cfg.Output {
	case "file":
		output = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}
	base.SetOutput(output)

	return &Logger{entry: logrus.NewEntry(base)}, nil
}

func (log *Logger) WithFields(fields Fields) *Logger {
	return &Logger{entry: log.entry.WithFields(fields)}
}

func (log *Logger) WithError(err error) *Logger {
	return &Logger{entry: log.entry.WithError(err)}
}

func (log *Logger) Debug(msg string, keysAndValues ...any) {
	log.entry.WithFields(pairsToFields(keysAndValues)).Debug(msg)
}

func (log *Logger) Info(msg string, keysAndValues ...any) {
	log.entry.WithFields(pairsToFields(keysAndValues)).Info(msg)
}

func (log *Logger) Warn(msg string, keysAndValues ...any) {
	log.entry.WithFields(pairsToFields(keysAndValues)).Warn(msg)
}

func (log *Logger) Error(msg string, keysAndValues ...any) {
	log.entry.WithFields(pairsToFields(keysAndValues)).Error(msg)
}

// LogWorkflow records a workflow lifecycle event.
func (log *Logger) LogWorkflow(requestID, event string, duration time.Duration, err error) {
	entry := log.entry.WithFields(Fields{
		"request_id":  requestID,
		"event":       event,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("workflow event")
		return
	}
	entry.Info("workflow event")
}

// LogAgent records one agent operation with its structured details.
func (log *Logger) LogAgent(requestID, agent, operation string, duration time.Duration, details map[string]any, err error) {
	entry := log.entry.WithFields(Fields{
		"request_id":  requestID,
		"agent":       agent,
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	}).WithFields(Fields(details))
	if err != nil {
		entry.WithError(err).Error("agent operation")
		return
	}
	entry.Info("agent operation")
}

// LogService records one outbound service call.
func (log *Logger) LogService(service, operation string, duration time.Duration, details map[string]any, err error) {
	entry := log.entry.WithFields(Fields{
		"service":     service,
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	}).WithFields(Fields(details))
	if err != nil {
		entry.WithError(err).Error("service call")
		return
	}
	entry.Info("service call")
}

func pairsToFields(keysAndValues []any) Fields {
	fields := Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
