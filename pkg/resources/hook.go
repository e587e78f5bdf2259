package resources

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	otelog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// LogBridgeHook forwards zerolog events to the globally installed OTel
// logger provider. Without an installed provider it is a no-op; zerolog
// still prints to its own writer either way.
type LogBridgeHook struct {
	logger         otelog.Logger
	serviceName    string
	serviceVersion string
}

func NewLogBridgeHook(serviceName string, serviceVersion string) *LogBridgeHook {
	return &LogBridgeHook{
		logger:         global.GetLoggerProvider().Logger(serviceName),
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
	}
}

func (h *LogBridgeHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	buf, ok := eventBuffer(e)
	if !ok {
		return
	}

	var fields map[string]any
	if err := json.Unmarshal(buf, &fields); err != nil {
		return
	}

	var rec otelog.Record

	severity, severityText := levelToSeverity(level)

	rec.SetTimestamp(extractTimestamp(fields))
	rec.SetSeverity(severity)
	rec.SetSeverityText(severityText)
	rec.SetBody(otelog.StringValue(msg))
	rec.AddAttributes(
		otelog.String("service.name", h.serviceName),
		otelog.String("service.version", h.serviceVersion),
	)
	rec.AddAttributes(fieldsToAttrs(fields)...)

	h.logger.Emit(e.GetCtx(), rec)
}

func levelToSeverity(level zerolog.Level) (otelog.Severity, string) {
	switch level {
	case zerolog.TraceLevel:
		return otelog.SeverityTrace, "TRACE"
	case zerolog.DebugLevel:
		return otelog.SeverityDebug, "DEBUG"
	case zerolog.InfoLevel:
		return otelog.SeverityInfo, "INFO"
	case zerolog.WarnLevel:
		return otelog.SeverityWarn, "WARN"
	case zerolog.ErrorLevel:
		return otelog.SeverityError, "ERROR"
	case zerolog.FatalLevel:
		return otelog.SeverityFatal, "FATAL"
	case zerolog.PanicLevel:
		return otelog.SeverityFatal4, "FATAL"
	default:
		return otelog.SeverityInfo, "INFO"
	}
}

// eventBuffer pulls the accumulated JSON out of the zerolog event.
// zerolog does not expose it, so this reads the unexported buf field.
func eventBuffer(e *zerolog.Event) ([]byte, bool) {
	if e == nil {
		return nil, false
	}

	v := reflect.ValueOf(e)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, false
	}

	f := v.Elem().FieldByName("buf")
	if !f.IsValid() || f.Kind() != reflect.Slice || f.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}

	buf := append([]byte(nil), f.Bytes()...)
	if len(buf) == 0 {
		return nil, false
	}

	// The event is still open, so the object is unterminated.
	if buf[len(buf)-1] != '}' {
		buf = append(buf, '}')
	}

	return buf, true
}

func fieldsToAttrs(fields map[string]any) []otelog.KeyValue {
	kvs := make([]otelog.KeyValue, 0, len(fields))

	for k, v := range fields {
		if k == "time" {
			continue
		}

		switch x := v.(type) {
		case string:
			kvs = append(kvs, otelog.String(k, x))
		case bool:
			kvs = append(kvs, otelog.Bool(k, x))
		case float64: // json numbers
			if x == float64(int64(x)) {
				kvs = append(kvs, otelog.Int64(k, int64(x)))
			} else {
				kvs = append(kvs, otelog.Float64(k, x))
			}
		default:
			kvs = append(kvs, otelog.String(k, fmt.Sprintf("%v", x)))
		}
	}

	return kvs
}

func extractTimestamp(fields map[string]any) time.Time {
	s, ok := fields["time"].(string)
	if !ok {
		return time.Now()
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}

	return time.Now()
}
