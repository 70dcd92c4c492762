// Package logger is the structured logger of the lineup service.
//
// A line carries a timestamp, level, message, optional caller and the
// logger's fields followed by the call's fields. JSON output is one flat
// object per line with keys in that order; text output is logfmt-style.
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level is a message severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError

	levelOff
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l >= LevelDebug && l <= LevelError {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLevel reads LOG_LEVEL values. Unknown input means INFO.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if s == name {
			return Level(i)
		}
	}
	return LevelInfo
}

// Format selects the line encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// ParseFormat reads LOG_FORMAT values: "text" or anything else for JSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "text") {
		return FormatText
	}
	return FormatJSON
}

// Field is one key/value pair on a line.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field  { return Field{key, value} }
func Int(key string, value int) Field { return Field{key, value} }
func Bool(key string, v bool) Field   { return Field{key, v} }
func Any(key string, value any) Field { return Field{key, value} }

// Duration renders d as a Go duration string ("1.5s").
func Duration(key string, d time.Duration) Field { return Field{key, d.String()} }

// Err renders err under "error". A nil error renders as null.
func Err(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}

// sink is shared by a logger and everything derived from it.
type sink struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	caller bool
	skip   int
	now    func() time.Time
}

// Logger writes leveled, structured lines. The zero value is not usable;
// build one with New, Default or Nop.
type Logger struct {
	out    *sink
	level  Level
	fields []Field
}

// Options configures New.
type Options struct {
	Output     io.Writer // defaults to stdout
	Level      Level
	Format     Format
	AddCaller  bool
	CallerSkip int
}

// DefaultOptions logs INFO and above as JSON to stdout with callers.
func DefaultOptions() Options {
	return Options{Output: os.Stdout, Level: LevelInfo, AddCaller: true}
}

func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Logger{
		out: &sink{
			w:      opts.Output,
			format: opts.Format,
			caller: opts.AddCaller,
			skip:   opts.CallerSkip,
			now:    time.Now,
		},
		level: opts.Level,
	}
}

func Default() *Logger { return New(DefaultOptions()) }

// Nop discards everything.
func Nop() *Logger { return New(Options{Output: io.Discard, Level: levelOff}) }

// With derives a logger that adds fields to every line.
func (l *Logger) With(fields ...Field) *Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{out: l.out, level: l.level, fields: merged}
}

// Enabled reports whether lines at level would be written.
func (l *Logger) Enabled(level Level) bool { return level >= l.level }

func (l *Logger) Debug(msg string, fields ...Field) { l.write(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.write(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.write(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.write(LevelError, msg, fields) }

func (l *Logger) write(level Level, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}

	head := []Field{
		{"timestamp", l.out.now().UTC().Format(time.RFC3339Nano)},
		{"level", level.String()},
		{"message", msg},
	}
	if l.out.caller {
		// write <- Info/Warn/... <- caller
		if _, file, line, ok := runtime.Caller(2 + l.out.skip); ok {
			head = append(head, Field{"caller", filepath.Base(file) + ":" + strconv.Itoa(line)})
		}
	}
	all := dedupe(append(append(head, l.fields...), fields...))

	var buf bytes.Buffer
	if l.out.format == FormatText {
		encodeText(&buf, all)
	} else {
		encodeJSON(&buf, all)
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_, _ = l.out.w.Write(buf.Bytes())
}

// dedupe keeps the first position of each key and the last value written
// for it.
func dedupe(fields []Field) []Field {
	index := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if i, ok := index[f.Key]; ok {
			out[i].Value = f.Value
			continue
		}
		index[f.Key] = len(out)
		out = append(out, f)
	}
	return out
}

func encodeJSON(buf *bytes.Buffer, fields []Field) {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(f.Key)
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			val, _ = json.Marshal(fmt.Sprint(f.Value))
		}
		buf.Write(val)
	}
	buf.WriteString("}\n")
}

// encodeText writes "timestamp LEVEL message key=value ...".
func encodeText(buf *bytes.Buffer, fields []Field) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}
		v := fmt.Sprint(f.Value)
		if i < 3 {
			buf.WriteString(v)
			continue
		}
		if v == "" || strings.ContainsAny(v, " =\"\n") {
			v = strconv.Quote(v)
		}
		buf.WriteString(f.Key)
		buf.WriteByte('=')
		buf.WriteString(v)
	}
	buf.WriteByte('\n')
}

type ctxKey struct{}

// WithContext attaches l to ctx.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or Default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

// RequestIDKey is the field the HTTP layer tags request logs with.
const RequestIDKey = "request_id"

func (l *Logger) WithRequestID(id string) *Logger { return l.With(String(RequestIDKey, id)) }

// Lineup fields.
func PlayerID(id string) Field      { return String("player_id", id) }
func MatchID(id string) Field       { return String("match_id", id) }
func Role(role string) Field        { return String("role", role) }
func Family(name string) Field      { return String("family", name) }
func Strategy(name string) Field    { return String("strategy", name) }
func LineupName(name string) Field  { return String("lineup_name", name) }
func Score(score int) Field         { return Int("score", score) }
func Component(name string) Field   { return String("component", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
