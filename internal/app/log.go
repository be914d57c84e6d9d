package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const logFileName = "lostfound.log"

// lineHandler is a slog.Handler that writes one tab-separated line per record:
//
//	<timestamp>\t<level>\t<opID>\t<message>\t<key=value ...>
//
// Values containing whitespace are quoted so a line always splits cleanly on tabs.
type lineHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	opID  string
	level slog.Leveler
	attrs []slog.Attr
}

func newLineHandler(w io.Writer, opID string, level slog.Leveler) *lineHandler {
	return &lineHandler{mu: &sync.Mutex{}, w: w, opID: opID, level: level}
}

func (h *lineHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.UTC().Format("2006-01-02T15:04:05Z"))
	b.WriteByte('\t')
	b.WriteString(r.Level.String())
	b.WriteByte('\t')
	b.WriteString(h.opID)
	b.WriteByte('\t')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func writeAttr(b *strings.Builder, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve().String()
	if strings.ContainsAny(v, " \t\n") {
		v = strconv.Quote(v)
	}
	fmt.Fprintf(b, "\t%s=%s", a.Key, v)
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &lineHandler{
		mu:    h.mu,
		w:     h.w,
		opID:  h.opID,
		level: h.level,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *lineHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes to both logDir/lostfound.log
// and stderr. It returns the slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir, opID string, level slog.Level) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, logFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	return slog.New(newLineHandler(io.MultiWriter(f, os.Stderr), opID, level)), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the lf.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
