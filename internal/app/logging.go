package app

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLineLimit        = 200
	logDebounceInterval = 150 * time.Millisecond
)

// logCapture keeps the most recent log lines for the on-screen log panel.
// It is a zapcore.WriteSyncer so it can sit behind a zap core.
type logCapture struct {
	mu     sync.Mutex
	lines  []string
	limit  int
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newLogCapture(limit int) *logCapture {
	if limit <= 0 {
		limit = logLineLimit
	}
	return &logCapture{
		limit:  limit,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (c *logCapture) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\n")
	c.mu.Lock()
	c.lines = append(c.lines, strings.Split(text, "\n")...)
	if len(c.lines) > c.limit {
		c.lines = append([]string(nil), c.lines[len(c.lines)-c.limit:]...)
	}
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return len(p), nil
}

func (c *logCapture) Sync() error { return nil }

// Text returns the buffered lines joined by newlines.
func (c *logCapture) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.lines, "\n")
}

// run calls flush with the buffered text once writes have been quiet for
// interval. It returns after Close.
func (c *logCapture) run(interval time.Duration, flush func(string)) {
	timer := time.NewTimer(interval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-c.done:
			timer.Stop()
			return
		case <-c.notify:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(interval)
		case <-timer.C:
			flush(c.Text())
		}
	}
}

func (c *logCapture) Close() {
	c.once.Do(func() { close(c.done) })
}

// newLogger writes JSON entries to stderr and short console lines to panel.
func newLogger(level string, panel zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	stderrCfg := zap.NewProductionEncoderConfig()
	stderrCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	panelCfg := zap.NewDevelopmentEncoderConfig()
	panelCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	panelCfg.CallerKey = ""

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(stderrCfg), zapcore.Lock(os.Stderr), lvl),
		zapcore.NewCore(zapcore.NewConsoleEncoder(panelCfg), panel, lvl),
	)
	return zap.New(core), nil
}
