package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogCaptureKeepsRecentLines(t *testing.T) {
	c := newLogCapture(3)
	for i := 1; i <= 5; i++ {
		_, err := fmt.Fprintf(c, "line %d\n", i)
		require.NoError(t, err)
	}
	assert.Equal(t, "line 3\nline 4\nline 5", c.Text())

	_, err := c.Write([]byte("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, "line 5\na\nb", c.Text())
}

func TestLogCaptureFlushesAfterQuietPeriod(t *testing.T) {
	c := newLogCapture(10)
	flushed := make(chan string, 4)
	done := make(chan struct{})
	go func() {
		c.run(10*time.Millisecond, func(text string) { flushed <- text })
		close(done)
	}()

	_, _ = c.Write([]byte("first\n"))
	_, _ = c.Write([]byte("second\n"))

	deadline := time.After(2 * time.Second)
	for last := ""; last != "first\nsecond"; {
		select {
		case last = <-flushed:
		case <-deadline:
			t.Fatalf("log panel was not flushed, last text %q", last)
		}
	}

	c.Close()
	c.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after Close")
	}
}

func TestNewLoggerWritesToPanel(t *testing.T) {
	c := newLogCapture(10)
	logger, err := newLogger("info", c)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("dataset loaded", zap.Int("rows", 4))
	require.NoError(t, logger.Sync())

	text := c.Text()
	assert.Contains(t, text, "dataset loaded")
	assert.Contains(t, text, `"rows": 4`)
	assert.NotContains(t, text, "hidden")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("loud", newLogCapture(1))
	assert.ErrorContains(t, err, "parse log level")
}
