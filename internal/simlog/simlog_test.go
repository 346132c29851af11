package simlog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("nonsense"); got != logrus.InfoLevel {
		t.Errorf("expected fallback to info, got %v", got)
	}
	if got := parseLevel(DebugLevel); got != logrus.DebugLevel {
		t.Errorf("expected debug, got %v", got)
	}
}

func TestRateLimitedSuppressesWithinWindow(t *testing.T) {
	var buf bytes.Buffer
	logger := New(DefaultConfig())
	logger.SetOutput(&buf)
	entry := SystemLogger(logger, "test")

	now := time.Unix(0, 0)
	rl := NewRateLimited(entry)
	rl.nowFunc = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		rl.Warn("k", "something went wrong", nil)
	}
	if got := strings.Count(buf.String(), "something went wrong"); got != 1 {
		t.Fatalf("expected 1 emitted line within the window, got %d", got)
	}
	if rl.Count("k") != 5 {
		t.Errorf("expected all 5 calls counted, got %d", rl.Count("k"))
	}

	now = now.Add(2 * time.Second)
	rl.Warn("k", "something went wrong", nil)
	if got := strings.Count(buf.String(), "something went wrong"); got != 2 {
		t.Fatalf("expected a second line after the window elapsed, got %d", got)
	}
	if rl.Count("k") != 6 {
		t.Errorf("expected 6 total calls counted, got %d", rl.Count("k"))
	}
}
