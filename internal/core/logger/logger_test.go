package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-gin-social/internal/core/config"
)

func TestNew_WritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	l, flush := New(config.Log{
		Level: "debug",
		JSON:  true,
		Rotate: config.Rotate{
			Enable:    true,
			Filename:  file,
			MaxSizeMB: 1,
		},
	})
	l.Info("friend request sent", zap.String("from", "a"), zap.String("to", "b"))
	flush()

	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"friend request sent"`) {
		t.Errorf("log file missing entry: %s", b)
	}
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	l, flush := New(config.Log{Level: "loud"})
	defer flush()
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be disabled when level is invalid")
	}
	if !l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be enabled by default")
	}
}
