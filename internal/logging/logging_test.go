package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"vprepair/internal/config"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vprepair.log")
	log, closer, err := New(config.Logging{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %s", log.GetLevel())
	}
	log.WithField("operation", "test").Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"operation":"test"`) {
		t.Fatalf("unexpected log output: %s", data)
	}
}

func TestNewRejectsLevel(t *testing.T) {
	if _, _, err := New(config.Logging{Level: "loud"}); err == nil {
		t.Fatalf("expected level error")
	}
}
