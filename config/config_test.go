package config

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func TestPollIntervalDefault(t *testing.T) {
	InitConfig()
	if got := PollInterval(); got != 15*time.Second {
		t.Fatalf("PollInterval() = %v, want 15s", got)
	}
}

func TestPollIntervalFallback(t *testing.T) {
	InitConfig()
	defer viper.Set("poll_interval", DefaultPollInterval)

	for _, raw := range []interface{}{"abc", "0", "-5", "1.5s", "0x0F", ""} {
		viper.Set("poll_interval", raw)
		if got := PollInterval(); got != 15*time.Second {
			t.Errorf("PollInterval() with %v = %v, want 15s", raw, got)
		}
	}

	viper.Set("poll_interval", "30")
	if got := PollInterval(); got != 30*time.Second {
		t.Fatalf("PollInterval() = %v, want 30s", got)
	}
}

func TestPollIntervalDecimalOnly(t *testing.T) {
	InitConfig()
	defer viper.Set("poll_interval", DefaultPollInterval)

	tests := []struct {
		raw  interface{}
		want time.Duration
	}{
		{"010", 10 * time.Second},
		{" 20 ", 20 * time.Second},
		{"0700", 700 * time.Second},
		{45, 45 * time.Second},
	}
	for _, tt := range tests {
		viper.Set("poll_interval", tt.raw)
		if got := PollInterval(); got != tt.want {
			t.Errorf("PollInterval() with %v = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestPollIntervalFallbackIsLogged(t *testing.T) {
	InitConfig()
	defer viper.Set("poll_interval", DefaultPollInterval)

	var buf bytes.Buffer
	level := log.GetLevel()
	log.SetOutput(&buf)
	log.SetLevel(log.ErrorLevel)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(level)
	}()

	viper.Set("poll_interval", "abc")
	if got := PollInterval(); got != 15*time.Second {
		t.Fatalf("PollInterval() = %v, want 15s", got)
	}

	out := buf.String()
	if !strings.Contains(out, "poll_interval") || !strings.Contains(out, "using default 15") {
		t.Fatalf("fallback not logged at error level: %q", out)
	}
}
