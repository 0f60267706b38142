package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseFlags_Defaults(t *testing.T) {
	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Listen)
	}
	if cfg.Adapter != "synthetic" || cfg.Storage != "memory" || cfg.Dataset != "default" {
		t.Errorf("Adapter/Storage/Dataset = %q/%q/%q", cfg.Adapter, cfg.Storage, cfg.Dataset)
	}
	if cfg.Interval != 0 || cfg.StaleAfter != 0 {
		t.Errorf("Interval/StaleAfter = %v/%v, want 0/0", cfg.Interval, cfg.StaleAfter)
	}
	if cfg.LogFormat != "text" || cfg.LogLevel != "info" {
		t.Errorf("LogFormat/LogLevel = %q/%q", cfg.LogFormat, cfg.LogLevel)
	}
}

func TestParseFlags_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("LISTEN", ":9000")
	t.Setenv("INTERVAL", "5m")

	cfg, err := ParseFlags([]string{"-listen=:9100", "-adapter=http", "-stale-after=1h"})
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	if cfg.Listen != ":9100" {
		t.Errorf("Listen = %q, want flag value :9100", cfg.Listen)
	}
	if cfg.Interval != 5*time.Minute {
		t.Errorf("Interval = %v, want 5m from env", cfg.Interval)
	}
	if cfg.Adapter != "http" || cfg.StaleAfter != time.Hour {
		t.Errorf("Adapter/StaleAfter = %q/%v", cfg.Adapter, cfg.StaleAfter)
	}
}

func TestParseFlags_AdapterConfig(t *testing.T) {
	t.Setenv("ADAPTER_SEED", "7")
	t.Setenv("ADAPTER_RECORDS_PATH", "data.rows")

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	if cfg.AdapterConfig["seed"] != "7" {
		t.Errorf("seed = %q, want 7", cfg.AdapterConfig["seed"])
	}
	if cfg.AdapterConfig["recordsPath"] != "data.rows" {
		t.Errorf("recordsPath = %q, want data.rows", cfg.AdapterConfig["recordsPath"])
	}
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown adapter", []string{"-adapter=influx"}, "invalid adapter"},
		{"unknown storage", []string{"-storage=disk"}, "invalid storage"},
		{"bad log format", []string{"-log-format=xml"}, "invalid log format"},
		{"bad dataset name", []string{"-dataset=plant a"}, "invalid dataset name"},
		{"negative interval", []string{"-interval=-1m"}, "interval"},
		{"negative stale-after", []string{"-stale-after=-1s"}, "stale-after"},
		{"tls without files", []string{"-tls-enabled"}, "tls"},
		{"unknown flag", []string{"-nope"}, "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFlags(tt.args)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseAdapterConfig(t *testing.T) {
	environ := []string{
		"ADAPTER_URL=http://telemetry/export?a=b",
		"ADAPTER_IDLE_TIMEOUT=2s",
		"ADAPTER_=ignored",
		"ADAPTERX=ignored",
		"HOME=/root",
	}

	got := parseAdapterConfig(environ)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(got), got)
	}
	if got["url"] != "http://telemetry/export?a=b" {
		t.Errorf("url = %q", got["url"])
	}
	if got["idleTimeout"] != "2s" {
		t.Errorf("idleTimeout = %q", got["idleTimeout"])
	}
}

func TestToLowerCamelCase(t *testing.T) {
	tests := map[string]string{
		"URL":           "url",
		"RECORDS_PATH":  "recordsPath",
		"MAX_MESSAGES":  "maxMessages",
		"IDLE__TIMEOUT": "idleTimeout",
	}
	for in, want := range tests {
		if got := toLowerCamelCase(in); got != want {
			t.Errorf("toLowerCamelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "x")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BOOL", "1")

	if got := getEnvInt("TEST_INT", 10); got != 42 {
		t.Errorf("getEnvInt() = %d, want 42", got)
	}
	if got := getEnvInt("TEST_BAD_INT", 10); got != 10 {
		t.Errorf("getEnvInt(invalid) = %d, want 10", got)
	}
	if got := getEnvDuration("TEST_DURATION", 0); got != 90*time.Second {
		t.Errorf("getEnvDuration() = %v, want 90s", got)
	}
	if !getEnvBool("TEST_BOOL", false) {
		t.Error("getEnvBool() = false, want true")
	}
	if got := getEnv("TEST_UNSET_VAR", "fallback"); got != "fallback" {
		t.Errorf("getEnv() = %q, want fallback", got)
	}
}
