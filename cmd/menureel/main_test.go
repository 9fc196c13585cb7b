package main

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name  string
		value string
		set   bool
		want  string
	}{
		{"returns value when set", "custom-value", true, "custom-value"},
		{"falls back when unset", "", false, "fallback"},
		{"falls back when empty", "", true, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "MENUREEL_TEST_GETENV"
			if tt.set {
				t.Setenv(key, tt.value)
			}
			if got := getEnv(key, "fallback"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGetEnvInt64(t *testing.T) {
	const key = "MENUREEL_TEST_INT"

	t.Setenv(key, "75")
	if got := getEnvInt64(key, 50); got != 75 {
		t.Errorf("expected 75, got %d", got)
	}

	t.Setenv(key, "seventy")
	if got := getEnvInt64(key, 50); got != 50 {
		t.Errorf("expected fallback for unparsable value, got %d", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	const key = "MENUREEL_TEST_DURATION"
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"300ms", 300 * time.Millisecond},
		{"1h", time.Hour},
		{"0s", 0},
		{"soon", time.Minute},
		{"-5s", time.Minute},
	}
	for _, tt := range tests {
		t.Setenv(key, tt.value)
		if got := getEnvDuration(key, time.Minute); got != tt.want {
			t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
