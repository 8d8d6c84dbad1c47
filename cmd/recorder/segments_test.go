package main

import "testing"

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{10 * 1024, "10.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := humanSize(tt.n); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CAMERA_HOST", "192.168.1.20")
	storagePath, logLevel, envFile = dir, "debug", dir+"/missing.env"
	t.Cleanup(func() { storagePath, logLevel, envFile = "", "", "" })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.StoragePath != dir || cfg.LogLevel != "debug" {
		t.Errorf("overrides not applied: storage=%q level=%q", cfg.StoragePath, cfg.LogLevel)
	}
}
