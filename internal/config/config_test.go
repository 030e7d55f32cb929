package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ATTENDANCE_DEBOUNCE_FRAMES", "")
	t.Setenv("ATTENDANCE_COOLDOWN", "")
	t.Setenv("ATTENDANCE_COOLDOWN_SEED", "")
	t.Setenv("RECOGNITION_MAX_DISTANCE", "")

	cfg := Load()
	if cfg.Attendance.DebounceFrames != 10 {
		t.Errorf("expected DebounceFrames=10, got %d", cfg.Attendance.DebounceFrames)
	}
	if cfg.Attendance.Cooldown != 10*time.Minute {
		t.Errorf("expected Cooldown=10m, got %s", cfg.Attendance.Cooldown)
	}
	if !cfg.Attendance.CooldownSeed {
		t.Error("expected CooldownSeed=true by default")
	}
	if cfg.Attendance.NameFallback {
		t.Error("expected NameFallback=false by default")
	}
	if cfg.Recognition.MaxDistance != 0.45 {
		t.Errorf("expected MaxDistance=0.45, got %v", cfg.Recognition.MaxDistance)
	}
	if cfg.Camera.Interval != 100*time.Millisecond {
		t.Errorf("expected Camera.Interval=100ms, got %s", cfg.Camera.Interval)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected Web.Port=8080, got %d", cfg.Web.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ATTENDANCE_DEBOUNCE_FRAMES", "3")
	t.Setenv("ATTENDANCE_COOLDOWN", "90s")
	t.Setenv("ATTENDANCE_COOLDOWN_SEED", "false")
	t.Setenv("ATTENDANCE_NAME_FALLBACK", "true")
	t.Setenv("RECOGNITION_MAX_DISTANCE", "0.3")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("WEB_ALLOWED_ORIGINS", " https://hr.example.com, ,https://kiosk.local ")
	t.Setenv("ENROLL_DUPLICATE_DISTANCE", "0.1")

	cfg := Load()
	if cfg.Attendance.DebounceFrames != 3 {
		t.Errorf("expected DebounceFrames=3, got %d", cfg.Attendance.DebounceFrames)
	}
	if cfg.Attendance.Cooldown != 90*time.Second {
		t.Errorf("expected Cooldown=90s, got %s", cfg.Attendance.Cooldown)
	}
	if cfg.Attendance.CooldownSeed {
		t.Error("expected CooldownSeed=false")
	}
	if !cfg.Attendance.NameFallback {
		t.Error("expected NameFallback=true")
	}
	if cfg.Recognition.MaxDistance != 0.3 {
		t.Errorf("expected MaxDistance=0.3, got %v", cfg.Recognition.MaxDistance)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "https://kiosk.local" {
		t.Errorf("unexpected allowed origins %q", cfg.Web.AllowedOrigins)
	}
	if cfg.Enroll.DuplicateDistance != 0.1 {
		t.Errorf("expected DuplicateDistance=0.1, got %v", cfg.Enroll.DuplicateDistance)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(*Config) bool
	}{
		{"non-numeric frames", "ATTENDANCE_DEBOUNCE_FRAMES", "abc", func(c *Config) bool { return c.Attendance.DebounceFrames == 10 }},
		{"negative frames", "ATTENDANCE_DEBOUNCE_FRAMES", "-1", func(c *Config) bool { return c.Attendance.DebounceFrames == 10 }},
		{"zero frames", "ATTENDANCE_DEBOUNCE_FRAMES", "0", func(c *Config) bool { return c.Attendance.DebounceFrames == 10 }},
		{"bad duration", "ATTENDANCE_COOLDOWN", "ten minutes", func(c *Config) bool { return c.Attendance.Cooldown == 10*time.Minute }},
		{"bad bool", "ATTENDANCE_COOLDOWN_SEED", "maybe", func(c *Config) bool { return c.Attendance.CooldownSeed }},
		{"bad float", "RECOGNITION_MAX_DISTANCE", "far", func(c *Config) bool { return c.Recognition.MaxDistance == 0.45 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if !tt.check(Load()) {
				t.Errorf("%s=%q should fall back to the default", tt.key, tt.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.Logging.Format = "xml"
	cfg.Attendance.Timezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}

	cfg = Load()
	cfg.Attendance.Timezone = "Europe/Prague"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loc, _ := cfg.Attendance.Location()
	if loc.String() != "Europe/Prague" {
		t.Errorf("expected Europe/Prague, got %s", loc)
	}
}

func TestValidate_Cooldown(t *testing.T) {
	tests := []struct {
		cooldown time.Duration
		wantErr  bool
	}{
		{0, false},
		{10 * time.Minute, false},
		{24 * time.Hour, false},
		{25 * time.Hour, true},
		{-time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.cooldown.String(), func(t *testing.T) {
			cfg := Load()
			cfg.Attendance.Cooldown = tt.cooldown
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
