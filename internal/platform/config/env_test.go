package config

import "testing"

type testConfig struct {
	Port   int    `env:"PRISON_ALERTS_TEST_PORT" envDefault:"8080"`
	DBPath string `env:"PRISON_ALERTS_TEST_DB_PATH" envDefault:"data/test.db"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/test.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/test.db")
	}
}

func TestParseEnvOverride(t *testing.T) {
	t.Setenv("PRISON_ALERTS_TEST_PORT", "9090")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Port)
	}
}
