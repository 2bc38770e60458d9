package bulkalerts

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("bulkalerts", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8091 {
		t.Fatalf("port = %d, want 8091", cfg.Port)
	}
}

func TestParseConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("PRISON_ALERTS_BULKALERTS_PORT", "9000")

	fs := flag.NewFlagSet("bulkalerts", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "9100"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("port = %d, want flag value 9100", cfg.Port)
	}
}

func TestParseConfigEnvOverridesDefault(t *testing.T) {
	t.Setenv("PRISON_ALERTS_BULKALERTS_PORT", "9000")

	fs := flag.NewFlagSet("bulkalerts", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("port = %d, want env value 9000", cfg.Port)
	}
}
