package paymentpool

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigFileRoundTrip(t *testing.T) {
	cfg := Config{
		PaymentMaxDelay:     time.Hour,
		PaymentDeadline:     2 * time.Hour,
		BlockGasLimitRatio:  8,
		ClosureTimeDelay:    5 * time.Minute,
		ConfirmationWorkers: 3,
	}

	path := filepath.Join(t.TempDir(), "paymentprocessor.toml")
	if err := cfg.DumpConfigFile(path); err != nil {
		t.Fatalf("DumpConfigFile: %v", err)
	}

	got, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if got != cfg {
		t.Fatalf("LoadConfigFile round-trip = %+v, want %+v", got, cfg)
	}
}

func TestLoadConfigFileRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("PaymentMaxDelay = \"1h\"\nBogusField = 1\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected an unknown TOML field to be rejected")
	}
}
