package paymentpool

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default is valid", DefaultConfig, false},
		{"deadline below max delay", Config{PaymentMaxDelay: 2 * time.Hour, PaymentDeadline: time.Hour, BlockGasLimitRatio: 1, ConfirmationWorkers: 1}, true},
		{"zero ratio", Config{PaymentDeadline: time.Hour, BlockGasLimitRatio: 0, ConfirmationWorkers: 1}, true},
		{"zero workers", Config{PaymentDeadline: time.Hour, BlockGasLimitRatio: 1, ConfirmationWorkers: 0}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if (err != nil) != c.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}
