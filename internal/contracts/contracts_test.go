package contracts

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDaysToExpiration(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		exp  time.Time
		want int
	}{
		{"same day", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 0},
		{"next day", time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), 1},
		{"thirty days", time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC), 30},
		{"time of day ignored", time.Date(2026, 3, 17, 23, 59, 0, 0, time.UTC), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FutureRecord{ExpirationDate: tt.exp}
			if got := f.DaysToExpiration(now); got != tt.want {
				t.Errorf("DaysToExpiration() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("ticker %s not found", "SBER")

	if err.Error() != "ticker SBER not found" {
		t.Errorf("Error() = %q", err.Error())
	}

	if !IsValidation(err) {
		t.Error("IsValidation() = false for ValidationError")
	}

	wrapped := fmt.Errorf("valuate: %w", err)
	if !IsValidation(wrapped) {
		t.Error("IsValidation() = false for wrapped ValidationError")
	}

	if IsValidation(errors.New("plain")) {
		t.Error("IsValidation() = true for plain error")
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewProviderError("GetLastPrices", cause)

	if !IsProvider(err) {
		t.Error("IsProvider() = false for ProviderError")
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should reach the wrapped cause")
	}

	if IsValidation(err) {
		t.Error("ProviderError must not match ValidationError")
	}
}
