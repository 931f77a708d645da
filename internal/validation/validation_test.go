package validation

import (
	stderrors "errors"
	"testing"

	boterrors "appointment_bot/pkg/errors"
)

func TestValidateDate(t *testing.T) {
	valid := []string{"2030-06-15", "2030-01-01", "2030-12-31"}
	for _, date := range valid {
		if err := ValidateDate(date); err != nil {
			t.Errorf("ValidateDate(%q) unexpected error: %v", date, err)
		}
	}

	invalid := []string{"", "2030-6-15", "15.06.2030", "2030-13-01", "2030-02-30", "abc", "2030-06-15 "}
	for _, date := range invalid {
		if err := ValidateDate(date); !stderrors.Is(err, boterrors.ErrInvalidDate) {
			t.Errorf("ValidateDate(%q) expected ErrInvalidDate, got %v", date, err)
		}
	}
}

func TestValidateTime(t *testing.T) {
	valid := []string{"09:00", "00:00", "23:59"}
	for _, tm := range valid {
		if err := ValidateTime(tm); err != nil {
			t.Errorf("ValidateTime(%q) unexpected error: %v", tm, err)
		}
	}

	invalid := []string{"", "9:00", "24:00", "12:60", "12.30", "abc"}
	for _, tm := range invalid {
		if err := ValidateTime(tm); !stderrors.Is(err, boterrors.ErrInvalidTime) {
			t.Errorf("ValidateTime(%q) expected ErrInvalidTime, got %v", tm, err)
		}
	}
}

func TestValidateBookingID(t *testing.T) {
	id, err := ValidateBookingID("42")
	if err != nil {
		t.Fatalf("ValidateBookingID(42) unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("Expected 42, got %d", id)
	}

	invalid := []string{"", "0", "-1", "abc", "1.5"}
	for _, raw := range invalid {
		if _, err := ValidateBookingID(raw); !stderrors.Is(err, boterrors.ErrInvalidBookingID) {
			t.Errorf("ValidateBookingID(%q) expected ErrInvalidBookingID, got %v", raw, err)
		}
	}
}
