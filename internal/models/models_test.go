package models

import (
	"encoding/json"
	"testing"
)

func TestBookingStatusCaseNormalization(t *testing.T) {
	for raw, want := range map[string]BookingStatus{
		`"Pending"`:  BookingPending,
		`"pending"`:  BookingPending,
		`"accepted"`: BookingAccepted,
		`"rejected"`: BookingRejected,
	} {
		var s BookingStatus
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if s != want {
			t.Errorf("%s decoded to %q, want %q", raw, s, want)
		}
	}
}

func TestFlexStringAcceptsNumbersAndStrings(t *testing.T) {
	var rec AvailabilityRecord
	if err := json.Unmarshal([]byte(`{"driver_id":5,"driver_contact":9876543210}`), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.DriverContact != "9876543210" {
		t.Errorf("numeric contact = %q", rec.DriverContact)
	}
	if err := json.Unmarshal([]byte(`{"driver_id":5,"driver_contact":"12345"}`), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.DriverContact != "12345" {
		t.Errorf("string contact = %q", rec.DriverContact)
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole("user"); !ok || r != RoleRider {
		t.Errorf("user -> %v %v", r, ok)
	}
	if r, ok := ParseRole("driver"); !ok || r != RoleDriver {
		t.Errorf("driver -> %v %v", r, ok)
	}
	if _, ok := ParseRole("admin"); ok {
		t.Error("admin should not parse")
	}
}

func TestTerminal(t *testing.T) {
	if BookingPending.Terminal() {
		t.Error("Pending is not terminal")
	}
	if !BookingAccepted.Terminal() || !BookingRejected.Terminal() {
		t.Error("accepted/rejected are terminal")
	}
}
