package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexString decodes from either a JSON string or a JSON number. The
// backend emits driver contact numbers both ways depending on endpoint.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	*f = FlexString(b)
	return nil
}

// Role is decided once at login and never re-derived from free-text strings.
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// ParseRole maps the server's free-text role field onto the closed set.
// The PHP backend stores "user" for riders.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "user", "rider", "User", "Rider":
		return RoleRider, true
	case "driver", "Driver":
		return RoleDriver, true
	}
	return "", false
}

// Actor is the authenticated party for the current session.
type Actor struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// AvailabilityRecord is a driver's self-declared free status for one date.
// Records are never mutated, only superseded server-side.
type AvailabilityRecord struct {
	AvailabilityID int        `json:"availability_id"`
	DriverID       int        `json:"driver_id"`
	DriverName     string     `json:"driver_name"`
	DriverEmail    string     `json:"driver_email"`
	DriverContact  FlexString `json:"driver_contact"`
	Status         string     `json:"availability_status"`
	Date           string     `json:"availability_date"` // YYYY-MM-DD, no time component
}

type BookingStatus string

const (
	BookingPending  BookingStatus = "Pending"
	BookingAccepted BookingStatus = "accepted"
	BookingRejected BookingStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingAccepted || s == BookingRejected
}

// UnmarshalJSON normalizes the backend's casing: bookings are written with
// status "Pending" on create but some list endpoints return "pending".
func (s *BookingStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		*s = BookingPending
	case "accepted":
		*s = BookingAccepted
	case "rejected":
		*s = BookingRejected
	default:
		*s = BookingStatus(raw)
	}
	return nil
}

// Booking as seen by the rider who created it.
type Booking struct {
	ID          int           `json:"booking_id"`
	Date        string        `json:"date"`
	Pickup      string        `json:"pickup_address"`
	Destination string        `json:"destination_address"`
	DriverName  string        `json:"driver_name"`
	Status      BookingStatus `json:"status"`
}

// DriverBooking is the driver-side projection; it carries denormalized
// rider contact fields the rider-side view does not.
type DriverBooking struct {
	ID          int           `json:"booking_id"`
	Date        string        `json:"dateofbooking"`
	Status      BookingStatus `json:"status"`
	Pickup      string        `json:"pickup_address"`
	Destination string        `json:"destination_address"`
	Username    string        `json:"username"`
	Contact     string        `json:"contact_number"`
	Email       string        `json:"email"`
	DriverName  string        `json:"driver_name"`
}

// Car is a driver's listed vehicle.
type Car struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userid"`
	Name      string `json:"car_name"`
	ImagePath string `json:"image_path"`
	Condition string `json:"condition"`
}

// CarDetail is the single-car view with denormalized driver info.
// Age, experience and contact are absent for drivers who skipped the
// extra-info step.
type CarDetail struct {
	ID         int     `json:"car_id"`
	Name       string  `json:"car_name"`
	ImagePath  string  `json:"image_path"`
	Condition  string  `json:"condition"`
	DriverName string  `json:"driver_name"`
	Age        *string `json:"age"`
	Experience *string `json:"experienceyears"`
	Contact    *string `json:"contactnumber"`
}

// FareQuote is ephemeral; both figures come from the server and are never
// recomputed locally.
type FareQuote struct {
	Origin      string
	Destination string
	Days        int
	PricePerDay string
	TotalAmount int
}

// UserProfile is the rider profile payload.
type UserProfile struct {
	Name      string  `json:"name"`
	Username  string  `json:"username"`
	ImagePath *string `json:"image_path"`
}

// DriverProfile is the driver profile payload.
type DriverProfile struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	ImagePath string `json:"image_path"`
}
