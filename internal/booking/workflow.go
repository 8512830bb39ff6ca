// Package booking implements the booking/availability workflow: a small
// state machine that moves a booking through Pending to accepted or
// rejected, coordinated across the rider and driver roles with one server
// round-trip per transition.
//
// The engine keeps two in-memory working sets: the rider's list of
// available drivers for the selected date and the driver's list of open
// jobs. Both are guarded by a mutex so completions landing from two
// in-flight requests cannot race on the slices.
package booking

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/example/driversync/internal/api"
	"github.com/example/driversync/internal/models"
	"github.com/example/driversync/internal/observability"
)

// Workflow drives the booking state machine for one authenticated actor.
// Transitions are Pending -> accepted and Pending -> rejected only; both
// targets are terminal.
type Workflow struct {
	Client *api.Client
	Actor  models.Actor
	Logger *slog.Logger

	// RemoveOnFailure controls whether a booking is dropped from the
	// local jobs list even when the server reports failure. The original
	// client always dropped it; that reads like a bug, so the default is
	// the safer remove-only-on-confirmed-success.
	RemoveOnFailure bool

	mu        sync.Mutex
	available []models.AvailabilityRecord
	jobs      []models.DriverBooking

	draftPickup      string
	draftDestination string
}

func NewWorkflow(client *api.Client, actor models.Actor, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Workflow{Client: client, Actor: actor, Logger: logger}
}

type availabilityListResponse struct {
	Status       api.StatusFlag              `json:"status"`
	Message      string                      `json:"message"`
	Date         string                      `json:"date"`
	TotalDrivers int                         `json:"total_drivers"`
	Drivers      []models.AvailabilityRecord `json:"drivers"`
}

// ListAvailableDrivers fetches the drivers available on date (YYYY-MM-DD)
// and replaces the rider's working set with the result. The server may
// return the same driver several times when it has stacked availability
// rows; the list is de-duplicated by driver id, first occurrence wins.
// An empty list is a valid outcome, not an error.
func (w *Workflow) ListAvailableDrivers(ctx context.Context, date string) ([]models.AvailabilityRecord, error) {
	if err := w.requireRole(models.RoleRider); err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("availability_date", date)

	var resp availabilityListResponse
	if err := w.Client.PostForm(ctx, api.EndpointListAvailability, form, &resp); err != nil {
		return nil, err
	}
	if !resp.Status.OK() {
		return nil, &api.DomainError{Endpoint: api.EndpointListAvailability, Message: resp.Message}
	}

	deduped := dedupeByDriver(resp.Drivers)

	w.mu.Lock()
	w.available = deduped
	w.mu.Unlock()

	w.Logger.Debug("availability fetched", "date", date, "total", len(resp.Drivers), "unique", len(deduped))
	return append([]models.AvailabilityRecord(nil), deduped...), nil
}

func dedupeByDriver(in []models.AvailabilityRecord) []models.AvailabilityRecord {
	seen := make(map[int]bool, len(in))
	out := make([]models.AvailabilityRecord, 0, len(in))
	for _, r := range in {
		if seen[r.DriverID] {
			continue
		}
		seen[r.DriverID] = true
		out = append(out, r)
	}
	return out
}

// AvailableDrivers returns a snapshot of the rider's current working set.
func (w *Workflow) AvailableDrivers() []models.AvailabilityRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.AvailabilityRecord(nil), w.available...)
}

// SetDraft records the pickup/destination the rider is typing. It is
// cleared after a successful booking.
func (w *Workflow) SetDraft(pickup, destination string) {
	w.mu.Lock()
	w.draftPickup, w.draftDestination = pickup, destination
	w.mu.Unlock()
}

// Draft returns the current draft addresses.
func (w *Workflow) Draft() (pickup, destination string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draftPickup, w.draftDestination
}

type createBookingResponse struct {
	Status  api.StatusFlag `json:"status"` // string "success"/other on this endpoint
	Message string         `json:"message"`
}

// CreateBooking submits a new booking with status Pending. Empty pickup or
// destination fails locally with ValidationError before any network call.
// On confirmed success the booked driver is removed from the available
// working set and the draft is reset; the server is still the source of
// truth, this is only the optimistic local view.
func (w *Workflow) CreateBooking(ctx context.Context, driverID int, date, pickup, destination string) error {
	if err := w.requireRole(models.RoleRider); err != nil {
		return err
	}
	if strings.TrimSpace(pickup) == "" {
		return &api.ValidationError{Field: "pickup_address", Reason: "must not be empty"}
	}
	if strings.TrimSpace(destination) == "" {
		return &api.ValidationError{Field: "destination_address", Reason: "must not be empty"}
	}

	form := url.Values{}
	form.Set("userid", strconv.Itoa(w.Actor.ID))
	form.Set("driver_id", strconv.Itoa(driverID))
	form.Set("dateofbooking", date)
	form.Set("status", string(models.BookingPending))
	form.Set("pickup_address", pickup)
	form.Set("destination_address", destination)

	var resp createBookingResponse
	if err := w.Client.PostForm(ctx, api.EndpointCreateBooking, form, &resp); err != nil {
		return err
	}
	if !resp.Status.OK() {
		return &api.DomainError{Endpoint: api.EndpointCreateBooking, Message: resp.Message}
	}

	w.mu.Lock()
	w.available = removeDriver(w.available, driverID)
	w.draftPickup, w.draftDestination = "", ""
	w.mu.Unlock()

	observability.BookingsCreated.Inc()
	w.Logger.Info("booking created", "driver_id", driverID, "date", date)
	return nil
}

func removeDriver(in []models.AvailabilityRecord, driverID int) []models.AvailabilityRecord {
	out := in[:0]
	for _, r := range in {
		if r.DriverID != driverID {
			out = append(out, r)
		}
	}
	return out
}

type riderBookingsResponse struct {
	Status  api.StatusFlag   `json:"status"`
	Message string           `json:"message"`
	Data    []models.Booking `json:"data"`
}

// ListBookingsForRider is a read-only projection of the rider's bookings.
func (w *Workflow) ListBookingsForRider(ctx context.Context) ([]models.Booking, error) {
	if err := w.requireRole(models.RoleRider); err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("userid", strconv.Itoa(w.Actor.ID))

	var resp riderBookingsResponse
	if err := w.Client.PostForm(ctx, api.EndpointRiderBookings, form, &resp); err != nil {
		return nil, err
	}
	if !resp.Status.OK() {
		return nil, &api.DomainError{Endpoint: api.EndpointRiderBookings, Message: resp.Message}
	}
	return resp.Data, nil
}

type driverBookingsResponse struct {
	Status  api.StatusFlag         `json:"status"`
	Message string                 `json:"message"`
	Data    []models.DriverBooking `json:"data"`
}

// ListBookingsForDriver fetches the driver's bookings and replaces the
// local jobs working set.
func (w *Workflow) ListBookingsForDriver(ctx context.Context) ([]models.DriverBooking, error) {
	if err := w.requireRole(models.RoleDriver); err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("driverid", strconv.Itoa(w.Actor.ID))

	var resp driverBookingsResponse
	if err := w.Client.PostForm(ctx, api.EndpointDriverBookings, form, &resp); err != nil {
		return nil, err
	}
	if !resp.Status.OK() {
		return nil, &api.DomainError{Endpoint: api.EndpointDriverBookings, Message: resp.Message}
	}

	w.mu.Lock()
	w.jobs = append([]models.DriverBooking(nil), resp.Data...)
	w.mu.Unlock()
	return resp.Data, nil
}

// Jobs returns a snapshot of the driver's current jobs working set.
func (w *Workflow) Jobs() []models.DriverBooking {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.DriverBooking(nil), w.jobs...)
}

// SetBookingStatus moves a Pending booking to accepted or rejected. The
// booking is removed from the local jobs list on confirmed success, or
// unconditionally when RemoveOnFailure is set. Removing an id that is not
// in the list is a no-op.
func (w *Workflow) SetBookingStatus(ctx context.Context, bookingID int, status models.BookingStatus) error {
	if err := w.requireRole(models.RoleDriver); err != nil {
		return err
	}
	if !status.Terminal() {
		return &api.ValidationError{Field: "status", Reason: "must be accepted or rejected"}
	}

	form := url.Values{}
	form.Set("booking_id", strconv.Itoa(bookingID))
	form.Set("status", string(status))

	var resp api.Envelope
	err := w.Client.PostForm(ctx, api.EndpointUpdateBooking, form, &resp)
	ok := err == nil && resp.Status.OK()

	if ok || w.RemoveOnFailure {
		w.mu.Lock()
		w.jobs = removeJob(w.jobs, bookingID)
		w.mu.Unlock()
	}
	if err != nil {
		return err
	}
	if !resp.Status.OK() {
		return &api.DomainError{Endpoint: api.EndpointUpdateBooking, Message: resp.Message}
	}

	observability.BookingsDecided.WithLabelValues(string(status)).Inc()
	w.Logger.Info("booking decided", "booking_id", bookingID, "status", status)
	return nil
}

func removeJob(in []models.DriverBooking, bookingID int) []models.DriverBooking {
	out := in[:0]
	for _, b := range in {
		if b.ID != bookingID {
			out = append(out, b)
		}
	}
	return out
}

// SubmitAvailability declares the driver free on date (YYYY-MM-DD).
// Resubmitting the same date stacks another row server-side; listing
// collapses the duplicates.
func (w *Workflow) SubmitAvailability(ctx context.Context, date string) error {
	if err := w.requireRole(models.RoleDriver); err != nil {
		return err
	}
	form := url.Values{}
	form.Set("userid", strconv.Itoa(w.Actor.ID))
	form.Set("availability", "Yes")
	form.Set("availability_date", date)

	var resp api.Envelope
	if err := w.Client.PostForm(ctx, api.EndpointSubmitAvailability, form, &resp); err != nil {
		return err
	}
	if !resp.Status.OK() {
		return &api.DomainError{Endpoint: api.EndpointSubmitAvailability, Message: resp.Message}
	}
	return nil
}

func (w *Workflow) requireRole(want models.Role) error {
	if w.Actor.Role != want {
		return &api.ValidationError{Field: "role", Reason: "operation requires role " + string(want)}
	}
	return nil
}
