package booking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/example/driversync/internal/api"
	"github.com/example/driversync/internal/models"
)

// fakeAPI serves canned JSON per endpoint and counts every request.
type fakeAPI struct {
	t         *testing.T
	responses map[string]string
	calls     atomic.Int64
	lastForm  map[string]string
	srv       *httptest.Server
}

func newFakeAPI(t *testing.T, responses map[string]string) *fakeAPI {
	f := &fakeAPI{t: t, responses: responses}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		r.ParseForm()
		f.lastForm = map[string]string{}
		for k := range r.PostForm {
			f.lastForm[k] = r.PostFormValue(k)
		}
		body, ok := responses[r.URL.Path]
		if !ok {
			t.Errorf("unexpected call to %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) client() *api.Client { return api.New(f.srv.URL, nil) }

func riderWorkflow(client *api.Client) *Workflow {
	return NewWorkflow(client, models.Actor{ID: 1, Role: models.RoleRider}, nil)
}

func driverWorkflow(client *api.Client) *Workflow {
	return NewWorkflow(client, models.Actor{ID: 5, Role: models.RoleDriver}, nil)
}

const dupDriversResponse = `{
  "status": true, "message": "3 drivers available", "date": "2025-07-01", "total_drivers": 3,
  "drivers": [
    {"availability_id": 11, "driver_id": 5, "driver_name": "First Five", "driver_email": "a@x", "driver_contact": 99, "availability_status": "Yes", "availability_date": "2025-07-01"},
    {"availability_id": 12, "driver_id": 5, "driver_name": "Second Five", "driver_email": "a@x", "driver_contact": "99", "availability_status": "Yes", "availability_date": "2025-07-01"},
    {"availability_id": 13, "driver_id": 7, "driver_name": "Seven", "driver_email": "b@x", "driver_contact": "88", "availability_status": "Yes", "availability_date": "2025-07-01"}
  ]
}`

func TestListAvailableDriversDeduplicatesFirstWins(t *testing.T) {
	f := newFakeAPI(t, map[string]string{"/touchavailability.php": dupDriversResponse})
	w := riderWorkflow(f.client())

	got, err := w.ListAvailableDrivers(context.Background(), "2025-07-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].DriverID != 5 || got[1].DriverID != 7 {
		t.Errorf("ids = %d,%d, want 5,7", got[0].DriverID, got[1].DriverID)
	}
	if got[0].AvailabilityID != 11 {
		t.Errorf("kept availability %d for driver 5, want the first occurrence (11)", got[0].AvailabilityID)
	}
	if f.lastForm["availability_date"] != "2025-07-01" {
		t.Errorf("sent date %q", f.lastForm["availability_date"])
	}
}

func TestListAvailableDriversEmptyIsNotAnError(t *testing.T) {
	f := newFakeAPI(t, map[string]string{
		"/touchavailability.php": `{"status":true,"message":"0 drivers available","date":"2025-07-02","total_drivers":0,"drivers":[]}`,
	})
	w := riderWorkflow(f.client())

	got, err := w.ListAvailableDrivers(context.Background(), "2025-07-02")
	if err != nil {
		t.Fatalf("empty list should not fail: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d records", len(got))
	}
}

func TestCreateBookingEmptyAddressesNoNetworkCall(t *testing.T) {
	f := newFakeAPI(t, map[string]string{})
	w := riderWorkflow(f.client())

	for _, c := range []struct{ pickup, dest string }{
		{"", "Coimbatore"},
		{"Chennai", ""},
		{"   ", "Coimbatore"},
	} {
		err := w.CreateBooking(context.Background(), 5, "2025-07-01", c.pickup, c.dest)
		var v *api.ValidationError
		if !errors.As(err, &v) {
			t.Errorf("pickup=%q dest=%q: got %v, want ValidationError", c.pickup, c.dest, err)
		}
	}
	if n := f.calls.Load(); n != 0 {
		t.Errorf("validation failures issued %d HTTP calls, want 0", n)
	}
}

func TestCreateBookingRemovesDriverAndResetsDraft(t *testing.T) {
	f := newFakeAPI(t, map[string]string{
		"/touchavailability.php":    dupDriversResponse,
		"/insertbookingdetails.php": `{"status":"success","message":"Booking created"}`,
	})
	w := riderWorkflow(f.client())

	if _, err := w.ListAvailableDrivers(context.Background(), "2025-07-01"); err != nil {
		t.Fatal(err)
	}
	w.SetDraft("Chennai", "Coimbatore")

	if err := w.CreateBooking(context.Background(), 5, "2025-07-01", "Chennai", "Coimbatore"); err != nil {
		t.Fatal(err)
	}
	if f.lastForm["status"] != "Pending" {
		t.Errorf("new booking posted with status %q, want Pending", f.lastForm["status"])
	}

	left := w.AvailableDrivers()
	if len(left) != 1 || left[0].DriverID != 7 {
		t.Errorf("available after booking = %+v, want only driver 7", left)
	}
	if p, d := w.Draft(); p != "" || d != "" {
		t.Errorf("draft not reset: %q %q", p, d)
	}
}

func TestCreateBookingServerFailureKeepsDriver(t *testing.T) {
	f := newFakeAPI(t, map[string]string{
		"/touchavailability.php":    dupDriversResponse,
		"/insertbookingdetails.php": `{"status":"failure","message":"driver already booked"}`,
	})
	w := riderWorkflow(f.client())

	if _, err := w.ListAvailableDrivers(context.Background(), "2025-07-01"); err != nil {
		t.Fatal(err)
	}
	err := w.CreateBooking(context.Background(), 5, "2025-07-01", "A", "B")
	var dom *api.DomainError
	if !errors.As(err, &dom) {
		t.Fatalf("got %v, want DomainError", err)
	}
	if len(w.AvailableDrivers()) != 2 {
		t.Error("failed booking mutated the available list")
	}
}

const driverJobsResponse = `{
  "status": true, "message": "Bookings found",
  "data": [
    {"booking_id": 10, "dateofbooking": "2025-07-01", "status": "Pending", "pickup_address": "A", "destination_address": "B", "username": "ravi", "contact_number": "9876", "email": "r@x", "driver_name": "Drv"},
    {"booking_id": 11, "dateofbooking": "2025-07-02", "status": "Pending", "pickup_address": "C", "destination_address": "D", "username": "mala", "contact_number": "9999", "email": "m@x", "driver_name": "Drv"}
  ]
}`

func TestSetBookingStatusRemovesOnConfirmedSuccess(t *testing.T) {
	f := newFakeAPI(t, map[string]string{
		"/fetch_booking_details.php": driverJobsResponse,
		"/update_booking_status.php": `{"status":true,"message":"Booking accepted"}`,
	})
	w := driverWorkflow(f.client())

	if _, err := w.ListBookingsForDriver(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.SetBookingStatus(context.Background(), 10, models.BookingAccepted); err != nil {
		t.Fatal(err)
	}
	jobs := w.Jobs()
	if len(jobs) != 1 || jobs[0].ID != 11 {
		t.Errorf("jobs after accept = %+v, want only #11", jobs)
	}
}

func TestSetBookingStatusKeepsListOnServerFailureByDefault(t *testing.T) {
	f := newFakeAPI(t, map[string]string{
		"/fetch_booking_details.php": driverJobsResponse,
		"/update_booking_status.php": `{"status":false,"message":"booking is not pending"}`,
	})
	w := driverWorkflow(f.client())

	if _, err := w.ListBookingsForDriver(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := w.SetBookingStatus(context.Background(), 10, models.BookingRejected)
	var dom *api.DomainError
	if !errors.As(err, &dom) {
		t.Fatalf("got %v, want DomainError", err)
	}
	if len(w.Jobs()) != 2 {
		t.Error("booking removed despite server failure with default policy")
	}
}

func TestSetBookingStatusRemoveOnFailurePolicy(t *testing.T) {
	f := newFakeAPI(t, map[string]string{
		"/fetch_booking_details.php": driverJobsResponse,
		"/update_booking_status.php": `{"status":false,"message":"nope"}`,
	})
	w := driverWorkflow(f.client())
	w.RemoveOnFailure = true

	if _, err := w.ListBookingsForDriver(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.SetBookingStatus(context.Background(), 10, models.BookingRejected); err == nil {
		t.Fatal("server failure should still surface as an error")
	}
	if len(w.Jobs()) != 1 {
		t.Error("RemoveOnFailure did not remove the booking")
	}
}

func TestSetBookingStatusUnknownIDIsNoop(t *testing.T) {
	f := newFakeAPI(t, map[string]string{
		"/fetch_booking_details.php": driverJobsResponse,
		"/update_booking_status.php": `{"status":true,"message":"Booking accepted"}`,
	})
	w := driverWorkflow(f.client())

	if _, err := w.ListBookingsForDriver(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.SetBookingStatus(context.Background(), 999, models.BookingAccepted); err != nil {
		t.Fatal(err)
	}
	if len(w.Jobs()) != 2 {
		t.Error("removing an absent id changed the list")
	}
}

func TestSetBookingStatusRejectsNonTerminalTarget(t *testing.T) {
	f := newFakeAPI(t, map[string]string{})
	w := driverWorkflow(f.client())

	err := w.SetBookingStatus(context.Background(), 10, models.BookingPending)
	var v *api.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if f.calls.Load() != 0 {
		t.Error("invalid transition reached the network")
	}
}

func TestRoleGates(t *testing.T) {
	f := newFakeAPI(t, map[string]string{})
	rider := riderWorkflow(f.client())
	driver := driverWorkflow(f.client())

	if err := rider.SetBookingStatus(context.Background(), 1, models.BookingAccepted); err == nil {
		t.Error("rider was allowed to decide a booking")
	}
	if err := driver.CreateBooking(context.Background(), 1, "2025-07-01", "A", "B"); err == nil {
		t.Error("driver was allowed to create a booking")
	}
	if _, err := driver.ListAvailableDrivers(context.Background(), "2025-07-01"); err == nil {
		t.Error("driver was allowed to browse availability")
	}
	if err := rider.SubmitAvailability(context.Background(), "2025-07-01"); err == nil {
		t.Error("rider was allowed to submit availability")
	}
	if f.calls.Load() != 0 {
		t.Error("role gate failures reached the network")
	}
}

func TestSubmitAvailabilitySendsFixedYesFlag(t *testing.T) {
	f := newFakeAPI(t, map[string]string{
		"/insertavailability.php": `{"status":true,"message":"Availability recorded"}`,
	})
	w := driverWorkflow(f.client())

	if err := w.SubmitAvailability(context.Background(), "2025-07-03"); err != nil {
		t.Fatal(err)
	}
	if f.lastForm["availability"] != "Yes" {
		t.Errorf("availability flag = %q, want Yes", f.lastForm["availability"])
	}
	if f.lastForm["userid"] != "5" {
		t.Errorf("userid = %q", f.lastForm["userid"])
	}
}
