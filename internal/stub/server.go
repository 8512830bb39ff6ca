// Package stub fakes the DriverSync PHP backend for local development and
// integration tests. It reproduces the real API's envelope quirks on
// purpose (string status on some endpoints, boolean on others) so code
// tested against it is tested against the truth.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/driversync/internal/api"
	"github.com/example/driversync/internal/config"
	"github.com/example/driversync/internal/models"
	"github.com/example/driversync/internal/payments"
)

// DepositHolder is the slice of the payments client the stub needs: a hold
// placed at booking time, captured on accept and released on reject.
type DepositHolder interface {
	HoldDeposit(ctx context.Context, amount int64, currency, customerID string) (string, error)
	CaptureDeposit(ctx context.Context, paymentIntentID string) error
	ReleaseDeposit(ctx context.Context, paymentIntentID string) error
}

// Server implements every endpoint of the DriverSync API.
type Server struct {
	Store    *Store
	Avail    AvailabilityStore
	Archive  BookingArchive // optional
	Events   *EventProducer // optional
	WS       *WSRegistry
	Payments DepositHolder // optional
	Logger   *slog.Logger

	mux *mux.Router
}

// pricePerDay is the flat rate the fake fare endpoint charges.
const pricePerDay = 1000

// depositPaise is the hold placed when a booking is created, if Stripe is
// configured.
const depositPaise = 50000

// NewServer builds a purely in-memory stub.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		Store:  NewStore(),
		Avail:  NewMemoryAvailability(),
		WS:     NewWSRegistry(),
		Logger: logger,
	}
	s.routes()
	return s
}

// NewServerFromConfig wires the optional backends: Postgres archive, Redis
// availability store, Kafka event producer and Stripe deposits. Anything
// unset falls back to in-memory, so a bare `stubserver` run just works.
func NewServerFromConfig(cfg config.StubConfig, logger *slog.Logger) *Server {
	s := NewServer(logger)

	if cfg.PGDSN != "" {
		if ar, err := NewPostgresArchive(cfg.PGDSN); err == nil {
			s.Archive = ar
		} else {
			logger.Warn("postgres archive unavailable", "error", err)
		}
	}
	if cfg.RedisAddr != "" {
		s.Avail = NewRedisAvailability(cfg.RedisAddr, cfg.RedisPassword)
	}
	if len(cfg.EventBrokers) > 0 {
		s.Events = NewEventProducer(cfg.EventBrokers, cfg.EventTopic)
	}
	if cfg.StripeAPIKey != "" {
		s.Payments = payments.NewStripeClient(cfg.StripeAPIKey)
	}
	return s
}

func (s *Server) routes() {
	s.mux = mux.NewRouter()
	s.mux.Use(s.recoverMiddleware)
	s.mux.Use(s.observabilityMiddleware)

	s.mux.HandleFunc("/"+api.EndpointLogin, s.handleLogin).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointSignup, s.handleSignup).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointDriverInfo, s.handleDriverInfo).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointSubmitAvailability, s.handleSubmitAvailability).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointListAvailability, s.handleListAvailability).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointCreateBooking, s.handleCreateBooking).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointRiderBookings, s.handleRiderBookings).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointDriverBookings, s.handleDriverBookings).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointUpdateBooking, s.handleUpdateBooking).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointAddCar, s.handleAddCar).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointFetchCars, s.handleFetchCars).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointFetchCar, s.handleFetchCar).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointFetchUserProfile, s.handleUserProfile).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointFetchDriverProfile, s.handleDriverProfile).Methods("POST")
	s.mux.HandleFunc("/"+api.EndpointPrice, s.handlePrice).Methods("POST")

	s.mux.HandleFunc("/ws/drivers/{driver_id}", s.handleWS)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}).Methods("GET")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// --- auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	u, err := s.Store.Authenticate(r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		// string status, like the real login endpoint
		writeJSON(w, map[string]any{"status": "failure", "message": "Invalid username or password", "data": map[string]string{}})
		return
	}
	role := "driver"
	if u.Role == models.RoleRider {
		role = "user"
	}
	writeJSON(w, map[string]any{
		"status":  "success",
		"message": "Login successful",
		"data": map[string]string{
			"id":       strconv.Itoa(u.ID),
			"name":     u.Name,
			"username": u.Username,
			"role":     role,
			"email":    u.Email,
		},
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, map[string]any{"status": false, "message": "invalid multipart body"})
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, map[string]any{"status": false, "message": "image is required"})
		return
	}
	defer file.Close()
	io.Copy(io.Discard, file)

	role, ok := models.ParseRole(strings.ToLower(r.FormValue("role")))
	if !ok {
		writeJSON(w, map[string]any{"status": false, "message": "unknown role"})
		return
	}
	id, err := s.Store.CreateUser(User{
		Name:      r.FormValue("name"),
		Username:  r.FormValue("username"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Role:      role,
		Contact:   r.FormValue("contact_number"),
		ImagePath: "uploads/" + header.Filename,
	})
	if err != nil {
		writeJSON(w, map[string]any{"status": false, "message": "username already taken"})
		return
	}
	writeJSON(w, map[string]any{"status": true, "message": "Signup successful", "id": id})
}

func (s *Server) handleDriverInfo(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	userID, _ := strconv.Atoi(r.PostFormValue("userid"))
	err := s.Store.SetDriverInfo(userID, r.PostFormValue("age"), r.PostFormValue("experience_years"), r.PostFormValue("contact_number"))
	if err != nil {
		writeJSON(w, map[string]any{"status": false, "message": "user not found"})
		return
	}
	writeJSON(w, map[string]any{"status": true, "message": "Driver info saved"})
}

// --- availability ---

func (s *Server) handleSubmitAvailability(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	userID, _ := strconv.Atoi(r.PostFormValue("userid"))
	date := r.PostFormValue("availability_date")
	u, err := s.Store.User(userID)
	if err != nil || date == "" {
		writeJSON(w, map[string]any{"status": false, "message": "unknown driver or missing date"})
		return
	}
	rec := models.AvailabilityRecord{
		DriverID:      u.ID,
		DriverName:    u.Name,
		DriverEmail:   u.Email,
		DriverContact: models.FlexString(u.Contact),
		Status:        r.PostFormValue("availability"),
		Date:          date,
	}
	if err := s.Avail.Add(r.Context(), rec); err != nil {
		writeJSON(w, map[string]any{"status": false, "message": "could not save availability"})
		return
	}
	writeJSON(w, map[string]any{"status": true, "message": "Availability recorded"})
}

func (s *Server) handleListAvailability(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	date := r.PostFormValue("availability_date")
	recs, err := s.Avail.ListByDate(r.Context(), date)
	if err != nil {
		writeJSON(w, map[string]any{"status": false, "message": "availability lookup failed"})
		return
	}
	// Duplicate rows are returned as stored; de-duplication is the
	// client's job.
	writeJSON(w, map[string]any{
		"status":        true,
		"message":       fmt.Sprintf("%d drivers available", len(recs)),
		"date":          date,
		"total_drivers": len(recs),
		"drivers":       recs,
	})
}

// --- bookings ---

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	riderID, _ := strconv.Atoi(r.PostFormValue("userid"))
	driverID, _ := strconv.Atoi(r.PostFormValue("driver_id"))
	row := BookingRow{
		RiderID:     riderID,
		DriverID:    driverID,
		Date:        r.PostFormValue("dateofbooking"),
		Pickup:      r.PostFormValue("pickup_address"),
		Destination: r.PostFormValue("destination_address"),
	}
	if row.Pickup == "" || row.Destination == "" {
		writeJSON(w, map[string]any{"status": "failure", "message": "pickup and destination are required"})
		return
	}
	id, err := s.Store.CreateBooking(row)
	if err != nil {
		writeJSON(w, map[string]any{"status": "failure", "message": err.Error()})
		return
	}
	row.ID = id
	row.Status = models.BookingPending
	if s.Payments != nil {
		if piID, err := s.Payments.HoldDeposit(r.Context(), depositPaise, "inr", ""); err != nil {
			s.Logger.Warn("deposit hold failed", "booking_id", id, "error", err)
		} else {
			s.Store.SetPaymentIntent(id, piID)
			row.PaymentIntent = piID
			s.Logger.Info("deposit held", "booking_id", id, "payment_intent", piID)
		}
	}
	if s.Archive != nil {
		if err := s.Archive.SaveBooking(row); err != nil {
			s.Logger.Warn("archive save failed", "booking_id", id, "error", err)
		}
	}
	if s.Events != nil {
		if err := s.Events.Publish(row); err != nil {
			s.Logger.Warn("event publish failed", "booking_id", id, "error", err)
		}
	}
	s.notifyDriver(row)
	// string status on this endpoint
	writeJSON(w, map[string]any{"status": "success", "message": "Booking created"})
}

func (s *Server) handleRiderBookings(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	riderID, _ := strconv.Atoi(r.PostFormValue("userid"))
	rows := s.Store.BookingsByRider(riderID)
	if len(rows) == 0 {
		writeJSON(w, map[string]any{"status": false, "message": "No bookings found", "data": []any{}})
		return
	}
	data := make([]map[string]any, 0, len(rows))
	for _, b := range rows {
		driver, _ := s.Store.User(b.DriverID)
		data = append(data, map[string]any{
			"booking_id":          b.ID,
			"date":                b.Date,
			"pickup_address":      b.Pickup,
			"destination_address": b.Destination,
			"driver_name":         driver.Name,
			"status":              string(b.Status),
		})
	}
	writeJSON(w, map[string]any{"status": true, "message": "Bookings found", "data": data})
}

func (s *Server) handleDriverBookings(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	driverID, _ := strconv.Atoi(r.PostFormValue("driverid"))
	rows := s.Store.BookingsByDriver(driverID)
	if len(rows) == 0 {
		writeJSON(w, map[string]any{"status": false, "message": "No bookings found", "data": []any{}})
		return
	}
	driver, _ := s.Store.User(driverID)
	data := make([]map[string]any, 0, len(rows))
	for _, b := range rows {
		rider, _ := s.Store.User(b.RiderID)
		data = append(data, map[string]any{
			"booking_id":          b.ID,
			"dateofbooking":       b.Date,
			"status":              string(b.Status),
			"pickup_address":      b.Pickup,
			"destination_address": b.Destination,
			"username":            rider.Username,
			"contact_number":      rider.Contact,
			"email":               rider.Email,
			"driver_name":         driver.Name,
		})
	}
	writeJSON(w, map[string]any{"status": true, "message": "Bookings found", "data": data})
}

func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	bookingID, _ := strconv.Atoi(r.PostFormValue("booking_id"))
	status := models.BookingStatus(r.PostFormValue("status"))
	row, err := s.Store.DecideBooking(bookingID, status)
	if err != nil {
		writeJSON(w, map[string]any{"status": false, "message": err.Error()})
		return
	}
	if s.Archive != nil {
		if err := s.Archive.UpdateBookingStatus(row.ID, row.Status); err != nil {
			s.Logger.Warn("archive update failed", "booking_id", row.ID, "error", err)
		}
	}
	if s.Payments != nil && row.PaymentIntent != "" {
		switch row.Status {
		case models.BookingAccepted:
			if err := s.Payments.CaptureDeposit(r.Context(), row.PaymentIntent); err != nil {
				s.Logger.Warn("deposit capture failed", "booking_id", row.ID, "error", err)
			}
		case models.BookingRejected:
			if err := s.Payments.ReleaseDeposit(r.Context(), row.PaymentIntent); err != nil {
				s.Logger.Warn("deposit release failed", "booking_id", row.ID, "error", err)
			}
		}
	}
	if s.Events != nil {
		if err := s.Events.Publish(row); err != nil {
			s.Logger.Warn("event publish failed", "booking_id", row.ID, "error", err)
		}
	}
	s.notifyDriver(row)
	writeJSON(w, map[string]any{"status": true, "message": "Booking " + string(row.Status)})
}

func (s *Server) notifyDriver(b BookingRow) {
	ev := BookingEvent{BookingID: b.ID, DriverID: b.DriverID, RiderID: b.RiderID, Status: b.Status}
	if err := s.WS.Notify(b.DriverID, ev); err != nil && err != errNoSession {
		s.Logger.Warn("ws notify failed", "driver_id", b.DriverID, "error", err)
	}
}

// --- cars & profiles ---

func (s *Server) handleAddCar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, map[string]any{"status": false, "message": "invalid multipart body"})
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, map[string]any{"status": false, "message": "image is required"})
		return
	}
	defer file.Close()
	io.Copy(io.Discard, file)

	userID, _ := strconv.Atoi(r.FormValue("userid"))
	imagePath := "uploads/" + header.Filename
	s.Store.AddCar(CarRow{
		UserID:    userID,
		Name:      r.FormValue("car_name"),
		Condition: r.FormValue("condition"),
		ImagePath: imagePath,
	})
	writeJSON(w, map[string]any{"status": true, "message": "Car added", "image_url": imagePath})
}

func (s *Server) handleFetchCars(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	userID, _ := strconv.Atoi(r.PostFormValue("userid"))
	rows := s.Store.CarsByUser(userID)
	if len(rows) == 0 {
		writeJSON(w, map[string]any{"status": "failure", "message": "No cars found"})
		return
	}
	data := make([]map[string]any, 0, len(rows))
	for _, c := range rows {
		data = append(data, map[string]any{
			"id":         c.ID,
			"userid":     c.UserID,
			"car_name":   c.Name,
			"image_path": c.ImagePath,
			"condition":  c.Condition,
		})
	}
	// string status and no message on success, like the real endpoint
	writeJSON(w, map[string]any{"status": "success", "data": data})
}

func (s *Server) handleFetchCar(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	carID, _ := strconv.Atoi(r.PostFormValue("car_id"))
	c, err := s.Store.Car(carID)
	if err != nil {
		writeJSON(w, map[string]any{"status": false})
		return
	}
	owner, _ := s.Store.User(c.UserID)
	data := map[string]any{
		"car_id":      c.ID,
		"car_name":    c.Name,
		"image_path":  c.ImagePath,
		"condition":   c.Condition,
		"driver_name": owner.Name,
	}
	// optional fields only when the driver filled in the extra info
	if owner.Age != "" {
		data["age"] = owner.Age
	}
	if owner.Experience != "" {
		data["experienceyears"] = owner.Experience
	}
	if owner.Contact != "" {
		data["contactnumber"] = owner.Contact
	}
	writeJSON(w, map[string]any{"status": true, "data": data})
}

func (s *Server) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	id, _ := strconv.Atoi(r.PostFormValue("id"))
	u, err := s.Store.User(id)
	if err != nil {
		writeJSON(w, map[string]any{"status": false, "message": "user not found"})
		return
	}
	writeJSON(w, map[string]any{
		"status":  true,
		"message": "Profile found",
		"data":    map[string]any{"name": u.Name, "username": u.Username, "image_path": u.ImagePath},
	})
}

func (s *Server) handleDriverProfile(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	id, _ := strconv.Atoi(r.PostFormValue("driver_id"))
	u, err := s.Store.User(id)
	if err != nil || u.Role != models.RoleDriver {
		writeJSON(w, map[string]any{"status": false, "message": "driver not found"})
		return
	}
	writeJSON(w, map[string]any{
		"status":  true,
		"message": "Driver found",
		"driver":  map[string]any{"name": u.Name, "username": u.Username, "image_path": u.ImagePath},
	})
}

// --- fare ---

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	origin := r.PostFormValue("origin")
	destination := r.PostFormValue("destination")
	days, err := strconv.Atoi(r.PostFormValue("days"))
	if origin == "" || destination == "" || err != nil || days <= 0 {
		writeJSON(w, map[string]any{"status": false, "message": "origin, destination and days are required"})
		return
	}
	writeJSON(w, map[string]any{
		"status":        true,
		"message":       "Price calculated",
		"origin":        origin,
		"destination":   destination,
		"days":          days,
		"price_per_day": strconv.Itoa(pricePerDay),
		"total_amount":  days * pricePerDay,
	})
}

// --- ws ---

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	driverID, err := strconv.Atoi(mux.Vars(r)["driver_id"])
	if err != nil {
		http.Error(w, "bad driver id", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		return
	}
	s.WS.Add(driverID, conn)

	// Drain inbound frames until the peer goes away, then drop the session
	// so later notifies don't hit a dead connection.
	go func() {
		defer func() {
			s.WS.Remove(driverID)
			conn.Close()
		}()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
}
