package stub

import (
	"errors"
	"fmt"
	"sync"

	"github.com/example/driversync/internal/models"
)

var (
	errNotFound     = errors.New("not found")
	errDuplicate    = errors.New("already exists")
	errNotPending   = errors.New("booking is not pending")
	errBadStatus    = errors.New("status must be accepted or rejected")
	errBadCredsUser = errors.New("invalid username or password")
)

// User is the stub's account row. Password is stored in the clear because
// the PHP backend this fakes did exactly that.
type User struct {
	ID       int
	Name     string
	Username string
	Email    string
	Password string
	Role     models.Role
	Contact  string

	// driver extra info, filled by driverinfo.php
	Age        string
	Experience string

	ImagePath string
}

// BookingRow is the stub's booking record.
type BookingRow struct {
	ID          int
	RiderID     int
	DriverID    int
	Date        string
	Pickup      string
	Destination string
	Status      models.BookingStatus

	// PaymentIntent is the Stripe hold placed at creation, if any.
	PaymentIntent string
}

// CarRow is the stub's car record.
type CarRow struct {
	ID        int
	UserID    int
	Name      string
	Condition string
	ImagePath string
}

// Store is the stub server's in-memory state: accounts, cars and bookings.
// Availability rows live in a separate AvailabilityStore so they can be
// backed by Redis independently.
type Store struct {
	mu       sync.Mutex
	nextUser int
	nextBook int
	nextCar  int
	users    map[int]*User
	byName   map[string]int
	bookings map[int]*BookingRow
	cars     map[int]*CarRow
}

func NewStore() *Store {
	return &Store{
		nextUser: 1,
		nextBook: 1,
		nextCar:  1,
		users:    make(map[int]*User),
		byName:   make(map[string]int),
		bookings: make(map[int]*BookingRow),
		cars:     make(map[int]*CarRow),
	}
}

func (s *Store) CreateUser(u User) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byName[u.Username]; taken {
		return 0, errDuplicate
	}
	u.ID = s.nextUser
	s.nextUser++
	s.users[u.ID] = &u
	s.byName[u.Username] = u.ID
	return u.ID, nil
}

func (s *Store) Authenticate(username, password string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[username]
	if !ok || s.users[id].Password != password {
		return User{}, errBadCredsUser
	}
	return *s.users[id], nil
}

func (s *Store) User(id int) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, errNotFound
	}
	return *u, nil
}

func (s *Store) SetDriverInfo(userID int, age, experience, contact string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return errNotFound
	}
	u.Age, u.Experience = age, experience
	if contact != "" {
		u.Contact = contact
	}
	return nil
}

func (s *Store) CreateBooking(b BookingRow) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[b.DriverID]; !ok {
		return 0, fmt.Errorf("driver %d: %w", b.DriverID, errNotFound)
	}
	b.ID = s.nextBook
	s.nextBook++
	b.Status = models.BookingPending
	s.bookings[b.ID] = &b
	return b.ID, nil
}

func (s *Store) SetPaymentIntent(bookingID int, paymentIntentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[bookingID]; ok {
		b.PaymentIntent = paymentIntentID
	}
}

func (s *Store) BookingsByRider(riderID int) []BookingRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []BookingRow{}
	for id := 1; id < s.nextBook; id++ {
		if b, ok := s.bookings[id]; ok && b.RiderID == riderID {
			out = append(out, *b)
		}
	}
	return out
}

func (s *Store) BookingsByDriver(driverID int) []BookingRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []BookingRow{}
	for id := 1; id < s.nextBook; id++ {
		if b, ok := s.bookings[id]; ok && b.DriverID == driverID {
			out = append(out, *b)
		}
	}
	return out
}

// DecideBooking applies a terminal transition. Only Pending bookings move.
func (s *Store) DecideBooking(bookingID int, status models.BookingStatus) (BookingRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !status.Terminal() {
		return BookingRow{}, errBadStatus
	}
	b, ok := s.bookings[bookingID]
	if !ok {
		return BookingRow{}, errNotFound
	}
	if b.Status != models.BookingPending {
		return BookingRow{}, errNotPending
	}
	b.Status = status
	return *b, nil
}

func (s *Store) AddCar(c CarRow) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextCar
	s.nextCar++
	s.cars[c.ID] = &c
	return c.ID
}

func (s *Store) CarsByUser(userID int) []CarRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []CarRow{}
	for id := 1; id < s.nextCar; id++ {
		if c, ok := s.cars[id]; ok && c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out
}

func (s *Store) Car(id int) (CarRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cars[id]
	if !ok {
		return CarRow{}, errNotFound
	}
	return *c, nil
}
