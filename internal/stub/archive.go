package stub

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/driversync/internal/models"
)

// BookingArchive is a write-behind copy of booking rows. The in-memory
// store stays authoritative; the archive exists so a long-running stub can
// be inspected with plain SQL.
type BookingArchive interface {
	SaveBooking(b BookingRow) error
	UpdateBookingStatus(bookingID int, status models.BookingStatus) error
}

type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresArchive{db: db}, nil
}

func (p *PostgresArchive) SaveBooking(b BookingRow) error {
	_, err := p.db.Exec(
		`INSERT INTO bookings(id, rider_id, driver_id, dateofbooking, pickup_address, destination_address, status, created_at) VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		b.ID, b.RiderID, b.DriverID, b.Date, b.Pickup, b.Destination, string(b.Status), time.Now(),
	)
	return err
}

func (p *PostgresArchive) UpdateBookingStatus(bookingID int, status models.BookingStatus) error {
	_, err := p.db.Exec(`UPDATE bookings SET status=$1, updated_at=$2 WHERE id=$3`, string(status), time.Now(), bookingID)
	return err
}
