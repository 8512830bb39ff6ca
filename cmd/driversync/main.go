// Command driversync is a terminal client for the DriverSync booking API.
// There is no session storage: the backend identifies actors by numeric id
// on every call, so commands after login take -id and -role flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/example/driversync/internal/api"
	"github.com/example/driversync/internal/booking"
	"github.com/example/driversync/internal/config"
	"github.com/example/driversync/internal/fare"
	"github.com/example/driversync/internal/logging"
	"github.com/example/driversync/internal/models"
	"github.com/example/driversync/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadClientConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)
	client := api.New(cfg.BaseURL, logger)
	client.HTTPClient.Timeout = cfg.HTTPTimeout
	ctx := context.Background()

	var runErr error
	switch os.Args[1] {
	case "login":
		runErr = runLogin(ctx, client, os.Args[2:])
	case "availability":
		runErr = runAvailability(ctx, cfg, client, logger, os.Args[2:])
	case "drivers":
		runErr = runDrivers(ctx, cfg, client, logger, os.Args[2:])
	case "book":
		runErr = runBook(ctx, cfg, client, logger, os.Args[2:])
	case "bookings":
		runErr = runBookings(ctx, cfg, client, logger, os.Args[2:])
	case "decide":
		runErr = runDecide(ctx, cfg, client, logger, os.Args[2:])
	case "quote":
		runErr = runQuote(ctx, client, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "error:", runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: driversync <command> [flags]

commands:
  login         -username U -password P
  availability  -id N -date YYYY-MM-DD          (driver)
  drivers       -id N -date YYYY-MM-DD          (rider)
  book          -id N -driver D -date YYYY-MM-DD -pickup A -destination B
  bookings      -id N -role rider|driver
  decide        -id N -booking B -status accepted|rejected  (driver)
  quote         -origin A -destination B -days N

DRIVERSYNC_BASE_URL must point at the API base, e.g. http://localhost/Driver/`)
}

func actorFlags(fs *flag.FlagSet, role models.Role) func() models.Actor {
	id := fs.Int("id", 0, "actor id from login")
	return func() models.Actor { return models.Actor{ID: *id, Role: role} }
}

func newWorkflow(cfg config.ClientConfig, client *api.Client, logger *slog.Logger, actor models.Actor) *booking.Workflow {
	w := booking.NewWorkflow(client, actor, logger)
	w.RemoveOnFailure = cfg.RemoveOnFailure
	return w
}

func runLogin(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	actor, err := session.NewService(client).Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in: id=%d name=%q role=%s\n", actor.ID, actor.Name, actor.Role)
	return nil
}

func runAvailability(ctx context.Context, cfg config.ClientConfig, client *api.Client, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("availability", flag.ExitOnError)
	actor := actorFlags(fs, models.RoleDriver)
	date := fs.String("date", "", "availability date YYYY-MM-DD")
	fs.Parse(args)

	if err := newWorkflow(cfg, client, logger, actor()).SubmitAvailability(ctx, *date); err != nil {
		return err
	}
	fmt.Println("availability recorded for", *date)
	return nil
}

func runDrivers(ctx context.Context, cfg config.ClientConfig, client *api.Client, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("drivers", flag.ExitOnError)
	actor := actorFlags(fs, models.RoleRider)
	date := fs.String("date", "", "date YYYY-MM-DD")
	fs.Parse(args)

	recs, err := newWorkflow(cfg, client, logger, actor()).ListAvailableDrivers(ctx, *date)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no drivers available on", *date)
		return nil
	}
	for _, r := range recs {
		fmt.Printf("driver %d  %-20s %s  contact=%s\n", r.DriverID, r.DriverName, r.Status, r.DriverContact)
	}
	return nil
}

func runBook(ctx context.Context, cfg config.ClientConfig, client *api.Client, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	actor := actorFlags(fs, models.RoleRider)
	driver := fs.Int("driver", 0, "driver id")
	date := fs.String("date", "", "date YYYY-MM-DD")
	pickup := fs.String("pickup", "", "pickup address")
	destination := fs.String("destination", "", "destination address")
	fs.Parse(args)

	w := newWorkflow(cfg, client, logger, actor())
	if err := w.CreateBooking(ctx, *driver, *date, *pickup, *destination); err != nil {
		return err
	}
	fmt.Printf("booked driver %d on %s\n", *driver, *date)
	return nil
}

func runBookings(ctx context.Context, cfg config.ClientConfig, client *api.Client, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("bookings", flag.ExitOnError)
	id := fs.Int("id", 0, "actor id from login")
	role := fs.String("role", "rider", "rider or driver")
	fs.Parse(args)

	switch *role {
	case "rider":
		w := newWorkflow(cfg, client, logger, models.Actor{ID: *id, Role: models.RoleRider})
		list, err := w.ListBookingsForRider(ctx)
		if err != nil {
			return err
		}
		for _, b := range list {
			fmt.Printf("#%d %s  %s -> %s  driver=%s  [%s]\n", b.ID, b.Date, b.Pickup, b.Destination, b.DriverName, b.Status)
		}
	case "driver":
		w := newWorkflow(cfg, client, logger, models.Actor{ID: *id, Role: models.RoleDriver})
		list, err := w.ListBookingsForDriver(ctx)
		if err != nil {
			return err
		}
		for _, b := range list {
			fmt.Printf("#%d %s  %s -> %s  rider=%s (%s)  [%s]\n", b.ID, b.Date, b.Pickup, b.Destination, b.Username, b.Contact, b.Status)
		}
	default:
		return fmt.Errorf("unknown role %q", *role)
	}
	return nil
}

func runDecide(ctx context.Context, cfg config.ClientConfig, client *api.Client, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("decide", flag.ExitOnError)
	actor := actorFlags(fs, models.RoleDriver)
	bookingID := fs.Int("booking", 0, "booking id")
	status := fs.String("status", "", "accepted or rejected")
	fs.Parse(args)

	w := newWorkflow(cfg, client, logger, actor())
	if err := w.SetBookingStatus(ctx, *bookingID, models.BookingStatus(*status)); err != nil {
		return err
	}
	fmt.Printf("booking %d %s\n", *bookingID, *status)
	return nil
}

func runQuote(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	origin := fs.String("origin", "", "origin city")
	destination := fs.String("destination", "", "destination city")
	days := fs.String("days", "", "trip length in days")
	fs.Parse(args)

	q, err := fare.NewClient(client).Quote(ctx, *origin, *destination, *days)
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s, %d day(s): %s/day, total %d\n", q.Origin, q.Destination, q.Days, q.PricePerDay, q.TotalAmount)
	return nil
}
