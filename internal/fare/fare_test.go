package fare

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/example/driversync/internal/api"
)

func TestQuoteReturnsServerFigures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostFormValue("days") != "3" {
			t.Errorf("days = %q", r.PostFormValue("days"))
		}
		w.Write([]byte(`{"status":true,"message":"ok","origin":"Chennai","destination":"Coimbatore","days":3,"price_per_day":"1000","total_amount":3000}`))
	}))
	defer srv.Close()

	q, err := NewClient(api.New(srv.URL, nil)).Quote(context.Background(), "Chennai", "Coimbatore", "3")
	if err != nil {
		t.Fatal(err)
	}
	// the server's total is authoritative, even if it disagrees with
	// days*price_per_day
	if q.TotalAmount != 3000 {
		t.Errorf("total = %d, want 3000", q.TotalAmount)
	}
	if q.PricePerDay != "1000" {
		t.Errorf("price_per_day = %q", q.PricePerDay)
	}
	if q.Days != 3 || q.Origin != "Chennai" || q.Destination != "Coimbatore" {
		t.Errorf("echo fields wrong: %+v", q)
	}
}

func TestQuoteDoesNotOverrideServerTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// deliberately inconsistent: 3 * 1000 != 2500
		w.Write([]byte(`{"status":true,"message":"ok","origin":"A","destination":"B","days":3,"price_per_day":"1000","total_amount":2500}`))
	}))
	defer srv.Close()

	q, err := NewClient(api.New(srv.URL, nil)).Quote(context.Background(), "A", "B", "3")
	if err != nil {
		t.Fatal(err)
	}
	if q.TotalAmount != 2500 {
		t.Errorf("total = %d, client recomputed instead of trusting the server", q.TotalAmount)
	}
}

func TestQuoteValidatesDaysLocally(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(api.New(srv.URL, nil))
	for _, days := range []string{"", "0", "-2", "abc", "2 Days"} {
		_, err := c.Quote(context.Background(), "A", "B", days)
		var v *api.ValidationError
		if !errors.As(err, &v) {
			t.Errorf("days=%q: got %v, want ValidationError", days, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("invalid input issued %d HTTP calls", calls.Load())
	}
}

func TestQuoteDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"route not served"}`))
	}))
	defer srv.Close()

	_, err := NewClient(api.New(srv.URL, nil)).Quote(context.Background(), "A", "B", "2")
	var dom *api.DomainError
	if !errors.As(err, &dom) {
		t.Fatalf("got %v, want DomainError", err)
	}
}
