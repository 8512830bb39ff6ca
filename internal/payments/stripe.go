package payments

import (
	"context"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripeClient wraps stripe-go for the booking deposit flow: a hold is
// placed when a rider books, captured when the driver accepts, and released
// when the driver rejects.
type StripeClient struct{}

// NewStripeClient configures the stripe SDK with the given secret key.
func NewStripeClient(apiKey string) *StripeClient {
	stripe.Key = apiKey
	return &StripeClient{}
}

// HoldDeposit creates a PaymentIntent with capture_method=manual and
// returns its ID. amount is in the currency's smallest unit.
func (s *StripeClient) HoldDeposit(ctx context.Context, amount int64, currency, customerID string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// CaptureDeposit finalizes a previously-held deposit.
func (s *StripeClient) CaptureDeposit(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Capture(paymentIntentID, nil)
	return err
}

// ReleaseDeposit cancels the hold.
func (s *StripeClient) ReleaseDeposit(ctx context.Context, paymentIntentID string) error {
	_, err := paymentintent.Cancel(paymentIntentID, nil)
	return err
}
