// Package fare asks the server for a price quote. The figures are computed
// entirely server-side; nothing here recalculates or caches them.
package fare

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/driversync/internal/api"
	"github.com/example/driversync/internal/models"
)

type Client struct {
	API *api.Client
}

func NewClient(apiClient *api.Client) *Client {
	return &Client{API: apiClient}
}

type quoteResponse struct {
	Status      api.StatusFlag `json:"status"`
	Message     string         `json:"message"`
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Days        int            `json:"days"`
	PricePerDay string         `json:"price_per_day"`
	TotalAmount int            `json:"total_amount"`
}

// Quote requests a fare for the trip. days comes straight from user input,
// so it is parsed here; anything that is not a positive integer fails
// locally without a network call.
func (c *Client) Quote(ctx context.Context, origin, destination, days string) (models.FareQuote, error) {
	if strings.TrimSpace(origin) == "" {
		return models.FareQuote{}, &api.ValidationError{Field: "origin", Reason: "must not be empty"}
	}
	if strings.TrimSpace(destination) == "" {
		return models.FareQuote{}, &api.ValidationError{Field: "destination", Reason: "must not be empty"}
	}
	n, err := strconv.Atoi(strings.TrimSpace(days))
	if err != nil || n <= 0 {
		return models.FareQuote{}, &api.ValidationError{Field: "days", Reason: "must be a positive integer"}
	}

	form := url.Values{}
	form.Set("origin", origin)
	form.Set("destination", destination)
	form.Set("days", strconv.Itoa(n))

	var resp quoteResponse
	if err := c.API.PostForm(ctx, api.EndpointPrice, form, &resp); err != nil {
		return models.FareQuote{}, err
	}
	if !resp.Status.OK() {
		return models.FareQuote{}, &api.DomainError{Endpoint: api.EndpointPrice, Message: resp.Message}
	}
	return models.FareQuote{
		Origin:      resp.Origin,
		Destination: resp.Destination,
		Days:        resp.Days,
		PricePerDay: resp.PricePerDay,
		TotalAmount: resp.TotalAmount,
	}, nil
}
