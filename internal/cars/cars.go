// Package cars covers the car listing surface: drivers upload cars with a
// photo, riders browse them, plus the user/driver profile fetches that back
// the same screens.
package cars

import (
	"context"
	"net/url"
	"strconv"

	"github.com/example/driversync/internal/api"
	"github.com/example/driversync/internal/models"
)

type Service struct {
	Client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{Client: client}
}

type addCarResponse struct {
	Status   api.StatusFlag `json:"status"`
	Message  string         `json:"message"`
	ImageURL *string        `json:"image_url"`
}

// AddCar uploads a new car listing for the driver. The image is the single
// binary part; the backend expects it under the fixed filename "car.jpg".
func (s *Service) AddCar(ctx context.Context, userID int, name, condition string, image []byte) (string, error) {
	if name == "" {
		return "", &api.ValidationError{Field: "car_name", Reason: "must not be empty"}
	}
	fields := map[string]string{
		"userid":    strconv.Itoa(userID),
		"car_name":  name,
		"condition": condition,
	}
	img := api.ImageField{Name: "image", Filename: "car.jpg", Data: image}

	var resp addCarResponse
	if err := s.Client.PostMultipart(ctx, api.EndpointAddCar, fields, img, &resp); err != nil {
		return "", err
	}
	if !resp.Status.OK() {
		return "", &api.DomainError{Endpoint: api.EndpointAddCar, Message: resp.Message}
	}
	if resp.ImageURL == nil {
		return "", nil
	}
	return *resp.ImageURL, nil
}

// fetchCarsResponse uses the string status encoding and may omit message.
type fetchCarsResponse struct {
	Status  api.StatusFlag `json:"status"`
	Message string         `json:"message"`
	Data    []models.Car   `json:"data"`
}

// FetchCars lists the cars owned by one user.
func (s *Service) FetchCars(ctx context.Context, userID int) ([]models.Car, error) {
	form := url.Values{}
	form.Set("userid", strconv.Itoa(userID))

	var resp fetchCarsResponse
	if err := s.Client.PostForm(ctx, api.EndpointFetchCars, form, &resp); err != nil {
		return nil, err
	}
	if !resp.Status.OK() {
		return nil, &api.DomainError{Endpoint: api.EndpointFetchCars, Message: resp.Message}
	}
	return resp.Data, nil
}

type carDetailResponse struct {
	Status api.StatusFlag    `json:"status"`
	Data   *models.CarDetail `json:"data"`
}

// FetchCar returns the detail view for one car, including the denormalized
// driver fields when the driver filled them in.
func (s *Service) FetchCar(ctx context.Context, carID int) (models.CarDetail, error) {
	form := url.Values{}
	form.Set("car_id", strconv.Itoa(carID))

	var resp carDetailResponse
	if err := s.Client.PostForm(ctx, api.EndpointFetchCar, form, &resp); err != nil {
		return models.CarDetail{}, err
	}
	if !resp.Status.OK() || resp.Data == nil {
		return models.CarDetail{}, &api.DomainError{Endpoint: api.EndpointFetchCar, Message: "car not found"}
	}
	return *resp.Data, nil
}

type userProfileResponse struct {
	Status  api.StatusFlag      `json:"status"`
	Message string              `json:"message"`
	Data    *models.UserProfile `json:"data"`
}

// FetchUserProfile returns the rider profile for id.
func (s *Service) FetchUserProfile(ctx context.Context, id int) (models.UserProfile, error) {
	form := url.Values{}
	form.Set("id", strconv.Itoa(id))

	var resp userProfileResponse
	if err := s.Client.PostForm(ctx, api.EndpointFetchUserProfile, form, &resp); err != nil {
		return models.UserProfile{}, err
	}
	if !resp.Status.OK() || resp.Data == nil {
		return models.UserProfile{}, &api.DomainError{Endpoint: api.EndpointFetchUserProfile, Message: resp.Message}
	}
	return *resp.Data, nil
}

// driverProfileResponse nests its payload under "driver", not "data".
type driverProfileResponse struct {
	Status  api.StatusFlag        `json:"status"`
	Message string                `json:"message"`
	Driver  *models.DriverProfile `json:"driver"`
}

// FetchDriverProfile returns the driver profile for driverID.
func (s *Service) FetchDriverProfile(ctx context.Context, driverID int) (models.DriverProfile, error) {
	form := url.Values{}
	form.Set("driver_id", strconv.Itoa(driverID))

	var resp driverProfileResponse
	if err := s.Client.PostForm(ctx, api.EndpointFetchDriverProfile, form, &resp); err != nil {
		return models.DriverProfile{}, err
	}
	if !resp.Status.OK() || resp.Driver == nil {
		return models.DriverProfile{}, &api.DomainError{Endpoint: api.EndpointFetchDriverProfile, Message: resp.Message}
	}
	return *resp.Driver, nil
}
