// Package session authenticates an actor and fixes its role for the rest
// of the run. The backend has no tokens: every later call identifies the
// actor by numeric id only, so the session is nothing more than the Actor
// returned here.
package session

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/driversync/internal/api"
	"github.com/example/driversync/internal/models"
)

type Service struct {
	Client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{Client: client}
}

// loginResponse uses the string status encoding; the payload fields are all
// strings, including the numeric id.
type loginResponse struct {
	Status  api.StatusFlag `json:"status"`
	Message string         `json:"message"`
	Data    struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
		Role     string `json:"role"`
		Email    string `json:"email"`
	} `json:"data"`
}

// Login authenticates with plaintext credentials and returns the actor.
// A server-side rejection is an AuthError; the role is parsed into the
// closed Role set exactly once, here.
func (s *Service) Login(ctx context.Context, username, password string) (models.Actor, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return models.Actor{}, &api.ValidationError{Field: "credentials", Reason: "username and password are required"}
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp loginResponse
	if err := s.Client.PostForm(ctx, api.EndpointLogin, form, &resp); err != nil {
		return models.Actor{}, err
	}
	if !resp.Status.OK() {
		return models.Actor{}, &api.AuthError{Message: resp.Message}
	}

	id, err := strconv.Atoi(resp.Data.ID)
	if err != nil {
		return models.Actor{}, &api.DecodeError{Endpoint: api.EndpointLogin, Raw: resp.Data.ID, Cause: err}
	}
	role, ok := models.ParseRole(strings.ToLower(resp.Data.Role))
	if !ok {
		return models.Actor{}, &api.DomainError{Endpoint: api.EndpointLogin, Message: "unknown role " + resp.Data.Role}
	}
	return models.Actor{
		ID:       id,
		Name:     resp.Data.Name,
		Username: resp.Data.Username,
		Email:    resp.Data.Email,
		Role:     role,
	}, nil
}

// SignupParams carries the multipart string fields of the signup form.
type SignupParams struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     models.Role
	Contact  string
}

type signupResponse struct {
	Status  api.StatusFlag `json:"status"`
	Message string         `json:"message"`
	ID      *int           `json:"id"`
}

// Signup registers a new actor. The profile image is mandatory and travels
// as the single binary part; its filename is synthesized from the username
// the same way the mobile client did it.
func (s *Service) Signup(ctx context.Context, p SignupParams, image []byte) (int, error) {
	if strings.TrimSpace(p.Username) == "" {
		return 0, &api.ValidationError{Field: "username", Reason: "must not be empty"}
	}
	fields := map[string]string{
		"name":           p.Name,
		"username":       p.Username,
		"email":          p.Email,
		"password":       p.Password,
		"role":           string(p.Role),
		"contact_number": p.Contact,
	}
	img := api.ImageField{Name: "image", Filename: p.Username + "-image.jpg", Data: image}

	var resp signupResponse
	if err := s.Client.PostMultipart(ctx, api.EndpointSignup, fields, img, &resp); err != nil {
		return 0, err
	}
	if !resp.Status.OK() {
		return 0, &api.DomainError{Endpoint: api.EndpointSignup, Message: resp.Message}
	}
	if resp.ID == nil {
		return 0, &api.DomainError{Endpoint: api.EndpointSignup, Message: "server did not return an id"}
	}
	return *resp.ID, nil
}

// SubmitDriverInfo records the extra driver fields collected after a
// driver signup (age, years of experience, contact number).
func (s *Service) SubmitDriverInfo(ctx context.Context, userID int, age, experienceYears, contact string) error {
	form := url.Values{}
	form.Set("userid", strconv.Itoa(userID))
	form.Set("age", age)
	form.Set("experience_years", experienceYears)
	form.Set("contact_number", contact)

	var resp api.Envelope
	if err := s.Client.PostForm(ctx, api.EndpointDriverInfo, form, &resp); err != nil {
		return err
	}
	if !resp.Status.OK() {
		return &api.DomainError{Endpoint: api.EndpointDriverInfo, Message: resp.Message}
	}
	return nil
}
