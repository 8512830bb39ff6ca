package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/driversync/internal/api"
	"github.com/example/driversync/internal/models"
)

func TestLoginParsesActor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostFormValue("username") != "ravi" || r.PostFormValue("password") != "secret" {
			t.Errorf("credentials not forwarded: %v", r.PostForm)
		}
		// string status, string id, role "user": the real login shape
		w.Write([]byte(`{"status":"success","message":"Login successful","data":{"id":"12","name":"Ravi","username":"ravi","role":"user","email":"ravi@x"}}`))
	}))
	defer srv.Close()

	actor, err := NewService(api.New(srv.URL, nil)).Login(context.Background(), "ravi", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if actor.ID != 12 {
		t.Errorf("id = %d, want 12", actor.ID)
	}
	if actor.Role != models.RoleRider {
		t.Errorf("role = %q, want rider (server says \"user\")", actor.Role)
	}
}

func TestLoginRejectionIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failure","message":"Invalid username or password","data":{}}`))
	}))
	defer srv.Close()

	_, err := NewService(api.New(srv.URL, nil)).Login(context.Background(), "ravi", "wrong")
	var auth *api.AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("got %v, want AuthError", err)
	}
	if auth.Message != "Invalid username or password" {
		t.Errorf("message = %q", auth.Message)
	}
}

func TestLoginEmptyCredentialsNoNetworkCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	_, err := NewService(api.New(srv.URL, nil)).Login(context.Background(), "", "")
	var v *api.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if called {
		t.Error("empty credentials reached the network")
	}
}

func TestSignupSynthesizesImageFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("multipart parse: %v", err)
		}
		if r.FormValue("role") != "driver" || r.FormValue("contact_number") != "9876" {
			t.Errorf("fields missing: %v", r.MultipartForm.Value)
		}
		_, header, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("image part: %v", err)
		}
		if header.Filename != "ravi-image.jpg" {
			t.Errorf("filename = %q, want ravi-image.jpg", header.Filename)
		}
		w.Write([]byte(`{"status":true,"message":"Signup successful","id":42}`))
	}))
	defer srv.Close()

	id, err := NewService(api.New(srv.URL, nil)).Signup(context.Background(), SignupParams{
		Name:     "Ravi",
		Username: "ravi",
		Email:    "ravi@x",
		Password: "secret",
		Role:     models.RoleDriver,
		Contact:  "9876",
	}, []byte("jpegdata"))
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
}

func TestSignupDuplicateUsernameIsDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"username already taken"}`))
	}))
	defer srv.Close()

	_, err := NewService(api.New(srv.URL, nil)).Signup(context.Background(), SignupParams{Username: "ravi", Role: models.RoleRider}, []byte("x"))
	var dom *api.DomainError
	if !errors.As(err, &dom) {
		t.Fatalf("got %v, want DomainError", err)
	}
}
