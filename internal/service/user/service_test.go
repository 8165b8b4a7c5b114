package user

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(memory.NewUserRepository(memory.NewStore()), nil)
}

func TestRegisterHashesPassword(t *testing.T) {
	svc := newService(t)

	registered, err := svc.Register(RegisterRequest{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if registered.ID == 0 {
		t.Error("expected assigned user ID")
	}
	if registered.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized lowercase", registered.Email)
	}
	if registered.Role != domain.RoleUser {
		t.Errorf("role = %s, want USER by default", registered.Role)
	}
	if registered.PasswordHash == "secret123" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(registered.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr error
	}{
		{
			name:    "short password",
			req:     RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "123"},
			wantErr: domain.ErrPasswordTooShort,
		},
		{
			name:    "missing name",
			req:     RegisterRequest{Email: "bob@example.com", Password: "secret123"},
			wantErr: domain.ErrUserNameRequired,
		},
		{
			name:    "bad email",
			req:     RegisterRequest{Name: "Bob", Email: "not-an-email", Password: "secret123"},
			wantErr: domain.ErrUserEmailInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService(t)

	if _, err := svc.Register(RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(RegisterRequest{Name: "Other", Email: "alice@example.com", Password: "secret456"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newService(t)

	if _, err := svc.Register(RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate("alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	if _, err := svc.Authenticate("alice@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate("nobody@example.com", "secret123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	svc := newService(t)

	registered, err := svc.Register(RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	updated, err := svc.Update(registered.ID, UpdateRequest{Name: "Alice B."})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Alice B." {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.Email != "alice@example.com" {
		t.Errorf("email changed unexpectedly: %q", updated.Email)
	}
	if updated.Role != domain.RoleUser {
		t.Errorf("role changed unexpectedly: %s", updated.Role)
	}
}
