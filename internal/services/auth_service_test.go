package services

import (
	"strings"
	"testing"
	"time"
)

type stubAuthStore struct {
	users map[string]*User
}

func newStubAuthStore() *stubAuthStore {
	return &stubAuthStore{users: map[string]*User{}}
}

func (s *stubAuthStore) FindUserByEmail(email string) (*User, error) {
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	copy := *u
	return &copy, nil
}

func (s *stubAuthStore) AddUser(u *User) error {
	copy := *u
	s.users[strings.ToLower(u.Email)] = &copy
	return nil
}

func stubSigner(uid, role, email string, ttl time.Duration) (string, error) {
	return "tok:" + uid + ":" + role, nil
}

func TestRegisterAndLogin(t *testing.T) {
	store := newStubAuthStore()
	svc := NewAuthService(store, stubSigner)

	res, err := svc.Register("ana@uni.edu", "secret123", "Ana", "student")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.UserID == "" || res.Role != "student" {
		t.Fatalf("register result = %+v", res)
	}
	if !strings.HasPrefix(res.Token, "tok:") {
		t.Fatalf("token = %q", res.Token)
	}
	if store.users["ana@uni.edu"] == nil {
		t.Fatalf("user not stored")
	}
	if string(store.users["ana@uni.edu"].PassHash) == "secret123" {
		t.Fatalf("password stored in clear")
	}

	login, err := svc.Login("ana@uni.edu", "secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if login.UserID != res.UserID {
		t.Fatalf("login user = %q, want %q", login.UserID, res.UserID)
	}

	if _, err := svc.Login("ana@uni.edu", "wrong"); err == nil {
		t.Fatalf("wrong password accepted")
	}
	if _, err := svc.Login("nobody@uni.edu", "secret123"); err == nil {
		t.Fatalf("unknown email accepted")
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), stubSigner)

	if _, err := svc.Register("", "pw", "X", "student"); err == nil {
		t.Fatalf("empty email accepted")
	}
	if _, err := svc.Register("x@uni.edu", "  ", "X", "student"); err == nil {
		t.Fatalf("blank password accepted")
	}
	if _, err := svc.Register("x@uni.edu", "pw", "X", "alumni"); err == nil {
		t.Fatalf("unknown role accepted")
	}

	_, err := svc.Register("x@uni.edu", "pw", "X", "admin")
	if err == nil {
		t.Fatalf("admin self-registration accepted")
	}
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), stubSigner)
	if _, err := svc.Register("dup@uni.edu", "pw1", "A", "faculty"); err != nil {
		t.Fatalf("first register returned error: %v", err)
	}
	_, err := svc.Register("dup@uni.edu", "pw2", "B", "staff")
	if err == nil {
		t.Fatalf("duplicate email accepted")
	}
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
