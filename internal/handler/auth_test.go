package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mvillanueva/parokya/internal/database"
	"github.com/mvillanueva/parokya/internal/middleware"
	"github.com/mvillanueva/parokya/internal/store"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	sessions := store.NewSessionStore(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := users.Create("admin@parish.example", "Admin", string(hash)); err != nil {
		t.Fatalf("create user: %v", err)
	}

	return NewAuthHandler(users, sessions, time.Hour, slog.Default()), sessions
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestLoginSuccess(t *testing.T) {
	h, sessions := setupAuthHandler(t)

	body := `{"email": "admin@parish.example", "password": "secret123"}`
	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}

	sess, err := sessions.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		t.Fatalf("session not persisted: %v, %v", sess, err)
	}

	// Password hash must not leak in the response
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("response leaks password hash")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, _ := setupAuthHandler(t)

	body := `{"email": "admin@parish.example", "password": "wrong"}`
	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestLoginUnknownEmailSameAnswer(t *testing.T) {
	h, _ := setupAuthHandler(t)

	wrongPass := httptest.NewRecorder()
	h.Login(wrongPass, httptest.NewRequest("POST", "/api/login",
		strings.NewReader(`{"email": "admin@parish.example", "password": "wrong"}`)))

	unknownEmail := httptest.NewRecorder()
	h.Login(unknownEmail, httptest.NewRequest("POST", "/api/login",
		strings.NewReader(`{"email": "nobody@parish.example", "password": "secret123"}`)))

	// Identical response either way; nothing to enumerate accounts with
	if wrongPass.Code != unknownEmail.Code {
		t.Errorf("codes differ: %d vs %d", wrongPass.Code, unknownEmail.Code)
	}
	if wrongPass.Body.String() != unknownEmail.Body.String() {
		t.Errorf("bodies differ: %q vs %q", wrongPass.Body.String(), unknownEmail.Body.String())
	}
}

func TestLoginMissingFields(t *testing.T) {
	h, _ := setupAuthHandler(t)

	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"email": "", "password": ""}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestLogout(t *testing.T) {
	h, sessions := setupAuthHandler(t)

	loginRec := httptest.NewRecorder()
	h.Login(loginRec, httptest.NewRequest("POST", "/api/login",
		strings.NewReader(`{"email": "admin@parish.example", "password": "secret123"}`)))
	cookie := sessionCookie(loginRec)
	if cookie == nil {
		t.Fatal("expected session cookie")
	}

	req := httptest.NewRequest("POST", "/api/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	sess, err := sessions.GetByToken(cookie.Value)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess != nil {
		t.Error("session should be deleted")
	}

	cleared := sessionCookie(rec)
	if cleared == nil || cleared.MaxAge != -1 {
		t.Error("expected clearing cookie with MaxAge -1")
	}
}
