package store

import (
	"testing"
	"time"

	"github.com/mvillanueva/parokya/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db), NewUserStore(db)
}

func createTestUser(t *testing.T, users *UserStore) int64 {
	t.Helper()
	u, err := users.Create("admin@parish.example", "Admin", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func TestSessionCreateAndGetByToken(t *testing.T) {
	sessions, users := setupSessionTestDB(t)
	userID := createTestUser(t, users)

	sess, err := sessions.Create(userID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}

	got, err := sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil {
		t.Fatal("expected session")
	}
	if got.UserID != userID {
		t.Errorf("user id = %d, want %d", got.UserID, userID)
	}
}

func TestSessionGetByTokenUnknown(t *testing.T) {
	sessions, _ := setupSessionTestDB(t)

	got, err := sessions.GetByToken("nope")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestSessionGetByTokenExpired(t *testing.T) {
	sessions, users := setupSessionTestDB(t)
	userID := createTestUser(t, users)

	sess, err := sessions.Create(userID, -time.Minute)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for expired session")
	}
}

func TestSessionDelete(t *testing.T) {
	sessions, users := setupSessionTestDB(t)
	userID := createTestUser(t, users)

	sess, err := sessions.Create(userID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := sessions.Delete(sess.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	sessions, users := setupSessionTestDB(t)
	userID := createTestUser(t, users)

	if _, err := sessions.Create(userID, -time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	live, err := sessions.Create(userID, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	n, err := sessions.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	got, err := sessions.GetByToken(live.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil {
		t.Error("live session should survive cleanup")
	}
}
