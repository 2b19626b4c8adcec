package store

import (
	"testing"
	"time"
)

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return NewDispatcher(t.TempDir(), 30*24*time.Hour)
}

func testAuthStore(t *testing.T) *Store {
	t.Helper()
	s, err := testDispatcher(t).Resolve(AuthKey)
	if err != nil {
		t.Fatalf("resolve auth store: %v", err)
	}
	return s
}

func testMailboxStore(t *testing.T) *Store {
	t.Helper()
	s, err := testDispatcher(t).Resolve("user@example.com")
	if err != nil {
		t.Fatalf("resolve mailbox store: %v", err)
	}
	return s
}
