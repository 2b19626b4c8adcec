package store

import (
	"sync"
	"testing"
	"time"

	"github.com/webmaild/webmaild/model"
)

func TestResolveSameKeySameInstance(t *testing.T) {
	d := testDispatcher(t)
	a, err := d.Resolve("box@example.com")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	b, err := d.Resolve("box@example.com")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if a != b {
		t.Error("same key resolved to different store instances")
	}
}

func TestResolveConcurrentSharesInit(t *testing.T) {
	d := testDispatcher(t)
	const n = 8
	stores := make([]*Store, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := d.Resolve("race@example.com")
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			stores[i] = s
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if stores[i] != stores[0] {
			t.Fatalf("resolution %d produced a different instance", i)
		}
	}
}

func TestResolveKindSelection(t *testing.T) {
	d := testDispatcher(t)
	auth, err := d.Resolve(AuthKey)
	if err != nil {
		t.Fatalf("resolve auth: %v", err)
	}
	if auth.Kind() != model.KindAuth {
		t.Errorf("auth store kind = %q, want %q", auth.Kind(), model.KindAuth)
	}
	mb, err := d.Resolve("someone@example.com")
	if err != nil {
		t.Fatalf("resolve mailbox: %v", err)
	}
	if mb.Kind() != model.KindMailbox {
		t.Errorf("mailbox store kind = %q, want %q", mb.Kind(), model.KindMailbox)
	}
}

func TestKindPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	d := NewDispatcher(dir, 30*24*time.Hour)
	if _, err := d.Resolve(AuthKey); err != nil {
		t.Fatalf("first open: %v", err)
	}

	// A fresh dispatcher over the same data dir must read the persisted
	// kind marker rather than re-deciding.
	d2 := NewDispatcher(dir, 30*24*time.Hour)
	auth, err := d2.Resolve(AuthKey)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if auth.Kind() != model.KindAuth {
		t.Errorf("reopened kind = %q, want %q", auth.Kind(), model.KindAuth)
	}
}

func TestWrongKindOperations(t *testing.T) {
	mb := testMailboxStore(t)
	if _, err := mb.Register("x@example.com", "password123", true); err != ErrWrongStoreKind {
		t.Errorf("Register on mailbox store: err = %v, want ErrWrongStoreKind", err)
	}

	auth := testAuthStore(t)
	if _, err := auth.ListEmails(ListParams{}); err != ErrWrongStoreKind {
		t.Errorf("ListEmails on auth store: err = %v, want ErrWrongStoreKind", err)
	}
}

func TestStoreFileName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"user@example.com", "user@example.com.db"},
		{"AUTH", "AUTH.db"},
		{"weird/../key", "weird_.._key.db"},
	}
	for _, tt := range tests {
		if got := storeFileName(tt.key); got != tt.want {
			t.Errorf("storeFileName(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
