// Package store owns per-mailbox state. Each mailbox key maps to one
// embedded sqlite database; a reserved key holds the credential singleton.
// All operations on a store are serialized.
package store

import (
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/webmaild/webmaild/model"
)

// AuthKey is the reserved key naming the credential store.
const AuthKey = "AUTH"

var (
	ErrWrongStoreKind = errors.New("operation not supported by this store kind")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrInvalidSort    = errors.New("invalid sort column or direction")
	ErrFolderNotFound = errors.New("folder not found")
	ErrConflict       = errors.New("conflicting id or name")
)

// Store is the stateful owner of one key's tables. Obtain instances
// through a Dispatcher, never directly.
type Store struct {
	key        string
	kind       model.Kind
	sessionTTL time.Duration

	mu sync.Mutex
	db *gorm.DB
}

func (s *Store) Key() string      { return s.key }
func (s *Store) Kind() model.Kind { return s.kind }

// do is the single entry point for every operation: it serializes access
// to the store and logs the call with timing and error status.
func (s *Store) do(method string, fn func(db *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := fn(s.db)
	if err != nil && !isSentinel(err) {
		log.Printf("store key=%s call=%s duration=%s err=%v", s.key, method, time.Since(start), err)
	} else {
		log.Printf("store key=%s call=%s duration=%s", s.key, method, time.Since(start))
	}
	return err
}

func isSentinel(err error) bool {
	return errors.Is(err, ErrWrongStoreKind) ||
		errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrInvalidSort) ||
		errors.Is(err, ErrFolderNotFound) ||
		errors.Is(err, ErrConflict)
}

func (s *Store) requireKind(kind model.Kind) error {
	if s.kind != kind {
		return ErrWrongStoreKind
	}
	return nil
}
