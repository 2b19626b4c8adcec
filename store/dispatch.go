package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/webmaild/webmaild/model"
)

// Dispatcher resolves a mailbox key to its single store instance. The same
// key always yields the same instance; first resolution opens the database
// and runs schema initialization as a blocking gate, so no operation can
// observe a half-initialized store.
type Dispatcher struct {
	dataDir    string
	sessionTTL time.Duration

	mu     sync.Mutex
	stores map[string]*storeEntry
}

type storeEntry struct {
	ready chan struct{}
	store *Store
	err   error
}

func NewDispatcher(dataDir string, sessionTTL time.Duration) *Dispatcher {
	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}
	return &Dispatcher{
		dataDir:    dataDir,
		sessionTTL: sessionTTL,
		stores:     map[string]*storeEntry{},
	}
}

// Resolve returns the store for key, initializing it on first access.
// Concurrent resolutions of the same key share one initialization.
func (d *Dispatcher) Resolve(key string) (*Store, error) {
	d.mu.Lock()
	e, ok := d.stores[key]
	if ok {
		d.mu.Unlock()
		<-e.ready
		return e.store, e.err
	}
	e = &storeEntry{ready: make(chan struct{})}
	d.stores[key] = e
	d.mu.Unlock()

	e.store, e.err = d.open(key)
	if e.err != nil {
		// Drop the failed entry so a later resolution can retry.
		d.mu.Lock()
		delete(d.stores, key)
		d.mu.Unlock()
	}
	close(e.ready)
	return e.store, e.err
}

func (d *Dispatcher) open(key string) (*Store, error) {
	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	kind := model.KindMailbox
	if key == AuthKey {
		kind = model.KindAuth
	}

	path := filepath.Join(d.dataDir, storeFileName(key))
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", key, err)
	}

	stored, err := model.Migrate(db, kind)
	if err != nil {
		return nil, fmt.Errorf("migrate store %s: %w", key, err)
	}

	return &Store{
		key:        key,
		kind:       stored,
		sessionTTL: d.sessionTTL,
		db:         db,
	}, nil
}

// storeFileName maps a key to a stable database file name. Keys are
// typically email addresses; anything outside a safe set is replaced.
func storeFileName(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '@' || r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, key)
	return safe + ".db"
}
