// Package store implements the builtin embedded key-value store feature on
// Badger. The store directory is created during Prepare, which runs with
// elevated privileges; the database itself opens in Start.
package store

import (
	"errors"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/corekernel/internal/logger"
	"github.com/marmos91/corekernel/pkg/config"
	"github.com/marmos91/corekernel/pkg/feature"
	"github.com/marmos91/corekernel/pkg/features/logging"
	"github.com/marmos91/corekernel/pkg/options"
)

// Name is the feature name peers use in requires declarations.
const Name = "store"

// ErrNotOpen is returned for store access outside the Start/Stop window.
var ErrNotOpen = errors.New("store is not open")

// ErrKeyNotFound is returned by Get for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// Feature owns the embedded database.
type Feature struct {
	feature.Base

	enabled   bool
	directory string

	db *badger.DB
}

// New creates the store feature seeded with config file defaults.
func New(defaults config.StoreConfig) *Feature {
	f := &Feature{
		Base:      feature.NewBase(Name),
		enabled:   defaults.Enabled,
		directory: defaults.Directory,
	}
	f.SetOptional(true)
	f.SetStartsAfter(logging.Name)
	f.SetRequiresElevatedPrivileges(true)
	return f
}

func (f *Feature) CollectOptions(opts *options.Options) {
	opts.AddSection("store", "Store", "embedded key-value store")
	opts.BindBool("store.enabled", &f.enabled, f.enabled, "open the embedded store")
	opts.BindString("store.directory", &f.directory, f.directory, "on-disk location of the store")
}

func (f *Feature) LoadOptions(*options.Options) {
	if !f.enabled {
		f.Disable()
	}
}

func (f *Feature) ValidateOptions(*options.Options) error {
	if f.enabled && f.directory == "" {
		return errors.New("store.directory must not be empty")
	}
	return nil
}

// Prepare creates the store directory. This is the privileged write; the
// directory must exist before privileges are dropped permanently.
func (f *Feature) Prepare() error {
	if err := os.MkdirAll(f.directory, 0o700); err != nil {
		return fmt.Errorf("creating store directory %q: %w", f.directory, err)
	}
	return nil
}

func (f *Feature) Start() error {
	opts := badger.DefaultOptions(f.directory).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening store at %q: %w", f.directory, err)
	}
	f.db = db
	logger.Info("Store opened", logger.KeyPath, f.directory)
	return nil
}

func (f *Feature) Stop() error {
	if f.db == nil {
		return nil
	}
	err := f.db.Close()
	f.db = nil
	logger.Info("Store closed", logger.KeyPath, f.directory)
	return err
}

// Put stores a value under key.
func (f *Feature) Put(key, value []byte) error {
	if f.db == nil {
		return ErrNotOpen
	}
	return f.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (f *Feature) Get(key []byte) ([]byte, error) {
	if f.db == nil {
		return nil, ErrNotOpen
	}
	var out []byte
	err := f.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes key from the store. Deleting an absent key is not an error.
func (f *Feature) Delete(key []byte) error {
	if f.db == nil {
		return ErrNotOpen
	}
	return f.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Scan invokes fn for every key with the given prefix.
func (f *Feature) Scan(prefix []byte, fn func(key, value []byte) error) error {
	if f.db == nil {
		return ErrNotOpen
	}
	return f.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Directory returns the configured store location.
func (f *Feature) Directory() string { return f.directory }
