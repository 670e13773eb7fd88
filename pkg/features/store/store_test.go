package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/corekernel/pkg/config"
)

func newOpenStore(t *testing.T, dir string) *Feature {
	t.Helper()
	f := New(config.StoreConfig{Enabled: true, Directory: dir})
	if err := f.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := f.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = f.Stop() })
	return f
}

func TestPrepareCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")
	f := New(config.StoreConfig{Enabled: true, Directory: dir})

	if err := f.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("store directory not created: %v", err)
	}
}

func TestPutGetDelete(t *testing.T) {
	f := newOpenStore(t, filepath.Join(t.TempDir(), "db"))

	if err := f.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := f.Get([]byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := f.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := f.Get([]byte("k")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestScanPrefix(t *testing.T) {
	f := newOpenStore(t, filepath.Join(t.TempDir(), "db"))

	for _, k := range []string{"view/a", "view/b", "other/c"} {
		if err := f.Put([]byte(k), []byte("x")); err != nil {
			t.Fatalf("Put(%s) failed: %v", k, err)
		}
	}

	var keys []string
	err := f.Scan([]byte("view/"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "view/a" || keys[1] != "view/b" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestAccessBeforeStart(t *testing.T) {
	f := New(config.StoreConfig{Enabled: true, Directory: t.TempDir()})

	if err := f.Put([]byte("k"), nil); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Put before Start: expected ErrNotOpen, got %v", err)
	}
	if _, err := f.Get([]byte("k")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Get before Start: expected ErrNotOpen, got %v", err)
	}
}

func TestDisabledWhenConfiguredOff(t *testing.T) {
	f := New(config.StoreConfig{Enabled: false, Directory: t.TempDir()})
	f.LoadOptions(nil)
	if f.IsEnabled() {
		t.Error("store should disable itself when not configured")
	}
}

func TestValidateOptions(t *testing.T) {
	f := New(config.StoreConfig{Enabled: true, Directory: ""})
	if err := f.ValidateOptions(nil); err == nil {
		t.Error("expected validation error for empty directory")
	}
}

func TestPersistenceAcrossRestart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	f := newOpenStore(t, dir)
	if err := f.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := f.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	f2 := newOpenStore(t, dir)
	got, err := f2.Get([]byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("value lost across restart: %q, %v", got, err)
	}
}
