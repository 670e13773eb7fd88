package logview

import (
	"path/filepath"
	"testing"

	"github.com/marmos91/corekernel/pkg/config"
	"github.com/marmos91/corekernel/pkg/features/store"
	"github.com/marmos91/corekernel/pkg/kernel"
	"github.com/marmos91/corekernel/pkg/options"
)

// startFixture wires a kernel instance holding an open store and a started
// log-view feature, driving the hooks directly.
func startFixture(t *testing.T, dir string) (*Feature, *store.Feature) {
	t.Helper()

	srv := kernel.New(options.New())
	t.Cleanup(srv.Close)

	st := store.New(config.StoreConfig{Enabled: true, Directory: dir})
	lv := New()
	srv.AddFeature(st)
	srv.AddFeature(lv)

	if err := st.Prepare(); err != nil {
		t.Fatalf("store Prepare failed: %v", err)
	}
	if err := st.Start(); err != nil {
		t.Fatalf("store Start failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Stop() })

	if err := lv.Start(); err != nil {
		t.Fatalf("logview Start failed: %v", err)
	}
	t.Cleanup(func() { _ = lv.Stop() })

	return lv, st
}

func TestCreateUpdateDropView(t *testing.T) {
	lv, _ := startFixture(t, filepath.Join(t.TempDir(), "db"))

	v, err := lv.CreateView("audit", "INFO")
	if err != nil {
		t.Fatalf("CreateView failed: %v", err)
	}
	if v.Level != "INFO" {
		t.Errorf("unexpected level %q", v.Level)
	}

	if _, err := lv.CreateView("audit", "INFO"); err == nil {
		t.Error("duplicate view creation should fail")
	}
	if _, err := lv.CreateView("bad", "LOUD"); err == nil {
		t.Error("invalid level should fail")
	}
	if _, err := lv.CreateView("", "INFO"); err == nil {
		t.Error("empty view name should fail")
	}

	if err := lv.UpdateProperties("audit", "ERR"); err != nil {
		t.Fatalf("UpdateProperties failed: %v", err)
	}
	if lv.Views()["audit"].Level != "ERR" {
		t.Error("level not updated")
	}
	if err := lv.UpdateProperties("audit", "LOUD"); err == nil {
		t.Error("invalid level update should fail")
	}
	if err := lv.UpdateProperties("ghost", "INFO"); err == nil {
		t.Error("updating unknown view should fail")
	}

	if err := lv.DropView("audit"); err != nil {
		t.Fatalf("DropView failed: %v", err)
	}
	if len(lv.Views()) != 0 {
		t.Error("view still present after drop")
	}
	if err := lv.DropView("audit"); err == nil {
		t.Error("dropping unknown view should fail")
	}
}

func TestDefaultLevelApplied(t *testing.T) {
	lv, _ := startFixture(t, filepath.Join(t.TempDir(), "db"))

	v, err := lv.CreateView("plain", "")
	if err != nil {
		t.Fatalf("CreateView failed: %v", err)
	}
	if v.Level != "TRACE" {
		t.Errorf("expected default TRACE level, got %q", v.Level)
	}
}

func TestViewsPersistAcrossRestart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	lv, st := startFixture(t, dir)
	if _, err := lv.CreateView("audit", "WARN"); err != nil {
		t.Fatalf("CreateView failed: %v", err)
	}
	if err := lv.Stop(); err != nil {
		t.Fatalf("logview Stop failed: %v", err)
	}
	if err := st.Stop(); err != nil {
		t.Fatalf("store Stop failed: %v", err)
	}

	lv2, _ := startFixture(t, dir)
	views := lv2.Views()
	if len(views) != 1 || views["audit"] == nil || views["audit"].Level != "WARN" {
		t.Fatalf("views not reloaded: %v", views)
	}
}

func TestDeclarations(t *testing.T) {
	lv := New()
	if lv.EnableWith() != store.Name {
		t.Errorf("EnableWith = %q", lv.EnableWith())
	}
	found := false
	for _, name := range lv.Requires() {
		if name == store.Name {
			found = true
		}
	}
	if !found {
		t.Error("log-view must require the store")
	}
}
