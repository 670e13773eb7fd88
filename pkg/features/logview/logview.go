// Package logview implements the demo view feature: a "logger" view type
// whose only behavior is to log the operations performed on it at a
// configurable level. View definitions persist in the store feature, so the
// feature requires the store and follows its enablement.
package logview

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/corekernel/internal/logger"
	"github.com/marmos91/corekernel/pkg/feature"
	"github.com/marmos91/corekernel/pkg/features/logging"
	"github.com/marmos91/corekernel/pkg/features/store"
	"github.com/marmos91/corekernel/pkg/kernel"
	"github.com/marmos91/corekernel/pkg/options"
)

// Name is the feature name.
const Name = "log-view"

const keyPrefix = "view/"

// View is a persisted logger-view definition.
type View struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Feature manages logger views over the store.
type Feature struct {
	feature.Base

	defaultLevel string

	store *store.Feature
	views map[string]*View
}

// New creates the log-view feature.
func New() *Feature {
	f := &Feature{
		Base:         feature.NewBase(Name),
		defaultLevel: "TRACE",
		views:        make(map[string]*View),
	}
	f.SetOptional(true)
	f.SetStartsAfter(logging.Name, store.Name)
	f.SetRequires(store.Name)
	f.SetEnableWith(store.Name)
	return f
}

func (f *Feature) CollectOptions(opts *options.Options) {
	opts.AddSection("view", "Views", "logger view demo")
	opts.BindString("view.default-level", &f.defaultLevel, f.defaultLevel,
		"level assigned to views created without one (ERR, WARN, INFO, DEBUG, TRACE)")
}

func (f *Feature) ValidateOptions(*options.Options) error {
	if !validLevel(f.defaultLevel) {
		return fmt.Errorf("invalid view level %q", f.defaultLevel)
	}
	return nil
}

// Start resolves the store peer through the process-wide kernel handle and
// opens every persisted view.
func (f *Feature) Start() error {
	srv := kernel.Instance()
	if srv == nil {
		return fmt.Errorf("log-view: no kernel instance")
	}
	peer, err := srv.EnabledFeature(store.Name)
	if err != nil {
		return err
	}
	st, ok := peer.(*store.Feature)
	if !ok {
		return fmt.Errorf("log-view: feature %q is not a store", store.Name)
	}
	f.store = st

	err = st.Scan([]byte(keyPrefix), func(key, value []byte) error {
		var v View
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("corrupt view record %q: %w", key, err)
		}
		f.views[v.Name] = &v
		f.log(&v, "opened view")
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Logger views ready", logger.KeyCount, len(f.views))
	return nil
}

func (f *Feature) Stop() error {
	for _, v := range f.views {
		f.log(v, "dropped view handle")
	}
	f.views = make(map[string]*View)
	f.store = nil
	return nil
}

// CreateView persists a new view. An empty level takes the default.
func (f *Feature) CreateView(name, level string) (*View, error) {
	if f.store == nil {
		return nil, store.ErrNotOpen
	}
	if name == "" {
		return nil, fmt.Errorf("view name must not be empty")
	}
	if level == "" {
		level = f.defaultLevel
	}
	if !validLevel(level) {
		return nil, fmt.Errorf("invalid view level %q", level)
	}
	if _, exists := f.views[name]; exists {
		return nil, fmt.Errorf("view %q already exists", name)
	}

	v := &View{Name: name, Level: level}
	if err := f.persist(v); err != nil {
		return nil, err
	}
	f.views[name] = v
	f.log(v, "created view")
	return v, nil
}

// UpdateProperties changes a view's level.
func (f *Feature) UpdateProperties(name, level string) error {
	v, ok := f.views[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}
	if !validLevel(level) {
		return fmt.Errorf("expecting level to be one of ERR, WARN, INFO, DEBUG, TRACE, got %q", level)
	}
	v.Level = level
	if err := f.persist(v); err != nil {
		return err
	}
	f.log(v, "updated view properties")
	return nil
}

// DropView removes a view and its persisted record.
func (f *Feature) DropView(name string) error {
	v, ok := f.views[name]
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}
	if err := f.store.Delete([]byte(keyPrefix + name)); err != nil {
		return err
	}
	delete(f.views, name)
	f.log(v, "dropped view")
	return nil
}

// Views returns the open views keyed by name.
func (f *Feature) Views() map[string]*View {
	out := make(map[string]*View, len(f.views))
	for name, v := range f.views {
		out[name] = v
	}
	return out
}

func (f *Feature) persist(v *View) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return f.store.Put([]byte(keyPrefix+v.Name), data)
}

// log emits at the view's configured level; this is the view's entire
// observable behavior.
func (f *Feature) log(v *View, msg string) {
	switch v.Level {
	case "ERR":
		logger.Error(msg, logger.KeyName, v.Name)
	case "WARN":
		logger.Warn(msg, logger.KeyName, v.Name)
	case "INFO":
		logger.Info(msg, logger.KeyName, v.Name)
	default:
		logger.Debug(msg, logger.KeyName, v.Name)
	}
}

func validLevel(level string) bool {
	switch level {
	case "ERR", "WARN", "INFO", "DEBUG", "TRACE":
		return true
	}
	return false
}
