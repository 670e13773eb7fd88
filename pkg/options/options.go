// Package options implements the sealed option registry backed by pflag and
// viper. Features register named sections and typed bindings during the
// collect phase; the kernel parses the command line once, seals the
// registry, and features read values back during the load phase.
//
// Option paths are dotted: "log.level" lives in section "log" under the
// flag --log.level. Paths without a dot belong to the global section.
package options

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrSealed is raised (via panic) when the registry is mutated after Seal.
// Sealing happens exactly once, immediately after parsing; any later
// AddSection, Bind* or Parse call is a programmer error.
var ErrSealed = errors.New("options: registry is sealed")

// Section groups related options for help output and structured export.
type Section struct {
	Name        string
	Title       string
	Description string

	flags *pflag.FlagSet
}

// Result reports what Parse found on the command line.
type Result struct {
	// HelpRequested is true when --help was given. HelpSection holds the
	// requested section; "all" is translated to "*" (every section).
	HelpRequested bool
	HelpSection   string
}

// Options is the process-wide option registry.
type Options struct {
	v        *viper.Viper
	flags    *pflag.FlagSet
	sections map[string]*Section
	order    []string
	hidden   map[string]bool
	sealed   bool
	parsed   bool
}

// New creates an empty registry with a global section.
func New() *Options {
	o := &Options{
		v:        viper.New(),
		flags:    pflag.NewFlagSet("corekernel", pflag.ContinueOnError),
		sections: make(map[string]*Section),
		hidden:   make(map[string]bool),
	}
	o.flags.SortFlags = true
	o.AddSection("", "Global configuration", "global options")
	o.flags.String("help", "", "print help for the given section, or all sections with '*'")
	o.flags.Lookup("help").NoOptDefVal = "*"
	return o
}

// AddSection registers a named section. Adding an existing section keeps the
// first title and description.
func (o *Options) AddSection(name, title, description string) {
	o.mustBeOpen()
	if _, ok := o.sections[name]; ok {
		return
	}
	s := &Section{
		Name:        name,
		Title:       title,
		Description: description,
		flags:       pflag.NewFlagSet(name, pflag.ContinueOnError),
	}
	s.flags.SortFlags = true
	o.sections[name] = s
	o.order = append(o.order, name)
}

// BindString registers a string option at the dotted path.
func (o *Options) BindString(path string, target *string, value, usage string) {
	o.bind(path, func(fs *pflag.FlagSet) { fs.StringVar(target, path, value, usage) })
}

// BindBool registers a boolean option at the dotted path.
func (o *Options) BindBool(path string, target *bool, value bool, usage string) {
	o.bind(path, func(fs *pflag.FlagSet) { fs.BoolVar(target, path, value, usage) })
}

// BindInt registers an integer option at the dotted path.
func (o *Options) BindInt(path string, target *int, value int, usage string) {
	o.bind(path, func(fs *pflag.FlagSet) { fs.IntVar(target, path, value, usage) })
}

// BindDuration registers a duration option at the dotted path.
func (o *Options) BindDuration(path string, target *time.Duration, value time.Duration, usage string) {
	o.bind(path, func(fs *pflag.FlagSet) { fs.DurationVar(target, path, value, usage) })
}

// MarkHidden removes the option at path from help output and from the
// structured export. The option still parses normally.
func (o *Options) MarkHidden(path string) {
	o.mustBeOpen()
	if err := o.flags.MarkHidden(path); err != nil {
		panic(fmt.Sprintf("options: cannot hide unknown option %q", path))
	}
	_ = o.section(sectionOf(path)).flags.MarkHidden(path)
	o.hidden[path] = true
}

// Parse parses command line arguments, detects --help, and binds parsed
// values into the registry. It may be called exactly once, before Seal.
func (o *Options) Parse(args []string) (*Result, error) {
	o.mustBeOpen()
	if o.parsed {
		panic("options: Parse called twice")
	}
	o.parsed = true

	if err := o.flags.Parse(args); err != nil {
		return nil, err
	}

	if help := o.flags.Lookup("help"); help.Changed {
		section := help.Value.String()
		if section == "all" {
			section = "*"
		}
		return &Result{HelpRequested: true, HelpSection: section}, nil
	}

	if err := o.v.BindPFlags(o.flags); err != nil {
		return nil, fmt.Errorf("options: binding parsed flags: %w", err)
	}
	return &Result{}, nil
}

// Seal freezes the registry schema. Must be called exactly once.
func (o *Options) Seal() {
	o.mustBeOpen()
	o.sealed = true
}

// IsSealed reports whether Seal has been called.
func (o *Options) IsSealed() bool { return o.sealed }

// GetString returns the parsed value at path.
func (o *Options) GetString(path string) string { return o.v.GetString(path) }

// GetBool returns the parsed value at path.
func (o *Options) GetBool(path string) bool { return o.v.GetBool(path) }

// GetInt returns the parsed value at path.
func (o *Options) GetInt(path string) int { return o.v.GetInt(path) }

// GetDuration returns the parsed value at path.
func (o *Options) GetDuration(path string) time.Duration { return o.v.GetDuration(path) }

// Changed reports whether the option at path was set on the command line.
func (o *Options) Changed(path string) bool {
	f := o.flags.Lookup(path)
	return f != nil && f.Changed
}

// Sections returns the registered sections in registration order.
func (o *Options) Sections() []*Section {
	out := make([]*Section, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.sections[name])
	}
	return out
}

func (o *Options) bind(path string, register func(*pflag.FlagSet)) {
	o.mustBeOpen()
	if o.flags.Lookup(path) != nil {
		panic(fmt.Sprintf("options: option %q registered twice", path))
	}
	register(o.flags)
	register(o.section(sectionOf(path)).flags)
}

// section returns the section for name, creating a bare one on demand so
// features may bind options before declaring the section metadata.
func (o *Options) section(name string) *Section {
	if s, ok := o.sections[name]; ok {
		return s
	}
	o.AddSection(name, name, "")
	return o.sections[name]
}

func (o *Options) mustBeOpen() {
	if o.sealed {
		panic(ErrSealed)
	}
}

func sectionOf(path string) string {
	if i := strings.Index(path, "."); i >= 0 {
		return path[:i]
	}
	return ""
}
