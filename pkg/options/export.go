package options

import (
	"io"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// ToStructured returns the sealed configuration as a nested document keyed
// by option path segments. Hidden options and any path in excludes (or below
// an excluded prefix) are omitted. The export is deterministic: options are
// visited in lexical order.
func (o *Options) ToStructured(excludes map[string]struct{}) map[string]any {
	out := make(map[string]any)
	o.flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Hidden || excluded(f.Name, excludes) {
			return
		}
		setNested(out, f.Name, o.flagValue(f))
	})
	return out
}

// ExportYAML writes the structured export as YAML.
func (o *Options) ExportYAML(w io.Writer, excludes map[string]struct{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(o.ToStructured(excludes))
}

// flagValue returns the typed value of a flag, parsed or default.
func (o *Options) flagValue(f *pflag.Flag) any {
	switch f.Value.Type() {
	case "bool":
		v, _ := o.flags.GetBool(f.Name)
		return v
	case "int":
		v, _ := o.flags.GetInt(f.Name)
		return v
	case "duration":
		v, _ := o.flags.GetDuration(f.Name)
		return v.String()
	default:
		return f.Value.String()
	}
}

func excluded(path string, excludes map[string]struct{}) bool {
	if _, ok := excludes[path]; ok {
		return true
	}
	for prefix := range excludes {
		if strings.HasPrefix(path, prefix+".") {
			return true
		}
	}
	return false
}

// setNested stores value at the dotted path inside doc, creating
// intermediate maps as needed.
func setNested(doc map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}
