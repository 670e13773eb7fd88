package options

import (
	"fmt"
	"io"
)

// PrintHelp writes usage for the requested section, or for every section
// when the argument is "*". Hidden options are never shown.
func (o *Options) PrintHelp(w io.Writer, section string) {
	if section == "*" {
		for _, name := range o.order {
			o.printSection(w, o.sections[name])
		}
		return
	}

	s, ok := o.sections[section]
	if !ok {
		fmt.Fprintf(w, "unknown help section %q; use --help=* for all sections\n", section)
		return
	}
	o.printSection(w, s)
}

func (o *Options) printSection(w io.Writer, s *Section) {
	if !s.flags.HasAvailableFlags() {
		return
	}

	title := s.Title
	if title == "" {
		title = s.Name
	}
	if s.Description != "" {
		fmt.Fprintf(w, "%s (%s)\n", title, s.Description)
	} else {
		fmt.Fprintf(w, "%s\n", title)
	}
	fmt.Fprint(w, s.flags.FlagUsages())
	fmt.Fprintln(w)
}
