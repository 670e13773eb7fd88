package kernel

import (
	"fmt"
	"io"
)

// dumpDependencyGraph writes the starts-after relations as a DOT digraph:
// one node per feature, one edge per declared relation, pointing from the
// feature to the feature it starts after. Features are visited in
// registration order so the dump is reproducible.
func (s *Server) dumpDependencyGraph(w io.Writer) {
	fmt.Fprint(w, "digraph dependencies\n{\n  overlap = false;\n")
	for _, name := range s.added {
		for _, before := range s.features[name].StartsAfter() {
			fmt.Fprintf(w, "  %s -> %s;\n", name, before)
		}
	}
	fmt.Fprint(w, "}\n")
}
