package kernel

import "fmt"

// Phase is the kernel's position in the fixed startup sequence. Transitions
// are strictly forward, one step at a time; anything else is a programmer
// error and panics.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseCollectingOptions
	PhaseParsingOptions
	PhaseOptionsSealed
	PhaseValidated
	PhaseAutomaticResolved
	PhaseOrdered
	PhaseDaemonized
	PhasePrepared
	PhasePrivilegesDropped
	PhaseStarted
	PhaseStopping
	PhaseStopped
)

var phaseNames = map[Phase]string{
	PhaseUninitialized:     "uninitialized",
	PhaseCollectingOptions: "collecting-options",
	PhaseParsingOptions:    "parsing-options",
	PhaseOptionsSealed:     "options-sealed",
	PhaseValidated:         "validated",
	PhaseAutomaticResolved: "automatic-resolved",
	PhaseOrdered:           "ordered",
	PhaseDaemonized:        "daemonized",
	PhasePrepared:          "prepared",
	PhasePrivilegesDropped: "privileges-dropped",
	PhaseStarted:           "started",
	PhaseStopping:          "stopping",
	PhaseStopped:           "stopped",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// transition advances the kernel to the next phase. The sequence admits no
// skips and no regressions.
func (s *Server) transition(to Phase) {
	if to != s.phase+1 {
		panic(fmt.Sprintf("kernel: invalid phase transition %s -> %s", s.phase, to))
	}
	s.phase = to
}

// Phase returns the kernel's current phase.
func (s *Server) Phase() Phase { return s.phase }
