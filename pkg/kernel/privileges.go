package kernel

import (
	"fmt"

	"github.com/marmos91/corekernel/internal/logger"
)

// PrivilegeState is the tri-state of the process privilege gate.
type PrivilegeState int

const (
	// PrivilegesElevated is the initial state: the process still holds the
	// privileges it was started with.
	PrivilegesElevated PrivilegeState = iota

	// PrivilegesTemporarilyDropped holds while unprivileged features run
	// their Prepare during the prepare phase.
	PrivilegesTemporarilyDropped

	// PrivilegesPermanentlyDropped is terminal. No raise or drop is
	// possible afterwards.
	PrivilegesPermanentlyDropped
)

func (p PrivilegeState) String() string {
	switch p {
	case PrivilegesElevated:
		return "elevated"
	case PrivilegesTemporarilyDropped:
		return "temporarily-dropped"
	case PrivilegesPermanentlyDropped:
		return "permanently-dropped"
	default:
		return fmt.Sprintf("privilege-state(%d)", int(p))
	}
}

// Platform hooks for the actual privilege mechanics (setuid and friends).
// The gate owns only the state machine; hosts that run privileged install
// real implementations here before Run.
var (
	platformRaisePrivileges = func() error { return nil }
	platformDropPrivileges  = func() error { return nil }
)

// privilegeGate enforces the one-way privilege fence around the prepare
// phase. Only the main control thread touches it.
type privilegeGate struct {
	state PrivilegeState
}

// raiseTemporarily re-elevates between two prepare calls.
func (g *privilegeGate) raiseTemporarily() error {
	if g.state == PrivilegesPermanentlyDropped {
		return fmt.Errorf("%w: must not raise privileges after dropping them", ErrPrivilegeViolation)
	}
	logger.Debug("Raising privileges temporarily")
	if err := platformRaisePrivileges(); err != nil {
		return err
	}
	g.state = PrivilegesElevated
	return nil
}

// dropTemporarily lowers privileges for an unprivileged feature's prepare.
func (g *privilegeGate) dropTemporarily() error {
	if g.state == PrivilegesPermanentlyDropped {
		return fmt.Errorf("%w: must not drop privileges after dropping them permanently", ErrPrivilegeViolation)
	}
	logger.Debug("Dropping privileges temporarily")
	if err := platformDropPrivileges(); err != nil {
		return err
	}
	g.state = PrivilegesTemporarilyDropped
	return nil
}

// dropPermanently closes the fence. One-way.
func (g *privilegeGate) dropPermanently() error {
	if g.state == PrivilegesPermanentlyDropped {
		return fmt.Errorf("%w: privileges already dropped permanently", ErrPrivilegeViolation)
	}
	logger.Debug("Dropping privileges permanently")
	if err := platformDropPrivileges(); err != nil {
		return err
	}
	g.state = PrivilegesPermanentlyDropped
	return nil
}

// PrivilegeState returns the gate's current state.
func (s *Server) PrivilegeState() PrivilegeState { return s.gate.state }
