// Package fsm implements the TCP pseudo-state machine (C5): the two 12x11
// transition tables (normal and secure), flag-class priority extraction
// (direction.go), and the snapshot-then-commit Transition call that also
// drives a flow's backend active/inactive accounting.
//
// The active table is a module-scoped pointer, swapped only by the control
// plane (SetSecure) and read without a lock from the packet path — the same
// concurrency shape as the original kernel's tcp_state_table pointer, which
// the sysctl handler swaps under sysctl_ip_vs_tcp_timeouts and every packet
// read dereferences unlocked.
package fsm

import (
	"sync/atomic"

	"vstcp/internal/flow"
)

var activeTable atomic.Pointer[Table]

func init() {
	activeTable.Store(&normalTable)
}

// SetSecure switches the active table, a control-plane-only operation
// (spec §5's timeout_change / C9's timeout_change hook).
func SetSecure(secure bool) {
	if secure {
		activeTable.Store(&secureTable)
	} else {
		activeTable.Store(&normalTable)
	}
}

// IsSecure reports which table is currently active.
func IsSecure() bool {
	return activeTable.Load() == &secureTable
}

// effectiveDirection remaps Input to InputOnly while a flow has no
// established output path yet (spec §3's NOOUTPUT flag, §4.5's "NOOUTPUT /
// INPUT_ONLY remapping"). The first Output segment clears NOOUTPUT and is
// looked up under Output.
func effectiveDirection(f *flow.Flow, dir Direction) Direction {
	if f.HasFlag(flow.FlagNoOutput) {
		if dir == Output {
			f.ClearFlag(flow.FlagNoOutput)
			return Output
		}
		return InputOnly
	}
	return dir
}

// Transition applies one segment's flag class, in the given direction, to a
// flow's state. It snapshots the old state before committing the new one
// (spec §9: "old_state must be captured before new_state is written, not
// derived from it afterward") and drives the backend active/inactive
// accounting side effect (spec §4.5) when a flow enters or leaves
// ESTABLISHED. Caller must hold f.Mu.
func Transition(f *flow.Flow, dir Direction, class FlagClass) {
	tbl := activeTable.Load()
	effDir := effectiveDirection(f, dir)
	newState := tbl[effDir][class][f.State]

	wasEstablished := f.State == flow.StateEstablished
	f.OldState = f.State
	f.State = newState

	if f.Backend == nil {
		return
	}
	isEstablished := newState == flow.StateEstablished
	switch {
	case !wasEstablished && isEstablished:
		f.Backend.IncActive()
	case wasEstablished && !isEstablished:
		f.Backend.DecActive()
		f.Backend.IncInactive()
	}
}
