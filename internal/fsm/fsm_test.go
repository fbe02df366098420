package fsm

import (
	"testing"

	"vstcp/internal/flow"
)

func TestTransitionNormalSynFromNone(t *testing.T) {
	SetSecure(false)
	f := &flow.Flow{State: flow.StateNone}
	Transition(f, Input, ClassSyn)
	if f.State != flow.StateSynRecv {
		t.Errorf("expected SYN_RECV after an inbound SYN from NONE, got %v", f.State)
	}
	if f.OldState != flow.StateNone {
		t.Errorf("expected old state NONE snapshotted, got %v", f.OldState)
	}
}

func TestTransitionSecureSynAckSticky(t *testing.T) {
	SetSecure(true)
	defer SetSecure(false)
	f := &flow.Flow{State: flow.StateSynAck}
	Transition(f, Input, ClassSyn)
	if f.State != flow.StateSynAck {
		t.Errorf("expected secure table to keep SYNACK sticky on a repeated SYN, got %v", f.State)
	}
}

func TestTransitionEveryCellIsDefined(t *testing.T) {
	// Totality: every (direction, class, state) cell must name a valid state
	// in both tables, never the zero value standing in for "undefined".
	for _, tbl := range []Table{normalTable, secureTable} {
		for dir := Direction(0); dir < numDirections; dir++ {
			for class := FlagClass(0); class < numFlagClasses; class++ {
				for s := 0; s < flow.NumStates; s++ {
					next := tbl[dir][class][s]
					if next < 0 || int(next) >= flow.NumStates {
						t.Errorf("dir=%d class=%d state=%d: out-of-range next state %v", dir, class, s, next)
					}
				}
			}
		}
	}
}

type fakeBackend struct{ active, inactive int }

func (b *fakeBackend) IncActive() { b.active++ }
func (b *fakeBackend) DecActive() { b.active-- }
func (b *fakeBackend) IncInactive() { b.inactive++ }
func (b *fakeBackend) DecInactive() { b.inactive-- }

func TestTransitionDrivesBackendAccounting(t *testing.T) {
	SetSecure(false)
	backend := &fakeBackend{}
	f := &flow.Flow{State: flow.StateSynRecv, Backend: backend}

	Transition(f, Input, ClassAck) // SYN_RECV + ack -> ESTABLISHED (INPUT row)
	if f.State != flow.StateEstablished {
		t.Fatalf("expected ESTABLISHED, got %v", f.State)
	}
	if backend.active != 1 {
		t.Errorf("expected active count 1 after entering ESTABLISHED, got %d", backend.active)
	}

	Transition(f, Input, ClassFin) // ESTABLISHED + fin -> CLOSE_WAIT (leaves ESTABLISHED)
	if backend.active != 0 || backend.inactive != 1 {
		t.Errorf("expected active=0 inactive=1 after leaving ESTABLISHED, got active=%d inactive=%d", backend.active, backend.inactive)
	}
}

func TestEffectiveDirectionRemapsNoOutput(t *testing.T) {
	f := &flow.Flow{}
	f.SetFlag(flow.FlagNoOutput)
	if got := effectiveDirection(f, Input); got != InputOnly {
		t.Errorf("expected Input to remap to InputOnly under FlagNoOutput, got %v", got)
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	class, ok := Classify(FlagRST | FlagSYN | FlagACK)
	if !ok || class != ClassRst {
		t.Errorf("expected RST to win priority, got class=%v ok=%v", class, ok)
	}
	class, ok = Classify(FlagSYN | FlagFIN | FlagACK)
	if !ok || class != ClassSyn {
		t.Errorf("expected SYN to win over FIN/ACK, got class=%v ok=%v", class, ok)
	}
	class, ok = Classify(FlagFIN | FlagACK)
	if !ok || class != ClassFin {
		t.Errorf("expected FIN to win over ACK, got class=%v ok=%v", class, ok)
	}
	if _, ok = Classify(0); ok {
		t.Errorf("expected no flag class for a segment with none of the four recognized bits set")
	}
}
