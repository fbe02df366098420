// Package flow holds the data model the TCP core reads and writes: the Flow
// handle itself, the small sequence-translation records attached to it, and
// the interfaces through which the core calls out to its external
// collaborators (flow table, scheduler, SYN-proxy, xmit). The core never
// constructs a Flow and never owns its lifecycle — the flow table does; the
// core only borrows one for the duration of a packet (see spec §3, §5).
package flow

import (
	"net"
	"sync"
)

// Family is the packet address family.
type Family int

const (
	FamilyV4 Family = iota
	FamilyV6
)

// Proto identifies the transport protocol; the core only ever handles TCP,
// but the field exists because Flow is shared with sibling protocol modules.
type Proto int

const (
	ProtoTCP Proto = iota
)

// Mode is the forwarding mode of a flow.
type Mode int

const (
	ModeNAT     Mode = iota // masquerade: rewrite destination on ingress, source on egress
	ModeFullNAT             // also rewrite source on ingress to a pool-owned local address
	ModeDirect              // direct routing: no rewrite at all
)

// Flags is a bitset of per-flow booleans (spec §3).
type Flags uint32

const (
	FlagInactive Flags = 1 << iota
	FlagNoOutput
	FlagFullNAT
	FlagMasq
	FlagCIPInserted
)

func (f *Flags) has(bit Flags) bool { return *f&bit != 0 }
func (f *Flags) set(bit Flags)      { *f |= bit }
func (f *Flags) clear(bit Flags)    { *f &^= bit }

// FullNATSeq is the FullNAT sequence record (spec §3 "FullNAT sequence
// record"). InitSeq is the balancer-chosen ISN sent to the backend; Delta is
// frozen for the life of the flow once non-zero unless a sanctioned reuse
// regenerates it (see seqxlat.Init).
type FullNATSeq struct {
	InitSeq    uint32
	Delta      uint32 // InitSeq - ClientInitSeq, stored as its two's-complement wraparound
	FDataSeq   uint32 // seq at which the first non-SYN byte is expected
	Initialized bool
}

// SynProxySeq is opaque to the core except through the two hooks the
// SYN-proxy module supplies (spec §3 "SYN-proxy sequence record"); the core
// never reads its fields directly.
type SynProxySeq interface {
	// placeholder: the real fields live in the SYN-proxy module, which is an
	// external collaborator (spec §1 scope). The core interacts with it only
	// via the EgressAdjust/IngressAdjust hooks on SynProxy below.
}

// ReverseSeq is the reverse-path bookkeeping the core maintains for C7's RST
// synthesiser (spec §4.3 "Reverse-path bookkeeping").
type ReverseSeq struct {
	EndSeq    uint32 // rs_end_seq
	AckSeq    uint32 // rs_ack_seq
	HasAckSeq bool
}

// Backend is the external real-server handle a flow is attached to. The core
// only flips its active/inactive accounting (spec §4.5); everything else
// (scheduling, health, weights) belongs to the framework.
type Backend interface {
	IncActive()
	DecActive()
	IncInactive()
	DecInactive()
}

// Helper is the ALG (application-layer gateway) interface the core binds at
// flow-creation time (spec §4.8, C8). Concrete helper bodies are explicitly
// out of scope for the core (spec §1); the core only manages acquire/release
// and invokes the two callbacks below.
type Helper interface {
	Port() uint16
	// InitConn runs once, at bind time, in NAT mode only.
	InitConn(f *Flow) bool
	// PktIn/PktOut run as the pre-mutation callback of a rewrite handler; a
	// false return is fatal for the packet (spec §4.4).
	PktIn(f *Flow, packet []byte) bool
	PktOut(f *Flow, packet []byte) bool
	Acquire()
	Release()
}

// Flow is the per-connection handle the core mutates. The flow table owns
// its lifecycle; the core holds only a borrow for one packet (spec §3).
type Flow struct {
	Family   Family
	Proto    Proto
	Mode     Mode

	ClientAddr net.IP
	ClientPort uint16

	VirtualAddr net.IP
	VirtualPort uint16

	LocalAddr net.IP // FullNAT only: the pool-owned local address
	LocalPort uint16

	DestAddr net.IP // real-server address
	DestPort uint16

	State    State
	OldState State

	Flags Flags

	FNAT FullNATSeq
	Rev  ReverseSeq

	Helper    Helper
	Backend   Backend
	SynProxy  SynProxy

	// AckQueue holds ingress ACK packets the SYN-proxy needs to resurrect a
	// half-open flow for RST synthesis (spec §3, §4.7). Treated as a simple
	// deque: PeekHead/Requeue.
	AckQueue [][]byte

	// Mu serializes state transitions for this flow (spec §5: "the flow's
	// spinlock, acquired in 4.5 and released before any external call that
	// may sleep — none do here").
	Mu sync.Mutex

	// ID is a correlation id for structured logging only; it has no wire
	// meaning (see SPEC_FULL.md ambient stack).
	ID string
}

// SynProxy is the pair of hooks the SYN-proxy module exposes to the core
// (spec §3 "SYN-proxy sequence record", §6). The core treats both as black
// boxes; nil means "no SYN-proxy on this flow".
type SynProxy interface {
	// Egress adjusts ack_seq/SACK edges on a backend→client segment. A
	// returned ok=false means "ack storm — drop".
	Egress(f *Flow, tcpHeader []byte) (ok bool)
	// Ingress adjusts seq/ack_seq/SACK edges on a client→backend segment.
	Ingress(f *Flow, tcpHeader []byte)
}

// PeekAckQueueHead returns the most recently queued ACK packet without
// removing it permanently: callers that consume it must Requeue it at the
// head again (spec §4.7: "the queued ACK buffer is always re-enqueued at the
// head after peeking").
func (f *Flow) PeekAckQueueHead() ([]byte, bool) {
	if len(f.AckQueue) == 0 {
		return nil, false
	}
	pkt := f.AckQueue[0]
	f.AckQueue = f.AckQueue[1:]
	return pkt, true
}

// RequeueAckHead pushes pkt back to the head of the queue.
func (f *Flow) RequeueAckHead(pkt []byte) {
	f.AckQueue = append([][]byte{pkt}, f.AckQueue...)
}

// HasFlag reports whether bit is set.
func (f *Flow) HasFlag(bit Flags) bool { return f.Flags.has(bit) }

// SetFlag sets bit.
func (f *Flow) SetFlag(bit Flags) { f.Flags.set(bit) }

// ClearFlag clears bit.
func (f *Flow) ClearFlag(bit Flags) { f.Flags.clear(bit) }
