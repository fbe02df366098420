// Package seqxlat implements the sequence-number translator (C3): FullNAT's
// fixed per-flow delta between the client's real initial sequence number and
// the balancer-chosen initial sequence number it hands to the real server,
// plus the reverse-path bookkeeping C7's RST synthesiser reads. SYN-proxy's
// own sequence rewriting is a separate external collaborator (flow.SynProxy)
// that the rewrite handlers invoke alongside this package, not through it.
//
// The delta direction is grounded on spec §3's definition:
// Delta = InitSeq - ClientInitSeq, and on the original kernel source's
// handling of FullNAT ("fnat") connections, where the balancer's own SYN to
// the real server substitutes InitSeq for the client's real ISN so the two
// legs of the proxied connection never share a sequence space.
package seqxlat

import "vstcp/internal/flow"

// ReuseCategory classifies which prior state a flow was reused from, for the
// framework's own reuse counters (spec §9's reuse accounting — stats are out
// of this module's scope, spec §1 — this is just the classification).
type ReuseCategory int

const (
	ReuseNone ReuseCategory = iota
	ReuseFromSynSent
	ReuseFromSynRecv
	ReuseFromOther
)

func categoryFor(prior flow.State) ReuseCategory {
	switch prior {
	case flow.StateNone:
		return ReuseNone
	case flow.StateSynSent:
		return ReuseFromSynSent
	case flow.StateSynRecv:
		return ReuseFromSynRecv
	default:
		return ReuseFromOther
	}
}

// Init (re)establishes a flow's FullNAT sequence record: chooseISN supplies
// the balancer-picked initial sequence number (ordinarily a cryptographic
// ISN generator external to this module), clientISN is the real client SYN
// sequence number, and prior is the flow's state before this SYN arrived —
// StateNone for a brand-new flow, any other state for a reused one (spec §9
// "reuse... counted under the appropriate category derived from the prior
// state"). Init always overwrites any existing record: regenerating the
// delta on reuse is deliberate, not a bug — a reused flow has a new client
// ISN and needs a new one on the backend leg too.
func Init(f *flow.Flow, prior flow.State, clientISN uint32, chooseISN func() uint32) ReuseCategory {
	initSeq := chooseISN()
	f.FNAT = flow.FullNATSeq{
		InitSeq:     initSeq,
		Delta:       initSeq - clientISN,
		FDataSeq:    clientISN + 1,
		Initialized: true,
	}
	f.Rev = flow.ReverseSeq{}
	return categoryFor(prior)
}

// IngressAdjust translates a client→real-server segment's sequence number
// into the real server's sequence space. The acknowledgment number is left
// untouched: it acknowledges data the real server itself sent, which was
// never renumbered (only the client-origin sequence space is shifted).
func IngressAdjust(f *flow.Flow, seq uint32) uint32 {
	if !f.FNAT.Initialized {
		return seq
	}
	return seq + f.FNAT.Delta
}

// EgressAdjust translates a real-server→client segment's acknowledgment
// number back into the client's real sequence space. The sequence number is
// left untouched: it is the real server's own data stream, which the client
// has tracked since the forwarded SYN-ACK and was never renumbered.
func EgressAdjust(f *flow.Flow, ack uint32) uint32 {
	if !f.FNAT.Initialized {
		return ack
	}
	return ack - f.FNAT.Delta
}

// after reports whether a comes strictly after b in sequence-number space,
// accounting for 32-bit wraparound (the standard TCP "serial number
// arithmetic" comparison, RFC 1982).
func after(a, b uint32) bool {
	return int32(a-b) > 0
}

// UpdateReverse records the highest real-server sequence state seen so far
// on the reverse path, for C7's RST synthesiser (spec §4.3 "reverse-path
// bookkeeping"). endSeq is seq+segmentLen of a real-server→client segment;
// ackSeq is its acknowledgment number. Updates are monotonic: a segment
// that re-states older reverse-path state (a retransmit, a reordered
// packet) never regresses the stored values.
func UpdateReverse(f *flow.Flow, endSeq, ackSeq uint32) {
	if !f.Rev.HasAckSeq || after(endSeq, f.Rev.EndSeq) {
		f.Rev.EndSeq = endSeq
	}
	if !f.Rev.HasAckSeq || after(ackSeq, f.Rev.AckSeq) {
		f.Rev.AckSeq = ackSeq
		f.Rev.HasAckSeq = true
	}
}
