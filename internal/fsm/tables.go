package fsm

import "vstcp/internal/flow"

// Table is the per-direction, per-flag-class matrix of next-states, indexed
// [Direction][FlagClass][current flow.State]. Two instances exist: the
// normal table and the secure ("anti-flood"/DoS-resistant) table; exactly
// one is active at a time (see SetSecure). Both are transliterated from
// the original kernel source's tcp_states[]/tcp_states_dos[] arrays, column
// for column — not copied C, but the same matrix.
type Table [numDirections][numFlagClasses][flow.NumStates]flow.State

// column order, matching flow.State's own iota order:
// sNO, sES, sSS, sSR, sFW, sTW, sCL, sCW, sLA, sLI, sSA

var normalTable = Table{
	Input: {
		ClassSyn: {flow.StateSynRecv, flow.StateEstablished, flow.StateEstablished, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv},
		ClassFin: {flow.StateClose, flow.StateCloseWait, flow.StateSynSent, flow.StateTimeWait, flow.StateTimeWait, flow.StateTimeWait, flow.StateClose, flow.StateClose, flow.StateLastAck, flow.StateListen, flow.StateTimeWait},
		ClassAck: {flow.StateClose, flow.StateEstablished, flow.StateSynSent, flow.StateEstablished, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateCloseWait, flow.StateClose, flow.StateListen, flow.StateSynAck},
		ClassRst: {flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose},
	},
	Output: {
		ClassSyn: {flow.StateSynSent, flow.StateEstablished, flow.StateSynSent, flow.StateSynRecv, flow.StateSynSent, flow.StateSynSent, flow.StateSynSent, flow.StateSynSent, flow.StateSynSent, flow.StateListen, flow.StateSynRecv},
		ClassFin: {flow.StateTimeWait, flow.StateFinWait, flow.StateSynSent, flow.StateTimeWait, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateTimeWait, flow.StateLastAck, flow.StateListen, flow.StateTimeWait},
		ClassAck: {flow.StateClose, flow.StateEstablished, flow.StateSynSent, flow.StateSynRecv, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateCloseWait, flow.StateLastAck, flow.StateListen, flow.StateSynAck},
		ClassRst: {flow.StateClose, flow.StateClose, flow.StateSynSent, flow.StateClose, flow.StateClose, flow.StateTimeWait, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose},
	},
	InputOnly: {
		ClassSyn: {flow.StateSynRecv, flow.StateEstablished, flow.StateEstablished, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv},
		ClassFin: {flow.StateClose, flow.StateFinWait, flow.StateSynSent, flow.StateTimeWait, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateClose, flow.StateLastAck, flow.StateListen, flow.StateTimeWait},
		ClassAck: {flow.StateClose, flow.StateEstablished, flow.StateSynSent, flow.StateSynRecv, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateCloseWait, flow.StateClose, flow.StateListen, flow.StateSynAck},
		ClassRst: {flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose},
	},
}

// secureTable is the anti-flood variant active when the control plane sets
// "secure" (spec §5 timeout_change flag bit 0): it biases fresh/half-open
// SYN traffic toward SYNACK rather than letting it accumulate SYN_RECV
// entries, and keeps an established SYNACK flow sticky under a SYN flood.
var secureTable = Table{
	Input: {
		ClassSyn: {flow.StateSynAck, flow.StateEstablished, flow.StateEstablished, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynAck},
		ClassFin: {flow.StateClose, flow.StateCloseWait, flow.StateSynSent, flow.StateTimeWait, flow.StateTimeWait, flow.StateTimeWait, flow.StateClose, flow.StateClose, flow.StateLastAck, flow.StateListen, flow.StateSynAck},
		ClassAck: {flow.StateClose, flow.StateEstablished, flow.StateSynSent, flow.StateSynRecv, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateCloseWait, flow.StateClose, flow.StateListen, flow.StateSynAck},
		ClassRst: {flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose},
	},
	Output: {
		ClassSyn: {flow.StateSynSent, flow.StateEstablished, flow.StateSynSent, flow.StateSynAck, flow.StateSynSent, flow.StateSynSent, flow.StateSynSent, flow.StateSynSent, flow.StateSynSent, flow.StateListen, flow.StateSynAck},
		ClassFin: {flow.StateTimeWait, flow.StateFinWait, flow.StateSynSent, flow.StateTimeWait, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateTimeWait, flow.StateLastAck, flow.StateListen, flow.StateTimeWait},
		ClassAck: {flow.StateClose, flow.StateEstablished, flow.StateSynSent, flow.StateSynRecv, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateCloseWait, flow.StateLastAck, flow.StateListen, flow.StateSynAck},
		ClassRst: {flow.StateClose, flow.StateClose, flow.StateSynSent, flow.StateClose, flow.StateClose, flow.StateTimeWait, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose},
	},
	InputOnly: {
		ClassSyn: {flow.StateSynAck, flow.StateEstablished, flow.StateEstablished, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynRecv, flow.StateSynAck},
		ClassFin: {flow.StateClose, flow.StateFinWait, flow.StateSynSent, flow.StateTimeWait, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateClose, flow.StateLastAck, flow.StateListen, flow.StateTimeWait},
		ClassAck: {flow.StateClose, flow.StateEstablished, flow.StateSynSent, flow.StateSynRecv, flow.StateFinWait, flow.StateTimeWait, flow.StateClose, flow.StateCloseWait, flow.StateClose, flow.StateListen, flow.StateSynAck},
		ClassRst: {flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose, flow.StateClose},
	},
}
