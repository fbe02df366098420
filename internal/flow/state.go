package flow

// State is one of the eleven TCP pseudo-states tracked per flow.
type State int

const (
	StateNone State = iota
	StateEstablished
	StateSynSent
	StateSynRecv
	StateFinWait
	StateTimeWait
	StateClose
	StateCloseWait
	StateLastAck
	StateListen
	StateSynAck
	numStates // sentinel, not a real state
)

var stateNames = [numStates]string{
	StateNone:         "NONE",
	StateEstablished:  "ESTABLISHED",
	StateSynSent:      "SYN_SENT",
	StateSynRecv:      "SYN_RECV",
	StateFinWait:      "FIN_WAIT",
	StateTimeWait:     "TIME_WAIT",
	StateClose:        "CLOSE",
	StateCloseWait:    "CLOSE_WAIT",
	StateLastAck:      "LAST_ACK",
	StateListen:       "LISTEN",
	StateSynAck:       "SYNACK",
}

// String renders the state the way the framework's debug_packet hook wants it.
func (s State) String() string {
	if s < 0 || int(s) >= int(numStates) {
		return "ERR!"
	}
	return stateNames[s]
}

// NumStates is the number of defined states (11); used to size timeout vectors
// and to bound state-table columns.
const NumStates = int(numStates)
