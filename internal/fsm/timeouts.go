package fsm

import (
	"sync"
	"time"

	"vstcp/internal/flow"
)

// DefaultTimeouts is the stock per-state idle timeout vector, transliterated
// from the original kernel source's sysctl_ip_vs_tcp_timeouts (HZ=1s units
// converted to time.Duration). The control plane may override any entry via
// SetTimeout (spec C9's set_state_timeout).
var DefaultTimeouts = [flow.NumStates]time.Duration{
	flow.StateNone:        2 * time.Second,
	flow.StateEstablished: 90 * time.Second,
	flow.StateSynSent:     3 * time.Second,
	flow.StateSynRecv:     30 * time.Second,
	flow.StateFinWait:     3 * time.Second,
	flow.StateTimeWait:    3 * time.Second,
	flow.StateClose:       3 * time.Second,
	flow.StateCloseWait:   3 * time.Second,
	flow.StateLastAck:     3 * time.Second,
	flow.StateListen:      120 * time.Second,
	flow.StateSynAck:      30 * time.Second,
}

var (
	timeoutsMu sync.RWMutex
	timeouts   = DefaultTimeouts
)

// Timeout returns the currently configured idle timeout for s.
func Timeout(s flow.State) time.Duration {
	timeoutsMu.RLock()
	defer timeoutsMu.RUnlock()
	return timeouts[s]
}

// SetTimeout overrides the idle timeout for one state (C9's
// set_state_timeout), a control-plane-only write guarded by a plain mutex:
// unlike the active table, the timeout vector is read under RLock rather
// than via atomic pointer, since it is read far less often (once per flow
// expiry check, not once per packet).
func SetTimeout(s flow.State, d time.Duration) {
	timeoutsMu.Lock()
	defer timeoutsMu.Unlock()
	timeouts[s] = d
}
