// Package schedule implements the scheduling gate (C6): the decision of
// whether an ingress segment may create a new flow at all. It classifies
// the segment, applies the SYN-proxy first-refusal rule, checks for a
// matching virtual service (the stray-VIP shield), consults an admission
// controller, and — only if every gate passes — invokes the framework's own
// scheduler to pick a real server.
//
// Service, the scheduler callback, and the flow table are all external
// collaborators (spec §1): this package only sequences the calls between
// them, it never implements load-balancing policy itself.
package schedule

import (
	"net"

	"vstcp/internal/admission"
	"vstcp/internal/flow"
	"vstcp/internal/fsm"
)

// Service is an opaque virtual-service handle, owned by the framework.
type Service interface{}

// ServiceLookup resolves a virtual address/port to a configured Service.
// ok is false for a destination this balancer does not serve at all — the
// stray-VIP case (spec §6).
type ServiceLookup func(vip net.IP, vport uint16, family flow.Family) (svc Service, ok bool)

// Scheduler picks a real server for an admitted Service. ok is false when
// no backend is currently eligible (e.g. all unhealthy).
type Scheduler func(svc Service) (destAddr net.IP, destPort uint16, backend flow.Backend, ok bool)

// Gate is the scheduling gate. Every field is a collaborator hook.
// internal/admission.AdaptiveController is a ready-made Admission, but the
// Gate does not install one itself: with a nil Admission, every segment that
// reaches the admission step is refused.
type Gate struct {
	Admission admission.Controller
	Lookup    ServiceLookup
	Schedule  Scheduler

	// SynProxyEnabled makes the gate refuse to schedule on a bare SYN: a
	// SYN-proxy answers the handshake itself and only this gate's ack_rcv
	// path (a pure ACK with no matching flow) triggers real scheduling
	// (spec §6 "SYN-proxy ack_rcv first-refusal").
	SynProxyEnabled bool

	// LogStrayVIP controls whether OnStrayVIP is invoked for a destination
	// with no matching Service. The segment is always refused either way —
	// this module never forwards to anything but a matched Service — the
	// knob only silences the warning for deployments that see stray VIP
	// traffic as routine background noise rather than worth logging.
	LogStrayVIP bool

	// OnStrayVIP is a rate-limited logging hook (spec §12, grounded on the
	// original's IP_VS_DBG_RL_PKT); nil disables logging even if
	// LogStrayVIP is true. Rate limiting itself is the caller's
	// responsibility — this package calls it once per rejected segment and
	// trusts the hook to throttle.
	OnStrayVIP func(vip net.IP, vport uint16)
}

// Decision is the outcome of ConnSchedule.
type Decision struct {
	Admitted bool
	DestAddr net.IP
	DestPort uint16
	Backend  flow.Backend
}

// ConnSchedule runs the gate for one ingress segment with no existing flow.
// class is the segment's already-classified flag class (fsm.Classify).
func (g *Gate) ConnSchedule(vip net.IP, vport uint16, family flow.Family, class fsm.FlagClass) Decision {
	if g.SynProxyEnabled && class == fsm.ClassSyn {
		return Decision{}
	}
	if class != fsm.ClassSyn && class != fsm.ClassAck {
		return Decision{}
	}

	svc, found := g.Lookup(vip, vport, family)
	if !found {
		if g.LogStrayVIP && g.OnStrayVIP != nil {
			g.OnStrayVIP(vip, vport)
		}
		return Decision{}
	}

	if g.Admission == nil || !g.Admission.Admit() {
		return Decision{}
	}

	dest, destPort, backend, ok := g.Schedule(svc)
	if !ok {
		g.Admission.Release()
		g.Admission.OnFailure()
		return Decision{}
	}
	g.Admission.OnSuccess()
	return Decision{Admitted: true, DestAddr: dest, DestPort: destPort, Backend: backend}
}
