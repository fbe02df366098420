package schedule

import (
	"net"
	"testing"

	"vstcp/internal/admission"
	"vstcp/internal/flow"
	"vstcp/internal/fsm"
)

func TestSynProxyRefusesBareSyn(t *testing.T) {
	g := &Gate{
		Admission:       admission.NewAdaptiveController(10, 1, 10),
		SynProxyEnabled: true,
		Lookup:          func(net.IP, uint16, flow.Family) (Service, bool) { return struct{}{}, true },
		Schedule:        func(Service) (net.IP, uint16, flow.Backend, bool) { return nil, 0, nil, true },
	}
	d := g.ConnSchedule(net.ParseIP("198.51.100.1"), 80, flow.FamilyV4, fsm.ClassSyn)
	if d.Admitted {
		t.Errorf("expected SYN-proxy mode to refuse scheduling on a bare SYN")
	}
}

func TestSynProxyAdmitsOnAck(t *testing.T) {
	g := &Gate{
		Admission:       admission.NewAdaptiveController(10, 1, 10),
		SynProxyEnabled: true,
		Lookup:          func(net.IP, uint16, flow.Family) (Service, bool) { return struct{}{}, true },
		Schedule:        func(Service) (net.IP, uint16, flow.Backend, bool) { return net.ParseIP("10.0.0.5"), 8080, nil, true },
	}
	d := g.ConnSchedule(net.ParseIP("198.51.100.1"), 80, flow.FamilyV4, fsm.ClassAck)
	if !d.Admitted {
		t.Fatalf("expected SYN-proxy's ack_rcv path to admit scheduling")
	}
	if d.DestPort != 8080 {
		t.Errorf("expected scheduled dest port 8080, got %d", d.DestPort)
	}
}

func TestStrayVIPIsRefusedAndLogged(t *testing.T) {
	var loggedVIP net.IP
	g := &Gate{
		Admission:    admission.NewAdaptiveController(10, 1, 10),
		Lookup:       func(net.IP, uint16, flow.Family) (Service, bool) { return nil, false },
		Schedule:     func(Service) (net.IP, uint16, flow.Backend, bool) { return nil, 0, nil, false },
		LogStrayVIP:  true,
		OnStrayVIP:   func(vip net.IP, _ uint16) { loggedVIP = vip },
	}
	vip := net.ParseIP("203.0.113.9")
	d := g.ConnSchedule(vip, 443, flow.FamilyV4, fsm.ClassSyn)
	if d.Admitted {
		t.Errorf("expected stray VIP traffic to be refused")
	}
	if !loggedVIP.Equal(vip) {
		t.Errorf("expected the stray VIP hook to be called with %v, got %v", vip, loggedVIP)
	}
}

func TestAdmissionOverloadRefuses(t *testing.T) {
	ctrl := admission.NewAdaptiveController(0, 0, 10)
	g := &Gate{
		Admission: ctrl,
		Lookup:    func(net.IP, uint16, flow.Family) (Service, bool) { return struct{}{}, true },
		Schedule:  func(Service) (net.IP, uint16, flow.Backend, bool) { return nil, 0, nil, true },
	}
	d := g.ConnSchedule(net.ParseIP("198.51.100.1"), 80, flow.FamilyV4, fsm.ClassSyn)
	if d.Admitted {
		t.Errorf("expected a zero-capacity admission controller to refuse scheduling")
	}
}

func TestScheduleFailureReleasesAndPenalizes(t *testing.T) {
	ctrl := admission.NewAdaptiveController(5, 1, 5)
	g := &Gate{
		Admission: ctrl,
		Lookup:    func(net.IP, uint16, flow.Family) (Service, bool) { return struct{}{}, true },
		Schedule:  func(Service) (net.IP, uint16, flow.Backend, bool) { return nil, 0, nil, false },
	}
	d := g.ConnSchedule(net.ParseIP("198.51.100.1"), 80, flow.FamilyV4, fsm.ClassSyn)
	if d.Admitted {
		t.Errorf("expected a scheduler failure to not admit the flow")
	}
	if ctrl.CurrentLimit() != 3 {
		t.Errorf("expected OnFailure to shrink the limit to 3 (5*0.7 rounded down), got %d", ctrl.CurrentLimit())
	}
}
